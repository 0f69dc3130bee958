package lower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rhgforge/hdlast"
)

// loopEnv holds the current integer value of every loop variable live
// at a given point of static unrolling. Nested loops push onto the same
// map under distinct names; shadowing across nested loops sharing a
// name is not attempted, matching the original C++ convert pass which
// only unrolls simple counted loops with a single index variable.
type loopEnv map[string]int64

// evalConstExpr evaluates e to an int64 under env, reporting false if
// e isn't one of the small set of shapes a static loop bound can take
// (literals, the loop variable itself, and arithmetic/comparison over
// those).
func evalConstExpr(e hdlast.Expr, env loopEnv) (int64, bool) {
	switch t := e.(type) {
	case hdlast.LiteralExpr:
		return parseLiteralInt(t.Text)

	case hdlast.IdentExpr:
		v, ok := env[t.Name]
		return v, ok

	case hdlast.UnaryExpr:
		v, ok := evalConstExpr(t.Operand, env)
		if !ok {
			return 0, false
		}
		switch t.Op {
		case hdlast.UnaryNeg:
			return -v, true
		case hdlast.UnaryNot:
			if v == 0 {
				return 1, true
			}
			return 0, true
		case hdlast.UnaryBitwiseNot:
			return ^v, true
		default:
			return 0, false
		}

	case hdlast.BinaryExpr:
		l, ok := evalConstExpr(t.Left, env)
		if !ok {
			return 0, false
		}
		r, ok := evalConstExpr(t.Right, env)
		if !ok {
			return 0, false
		}
		return evalBinary(t.Op, l, r)

	case hdlast.TernaryExpr:
		c, ok := evalConstExpr(t.Cond, env)
		if !ok {
			return 0, false
		}
		if c != 0 {
			return evalConstExpr(t.WhenTrue, env)
		}
		return evalConstExpr(t.WhenFalse, env)

	default:
		return 0, false
	}
}

func evalBinary(op hdlast.BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case hdlast.BinaryAdd:
		return l + r, true
	case hdlast.BinarySub:
		return l - r, true
	case hdlast.BinaryMul:
		return l * r, true
	case hdlast.BinaryDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case hdlast.BinaryMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case hdlast.BinaryAnd:
		return l & r, true
	case hdlast.BinaryOr:
		return l | r, true
	case hdlast.BinaryXor:
		return l ^ r, true
	case hdlast.BinaryShl:
		return l << uint(r), true
	case hdlast.BinaryShr, hdlast.BinaryAShr:
		return l >> uint(r), true
	case hdlast.BinaryEq:
		return boolInt(l == r), true
	case hdlast.BinaryNeq:
		return boolInt(l != r), true
	case hdlast.BinaryLt:
		return boolInt(l < r), true
	case hdlast.BinaryLe:
		return boolInt(l <= r), true
	case hdlast.BinaryGt:
		return boolInt(l > r), true
	case hdlast.BinaryGe:
		return boolInt(l >= r), true
	case hdlast.BinaryLogicalAnd:
		return boolInt(l != 0 && r != 0), true
	case hdlast.BinaryLogicalOr:
		return boolInt(l != 0 || r != 0), true
	default:
		return 0, false
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// parseLiteralInt strips a SystemVerilog size/base prefix such as
// "8'hFF" or "1'b1" and parses the remaining digits in the implied
// base; a bare literal like "3" is parsed as decimal.
func parseLiteralInt(text string) (int64, bool) {
	idx := strings.IndexByte(text, '\'')
	if idx < 0 {
		v, err := strconv.ParseInt(text, 10, 64)
		return v, err == nil
	}
	baseChar := byte('d')
	rest := text[idx+1:]
	if len(rest) > 0 && (rest[0] < '0' || rest[0] > '9') {
		baseChar = rest[0]
		rest = rest[1:]
	}
	var base int
	switch baseChar {
	case 'h', 'H':
		base = 16
	case 'o', 'O':
		base = 8
	case 'b', 'B':
		base = 2
	default:
		base = 10
	}
	v, err := strconv.ParseInt(rest, base, 64)
	return v, err == nil
}

// loopAssignTarget extracts the identifier name a loop's Init/Step
// statement assigns into, the only shape the unroller understands.
func loopAssignTarget(st hdlast.Stmt) (string, hdlast.Expr, bool) {
	a, ok := st.(hdlast.AssignStmt)
	if !ok {
		return "", nil, false
	}
	ident, ok := a.Target.(hdlast.IdentExpr)
	if !ok {
		return "", nil, false
	}
	return ident.Name, a.Value, true
}

// substExpr rebuilds e with every IdentExpr named varName replaced by
// a literal carrying val, so one unrolled loop iteration's body can be
// lowered as if the loop variable were a compile-time constant.
func substExpr(e hdlast.Expr, varName string, val int64) hdlast.Expr {
	switch t := e.(type) {
	case hdlast.LiteralExpr:
		return t

	case hdlast.IdentExpr:
		if t.Name == varName {
			return hdlast.NewLiteral(strconv.FormatInt(val, 10), t.Width(), t.IsSigned(), t.Type())
		}
		return t

	case hdlast.XmrPathExpr:
		return t

	case hdlast.UnaryExpr:
		return hdlast.NewUnary(t.Op, substExpr(t.Operand, varName, val), t.Width(), t.IsSigned(), t.Type())

	case hdlast.BinaryExpr:
		return hdlast.NewBinary(t.Op, substExpr(t.Left, varName, val), substExpr(t.Right, varName, val), t.Width(), t.IsSigned(), t.Type())

	case hdlast.TernaryExpr:
		return hdlast.NewTernary(substExpr(t.Cond, varName, val), substExpr(t.WhenTrue, varName, val), substExpr(t.WhenFalse, varName, val), t.Width(), t.IsSigned(), t.Type())

	case hdlast.ConcatExpr:
		ops := make([]hdlast.Expr, len(t.Operands))
		for i, o := range t.Operands {
			ops[i] = substExpr(o, varName, val)
		}
		return hdlast.NewConcat(ops, t.Width(), t.IsSigned(), t.Type())

	case hdlast.ReplicateExpr:
		return hdlast.NewReplicate(t.Count, substExpr(t.Operand, varName, val), t.Width(), t.IsSigned(), t.Type())

	case hdlast.PartSelectExpr:
		return hdlast.NewPartSelect(substExpr(t.Base, varName, val), t.Hi, t.Lo, t.IsSigned(), t.Type())

	case hdlast.IndexSelectExpr:
		return hdlast.NewIndexSelect(substExpr(t.Base, varName, val), substExpr(t.Index, varName, val), t.Width(), t.IsSigned(), t.Type())

	case hdlast.IndexedPartSelectExpr:
		return hdlast.NewIndexedPartSelect(substExpr(t.Base, varName, val), substExpr(t.Index, varName, val), t.Width, t.Up, t.IsSigned(), t.Type())

	case hdlast.MemberSelectExpr:
		return hdlast.NewMemberSelect(substExpr(t.Base, varName, val), t.Field, t.Width(), t.IsSigned(), t.Type())

	case hdlast.SystemCallExpr:
		args := make([]hdlast.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExpr(a, varName, val)
		}
		return hdlast.NewSystemCall(t.Name, args, t.Width(), t.IsSigned(), t.Type())

	case hdlast.DpiCallExpr:
		args := make([]hdlast.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExpr(a, varName, val)
		}
		return hdlast.NewDpiCall(t.Import, args, t.Width(), t.IsSigned(), t.Type())

	default:
		return e
	}
}

// substStmt mirrors substExpr over the statement tree so an unrolled
// iteration's body carries the loop variable's current value through
// every nested assignment target and system-task argument.
func substStmt(st hdlast.Stmt, varName string, val int64) hdlast.Stmt {
	switch t := st.(type) {
	case hdlast.BlockStmt:
		body := make([]hdlast.Stmt, len(t.Body))
		for i, inner := range t.Body {
			body[i] = substStmt(inner, varName, val)
		}
		return hdlast.BlockStmt{ProcKind: t.ProcKind, Body: body}

	case hdlast.EventControlStmt:
		events := make([]hdlast.EventTerm, len(t.Events))
		for i, ev := range t.Events {
			events[i] = hdlast.EventTerm{Edge: ev.Edge, Operand: substExpr(ev.Operand, varName, val)}
		}
		return hdlast.EventControlStmt{Events: events, Inner: substStmt(t.Inner, varName, val)}

	case hdlast.IfStmt:
		var otherwise hdlast.Stmt
		if t.Otherwise != nil {
			otherwise = substStmt(t.Otherwise, varName, val)
		}
		return hdlast.IfStmt{Cond: substExpr(t.Cond, varName, val), Then: substStmt(t.Then, varName, val), Otherwise: otherwise}

	case hdlast.CaseStmt:
		items := make([]hdlast.CaseItem, len(t.Items))
		for i, it := range t.Items {
			values := make([]hdlast.Expr, len(it.Values))
			for j, v := range it.Values {
				values[j] = substExpr(v, varName, val)
			}
			items[i] = hdlast.CaseItem{Values: values, Body: substStmt(it.Body, varName, val)}
		}
		return hdlast.CaseStmt{Selector: substExpr(t.Selector, varName, val), Items: items, CoversAllTwoState: t.CoversAllTwoState}

	case hdlast.ForLoopStmt:
		return hdlast.ForLoopStmt{
			Init: substStmt(t.Init, varName, val), Cond: substExpr(t.Cond, varName, val),
			Step: substStmt(t.Step, varName, val), Body: substStmt(t.Body, varName, val),
		}

	case hdlast.WhileLoopStmt:
		var cond hdlast.Expr
		if t.Cond != nil {
			cond = substExpr(t.Cond, varName, val)
		}
		return hdlast.WhileLoopStmt{Cond: cond, Body: substStmt(t.Body, varName, val)}

	case hdlast.AssignStmt:
		return hdlast.AssignStmt{Target: substExpr(t.Target, varName, val), Value: substExpr(t.Value, varName, val), IsNonBlocking: t.IsNonBlocking}

	case hdlast.SystemTaskStmt:
		args := make([]hdlast.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExpr(a, varName, val)
		}
		return hdlast.SystemTaskStmt{Name: t.Name, Args: args, MemoryTarget: t.MemoryTarget}

	case hdlast.DpiCallStmt:
		args := make([]hdlast.Expr, len(t.Args))
		for i, a := range t.Args {
			args[i] = substExpr(a, varName, val)
		}
		return hdlast.DpiCallStmt{Import: t.Import, Args: args}

	default:
		return st
	}
}

func (s *state) todof(format string, args ...any) {
	s.ctx.Diagnostics.Todo(fmt.Sprintf(format, args...), "lower")
}

func (s *state) errorf(format string, args ...any) {
	s.ctx.Diagnostics.Error(fmt.Sprintf(format, args...), "lower")
}
