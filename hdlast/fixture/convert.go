package fixture

import (
	"fmt"

	"github.com/sarchlab/rhgforge/hdlast"
)

var unaryOps = map[string]hdlast.UnaryOp{
	"not": hdlast.UnaryNot, "bnot": hdlast.UnaryBitwiseNot, "neg": hdlast.UnaryNeg,
	"rand": hdlast.UnaryReduceAnd, "ror": hdlast.UnaryReduceOr, "rxor": hdlast.UnaryReduceXor,
	"rnand": hdlast.UnaryReduceNand, "rnor": hdlast.UnaryReduceNor, "rxnor": hdlast.UnaryReduceXnor,
}

var binaryOps = map[string]hdlast.BinaryOp{
	"add": hdlast.BinaryAdd, "sub": hdlast.BinarySub, "mul": hdlast.BinaryMul,
	"div": hdlast.BinaryDiv, "mod": hdlast.BinaryMod,
	"and": hdlast.BinaryAnd, "or": hdlast.BinaryOr, "xor": hdlast.BinaryXor,
	"shl": hdlast.BinaryShl, "shr": hdlast.BinaryShr, "ashr": hdlast.BinaryAShr,
	"eq": hdlast.BinaryEq, "neq": hdlast.BinaryNeq,
	"lt": hdlast.BinaryLt, "le": hdlast.BinaryLe, "gt": hdlast.BinaryGt, "ge": hdlast.BinaryGe,
	"land": hdlast.BinaryLogicalAnd, "lor": hdlast.BinaryLogicalOr,
}

var edgeKinds = map[string]hdlast.EdgeKind{
	"": hdlast.EdgeNone, "none": hdlast.EdgeNone, "pos": hdlast.EdgePos, "neg": hdlast.EdgeNeg,
}

var procKinds = map[string]hdlast.ProcKind{
	"comb": hdlast.AlwaysComb, "latch": hdlast.AlwaysLatch, "ff": hdlast.AlwaysFF,
	"always": hdlast.Always, "initial": hdlast.Initial, "final": hdlast.Final,
}

func convertExpr(e *exprYAML) (hdlast.Expr, error) {
	if e == nil {
		return nil, fmt.Errorf("fixture: nil expression")
	}
	typ, err := parseValueType(e.Type)
	if err != nil {
		return nil, err
	}

	switch e.Kind {
	case "literal":
		return hdlast.NewLiteral(e.Text, e.Width, e.Signed, typ), nil
	case "ident":
		return hdlast.NewIdent(e.Name, e.Width, e.Signed, typ), nil
	case "xmr_path":
		return hdlast.NewXmrPath(e.Path, e.Width, e.Signed, typ), nil
	case "unary":
		op, ok := unaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown unary op %q", e.Op)
		}
		operand, err := convertExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return hdlast.NewUnary(op, operand, e.Width, e.Signed, typ), nil
	case "binary":
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown binary op %q", e.Op)
		}
		left, err := convertExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(e.Right)
		if err != nil {
			return nil, err
		}
		return hdlast.NewBinary(op, left, right, e.Width, e.Signed, typ), nil
	case "ternary":
		cond, err := convertExpr(e.Cond)
		if err != nil {
			return nil, err
		}
		whenTrue, err := convertExpr(e.WhenTrue)
		if err != nil {
			return nil, err
		}
		whenFalse, err := convertExpr(e.WhenFalse)
		if err != nil {
			return nil, err
		}
		return hdlast.NewTernary(cond, whenTrue, whenFalse, e.Width, e.Signed, typ), nil
	case "concat":
		operands, err := convertExprList(e.Operands)
		if err != nil {
			return nil, err
		}
		return hdlast.NewConcat(operands, e.Width, e.Signed, typ), nil
	case "replicate":
		operand, err := convertExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		return hdlast.NewReplicate(e.Count, operand, e.Width, e.Signed, typ), nil
	case "part_select":
		base, err := convertExpr(e.Base)
		if err != nil {
			return nil, err
		}
		return hdlast.NewPartSelect(base, e.Hi, e.Lo, e.Signed, typ), nil
	case "index_select":
		base, err := convertExpr(e.Base)
		if err != nil {
			return nil, err
		}
		index, err := convertExpr(e.Index)
		if err != nil {
			return nil, err
		}
		return hdlast.NewIndexSelect(base, index, e.Width, e.Signed, typ), nil
	case "indexed_part_select":
		base, err := convertExpr(e.Base)
		if err != nil {
			return nil, err
		}
		index, err := convertExpr(e.Index)
		if err != nil {
			return nil, err
		}
		return hdlast.NewIndexedPartSelect(base, index, e.Width, e.Up, e.Signed, typ), nil
	case "member_select":
		base, err := convertExpr(e.Base)
		if err != nil {
			return nil, err
		}
		return hdlast.NewMemberSelect(base, e.Field, e.Width, e.Signed, typ), nil
	case "system_call":
		args, err := convertExprList(e.Args)
		if err != nil {
			return nil, err
		}
		return hdlast.NewSystemCall(e.Name, args, e.Width, e.Signed, typ), nil
	case "dpi_call":
		args, err := convertExprList(e.Args)
		if err != nil {
			return nil, err
		}
		imp := hdlast.DpiImportInfo{CFunctionName: e.CFunction, IsPure: e.Pure, IsContext: e.Context}
		return hdlast.NewDpiCall(imp, args, e.Width, e.Signed, typ), nil
	default:
		return nil, fmt.Errorf("fixture: unknown expression kind %q", e.Kind)
	}
}

func convertExprList(in []exprYAML) ([]hdlast.Expr, error) {
	out := make([]hdlast.Expr, 0, len(in))
	for i := range in {
		e, err := convertExpr(&in[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func convertStmt(s *stmtYAML) (hdlast.Stmt, error) {
	if s == nil {
		return nil, fmt.Errorf("fixture: nil statement")
	}

	switch s.Kind {
	case "block":
		proc, ok := procKinds[s.ProcKind]
		if !ok {
			return nil, fmt.Errorf("fixture: unknown proc kind %q", s.ProcKind)
		}
		body := make([]hdlast.Stmt, 0, len(s.Body))
		for i := range s.Body {
			st, err := convertStmt(&s.Body[i])
			if err != nil {
				return nil, err
			}
			body = append(body, st)
		}
		return hdlast.BlockStmt{ProcKind: proc, Body: body}, nil

	case "if":
		cond, err := convertExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := convertStmt(s.Then)
		if err != nil {
			return nil, err
		}
		var otherwise hdlast.Stmt
		if s.Otherwise != nil {
			otherwise, err = convertStmt(s.Otherwise)
			if err != nil {
				return nil, err
			}
		}
		return hdlast.IfStmt{Cond: cond, Then: then, Otherwise: otherwise}, nil

	case "case":
		selector, err := convertExpr(s.Selector)
		if err != nil {
			return nil, err
		}
		items := make([]hdlast.CaseItem, 0, len(s.Items))
		for _, it := range s.Items {
			values, err := convertExprList(it.Values)
			if err != nil {
				return nil, err
			}
			body, err := convertStmt(it.Body)
			if err != nil {
				return nil, err
			}
			items = append(items, hdlast.CaseItem{Values: values, Body: body})
		}
		return hdlast.CaseStmt{Selector: selector, Items: items, CoversAllTwoState: s.CoversAllTwoState}, nil

	case "for":
		init, err := convertStmt(s.Init)
		if err != nil {
			return nil, err
		}
		cond, err := convertExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		step, err := convertStmt(s.Step)
		if err != nil {
			return nil, err
		}
		loop, err := convertStmt(s.Loop)
		if err != nil {
			return nil, err
		}
		return hdlast.ForLoopStmt{Init: init, Cond: cond, Step: step, Body: loop}, nil

	case "while":
		var cond hdlast.Expr
		var err error
		if s.Cond != nil {
			cond, err = convertExpr(s.Cond)
			if err != nil {
				return nil, err
			}
		}
		loop, err := convertStmt(s.Loop)
		if err != nil {
			return nil, err
		}
		return hdlast.WhileLoopStmt{Cond: cond, Body: loop}, nil

	case "do_while":
		cond, err := convertExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		loop, err := convertStmt(s.Loop)
		if err != nil {
			return nil, err
		}
		return hdlast.DoWhileLoopStmt{Cond: cond, Body: loop}, nil

	case "pattern_if":
		cond, err := convertExpr(s.Cond)
		if err != nil {
			return nil, err
		}
		then, err := convertStmt(s.Then)
		if err != nil {
			return nil, err
		}
		var otherwise hdlast.Stmt
		if s.Otherwise != nil {
			otherwise, err = convertStmt(s.Otherwise)
			if err != nil {
				return nil, err
			}
		}
		return hdlast.PatternIfStmt{Cond: cond, Pattern: s.Pattern, Then: then, Otherwise: otherwise}, nil

	case "pattern_case":
		selector, err := convertExpr(s.Selector)
		if err != nil {
			return nil, err
		}
		items := make([]hdlast.PatternCaseItem, 0, len(s.Items))
		for _, it := range s.Items {
			body, err := convertStmt(it.Body)
			if err != nil {
				return nil, err
			}
			items = append(items, hdlast.PatternCaseItem{Pattern: it.Pattern, Body: body})
		}
		return hdlast.PatternCaseStmt{Selector: selector, Items: items}, nil

	case "event_control":
		events := make([]hdlast.EventTerm, 0, len(s.Events))
		for _, ev := range s.Events {
			edge, ok := edgeKinds[ev.Edge]
			if !ok {
				return nil, fmt.Errorf("fixture: unknown edge %q", ev.Edge)
			}
			var operand hdlast.Expr
			var err error
			if ev.Operand != nil {
				operand, err = convertExpr(ev.Operand)
				if err != nil {
					return nil, err
				}
			}
			events = append(events, hdlast.EventTerm{Edge: edge, Operand: operand})
		}
		inner, err := convertStmt(s.Inner)
		if err != nil {
			return nil, err
		}
		return hdlast.EventControlStmt{Events: events, Inner: inner}, nil

	case "assign":
		target, err := convertExpr(s.Target)
		if err != nil {
			return nil, err
		}
		value, err := convertExpr(s.Value)
		if err != nil {
			return nil, err
		}
		return hdlast.AssignStmt{Target: target, Value: value, IsNonBlocking: s.IsNonBlocking}, nil

	case "system_task":
		args, err := convertExprList(s.Args)
		if err != nil {
			return nil, err
		}
		return hdlast.SystemTaskStmt{Name: s.Name, Args: args, MemoryTarget: s.MemoryTarget}, nil

	case "dpi_call":
		args, err := convertExprList(s.Args)
		if err != nil {
			return nil, err
		}
		imp := hdlast.DpiImportInfo{CFunctionName: s.CFunction, IsPure: s.Pure, IsContext: s.Context}
		return hdlast.DpiCallStmt{Import: imp, Args: args}, nil

	default:
		return nil, fmt.Errorf("fixture: unknown statement kind %q", s.Kind)
	}
}
