// Package lower implements the Statement Lowerer: it flattens one
// module's procedural and continuous-assignment statements into a flat
// plan.ExprNode table, an ordered plan.WriteIntent list, and the
// plan.MemoryReadPort/MemoryWritePort/MemoryInit/RegisterInit side
// tables the Graph Assembler ultimately consumes.
package lower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/rhg"
)

// Context carries the one cross-cutting config knob (the static
// for-loop unroll bound) and the diagnostics sink lowering reports
// into.
type Context struct {
	MaxLoopIterations uint32
	Diagnostics       *diag.Diagnostics
}

// StmtLowererPass lowers one ModulePlan's Body into a LoweringPlan.
type StmtLowererPass struct {
	ctx *Context
}

func New(ctx *Context) *StmtLowererPass { return &StmtLowererPass{ctx: ctx} }

type timing struct {
	has      bool
	edges    []plan.EventEdge
	operands []plan.ExprNodeId
}

type state struct {
	ctx *Context
	mp  *plan.ModulePlan
	lp  *plan.LoweringPlan

	memorySymbols map[plan.SymbolId]bool
	dpiSeen       map[string]bool

	timing timing
}

// Lower runs the Statement Lowerer over mp.Body's statements and
// continuous assigns, returning the flattened LoweringPlan.
func (p *StmtLowererPass) Lower(mp *plan.ModulePlan) *plan.LoweringPlan {
	lp := &plan.LoweringPlan{}
	s := &state{ctx: p.ctx, mp: mp, lp: lp, memorySymbols: map[plan.SymbolId]bool{}, dpiSeen: map[string]bool{}}

	for _, sig := range mp.Signals {
		if sig.Kind == plan.SignalMemory {
			s.memorySymbols[sig.Symbol] = true
		}
	}

	for _, ca := range mp.Body.ContinuousAssigns() {
		s.lowerAssign(hdlast.AssignStmt{Target: ca.Target, Value: ca.Value, IsNonBlocking: false},
			plan.InvalidExprNodeId, plan.ProcUnknown, false)
	}

	for _, st := range mp.Body.Statements() {
		s.lowerStmt(st, plan.InvalidExprNodeId, plan.ProcUnknown, false)
	}

	return lp
}

// --- expression-tree node construction -------------------------------------

func (s *state) newNode(n plan.ExprNode) plan.ExprNodeId {
	id := plan.ExprNodeId(len(s.lp.Values))
	s.lp.Values = append(s.lp.Values, n)
	return id
}

func (s *state) constNode(value int64, width int) plan.ExprNodeId {
	return s.newNode(plan.ExprNode{
		Kind: plan.ExprConstant, Literal: strconv.FormatInt(value, 10),
		WidthHint: width, ValueType: rhg.Bit,
	})
}

func (s *state) opNode(op rhg.OperationKind, operands []plan.ExprNodeId, width int, isSigned bool, vt rhg.ValueType) plan.ExprNodeId {
	return s.newNode(plan.ExprNode{Kind: plan.ExprOpNode, Op: op, Operands: operands, WidthHint: width, IsSigned: isSigned, ValueType: vt})
}

func (s *state) andGuard(a, b plan.ExprNodeId) plan.ExprNodeId {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	default:
		return s.opNode(rhg.KAnd, []plan.ExprNodeId{a, b}, 1, false, rhg.Bit)
	}
}

func (s *state) orGuard(a, b plan.ExprNodeId) plan.ExprNodeId {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	default:
		return s.opNode(rhg.KOr, []plan.ExprNodeId{a, b}, 1, false, rhg.Bit)
	}
}

func (s *state) notGuard(a plan.ExprNodeId) plan.ExprNodeId {
	if !a.Valid() {
		return plan.InvalidExprNodeId
	}
	return s.opNode(rhg.KNot, []plan.ExprNodeId{a}, 1, false, rhg.Bit)
}

// --- expression conversion ---------------------------------------------

var unaryOpKinds = map[hdlast.UnaryOp]rhg.OperationKind{
	hdlast.UnaryNot:       rhg.KNot,
	hdlast.UnaryBitwiseNot: rhg.KNot,
	hdlast.UnaryReduceAnd: rhg.KReduceAnd,
	hdlast.UnaryReduceOr:  rhg.KReduceOr,
	hdlast.UnaryReduceXor: rhg.KReduceXor,
}

var binaryOpKinds = map[hdlast.BinaryOp]rhg.OperationKind{
	hdlast.BinaryAdd: rhg.KAdd, hdlast.BinarySub: rhg.KSub, hdlast.BinaryMul: rhg.KMul,
	hdlast.BinaryDiv: rhg.KDiv, hdlast.BinaryMod: rhg.KMod,
	hdlast.BinaryAnd: rhg.KAnd, hdlast.BinaryOr: rhg.KOr, hdlast.BinaryXor: rhg.KXor,
	hdlast.BinaryShl: rhg.KShl, hdlast.BinaryShr: rhg.KShr, hdlast.BinaryAShr: rhg.KAShr,
	hdlast.BinaryEq: rhg.KEq, hdlast.BinaryNeq: rhg.KNeq,
	hdlast.BinaryLt: rhg.KLt, hdlast.BinaryLe: rhg.KLe, hdlast.BinaryGt: rhg.KGt, hdlast.BinaryGe: rhg.KGe,
	hdlast.BinaryLogicalAnd: rhg.KAnd, hdlast.BinaryLogicalOr: rhg.KOr,
}

// convertExpr lowers a read-position hdlast.Expr into the ExprNode
// table, resolving a dynamically-indexed read on a memory signal into
// a MemoryReadPort rather than a generic slice op.
func (s *state) convertExpr(e hdlast.Expr) plan.ExprNodeId {
	switch t := e.(type) {
	case hdlast.LiteralExpr:
		return s.newNode(plan.ExprNode{Kind: plan.ExprConstant, Literal: t.Text, WidthHint: t.Width(), IsSigned: t.IsSigned(), ValueType: t.Type()})

	case hdlast.IdentExpr:
		sym := s.mp.SymbolTable.Intern(t.Name)
		return s.newNode(plan.ExprNode{Kind: plan.ExprSymbolRef, Symbol: sym, WidthHint: t.Width(), IsSigned: t.IsSigned(), ValueType: t.Type()})

	case hdlast.XmrPathExpr:
		return s.newNode(plan.ExprNode{Kind: plan.ExprXmrRead, XmrPath: strings.Join(t.Path, "."), WidthHint: t.Width(), ValueType: t.Type()})

	case hdlast.UnaryExpr:
		op, ok := unaryOpKinds[t.Op]
		operand := s.convertExpr(t.Operand)
		if !ok {
			// Reduce-NAND/NOR/XNOR have no dedicated kind: compose them
			// from the matching reduction followed by a kNot.
			base := map[hdlast.UnaryOp]rhg.OperationKind{
				hdlast.UnaryReduceNand: rhg.KReduceAnd, hdlast.UnaryReduceNor: rhg.KReduceOr, hdlast.UnaryReduceXnor: rhg.KReduceXor,
			}[t.Op]
			inner := s.opNode(base, []plan.ExprNodeId{operand}, 1, false, rhg.Bit)
			return s.opNode(rhg.KNot, []plan.ExprNodeId{inner}, 1, false, rhg.Bit)
		}
		if t.Op == hdlast.UnaryNeg {
			zero := s.constNode(0, t.Width())
			return s.opNode(rhg.KSub, []plan.ExprNodeId{zero, operand}, t.Width(), t.IsSigned(), t.Type())
		}
		return s.opNode(op, []plan.ExprNodeId{operand}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.BinaryExpr:
		op := binaryOpKinds[t.Op]
		left, right := s.convertExpr(t.Left), s.convertExpr(t.Right)
		return s.opNode(op, []plan.ExprNodeId{left, right}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.TernaryExpr:
		cond := s.convertExpr(t.Cond)
		whenTrue := s.convertExpr(t.WhenTrue)
		whenFalse := s.convertExpr(t.WhenFalse)
		return s.opNode(rhg.KMux, []plan.ExprNodeId{cond, whenTrue, whenFalse}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.ConcatExpr:
		operands := make([]plan.ExprNodeId, len(t.Operands))
		for i, o := range t.Operands {
			operands[i] = s.convertExpr(o)
		}
		return s.opNode(rhg.KConcat, operands, t.Width(), false, t.Type())

	case hdlast.ReplicateExpr:
		countNode := s.constNode(int64(t.Count), 32)
		operand := s.convertExpr(t.Operand)
		return s.opNode(rhg.KReplicate, []plan.ExprNodeId{countNode, operand}, t.Width(), false, t.Type())

	case hdlast.PartSelectExpr:
		if s.isMemoryIdent(t.Base) {
			return s.memoryRead(t.Base, s.constNode(int64(t.Hi), 32), t.Width(), t.Type())
		}
		base := s.convertExpr(t.Base)
		hi, lo := s.constNode(int64(t.Hi), 32), s.constNode(int64(t.Lo), 32)
		return s.opNode(rhg.KSliceStatic, []plan.ExprNodeId{base, hi, lo}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.IndexSelectExpr:
		if s.isMemoryIdent(t.Base) {
			return s.memoryRead(t.Base, s.convertExpr(t.Index), t.Width(), t.Type())
		}
		base := s.convertExpr(t.Base)
		index := s.convertExpr(t.Index)
		return s.opNode(rhg.KSliceDynamic, []plan.ExprNodeId{base, index}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.IndexedPartSelectExpr:
		base := s.convertExpr(t.Base)
		index := s.convertExpr(t.Index)
		width := s.constNode(int64(t.Width), 32)
		up := int64(0)
		if t.Up {
			up = 1
		}
		upFlag := s.constNode(up, 1)
		return s.opNode(rhg.KSliceDynamic, []plan.ExprNodeId{base, index, width, upFlag}, t.Width(), t.IsSigned(), t.Type())

	case hdlast.MemberSelectExpr:
		base := s.convertExpr(t.Base)
		id := s.opNode(rhg.KMemberSelect, []plan.ExprNodeId{base}, t.Width(), t.IsSigned(), t.Type())
		s.lp.Values[id].Literal = t.Field // field name carried on the generic text slot
		return id

	case hdlast.SystemCallExpr:
		args := make([]plan.ExprNodeId, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.convertExpr(a)
		}
		return s.newNode(plan.ExprNode{
			Kind: plan.ExprOpNode, Op: rhg.KSystemTask, SystemName: t.Name, Operands: args,
			WidthHint: t.Width(), IsSigned: t.IsSigned(), ValueType: t.Type(), HasSideEffects: true,
		})

	case hdlast.DpiCallExpr:
		s.recordDpiImport(t.Import)
		args := make([]plan.ExprNodeId, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.convertExpr(a)
		}
		return s.newNode(plan.ExprNode{
			Kind: plan.ExprOpNode, Op: rhg.KDpiCall, SystemName: t.Import.CFunctionName, Operands: args,
			WidthHint: t.Width(), IsSigned: t.IsSigned(), ValueType: t.Type(), HasSideEffects: true,
		})

	default:
		s.ctx.Diagnostics.Todo(fmt.Sprintf("unsupported expression node %T", e), "lower")
		return s.constNode(0, 1)
	}
}

func (s *state) isMemoryIdent(e hdlast.Expr) bool {
	ident, ok := e.(hdlast.IdentExpr)
	if !ok {
		return false
	}
	sym, ok := s.mp.SymbolTable.Lookup(ident.Name)
	return ok && s.memorySymbols[sym]
}

func (s *state) memoryRead(base hdlast.Expr, address plan.ExprNodeId, width int, vt rhg.ValueType) plan.ExprNodeId {
	ident := base.(hdlast.IdentExpr)
	memSym := s.mp.SymbolTable.Intern(ident.Name)
	dataSym := s.mp.SymbolTable.Intern(fmt.Sprintf("%s$rdata%d", ident.Name, len(s.lp.MemoryReads)))
	s.lp.MemoryReads = append(s.lp.MemoryReads, plan.MemoryReadPort{
		Memory: memSym, Address: address,
		Data:       plan.InvalidExprNodeId, // filled below once the data node exists
		IsSync:     s.timing.has,
		UpdateCond: plan.InvalidExprNodeId,
	})
	idx := len(s.lp.MemoryReads) - 1
	data := s.newNode(plan.ExprNode{Kind: plan.ExprSymbolRef, Symbol: dataSym, WidthHint: width, ValueType: vt})
	s.lp.MemoryReads[idx].Data = data
	return data
}

func (s *state) recordDpiImport(imp hdlast.DpiImportInfo) {
	if s.dpiSeen[imp.CFunctionName] {
		return
	}
	s.dpiSeen[imp.CFunctionName] = true
	s.lp.DpiImports = append(s.lp.DpiImports, plan.DpiImportInfo{Symbol: imp.CFunctionName})
}
