package lower

import (
	"fmt"

	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/rhg"
)

func mapProcKind(p hdlast.ProcKind) plan.ProcKind {
	switch p {
	case hdlast.AlwaysComb:
		return plan.ProcAlwaysComb
	case hdlast.AlwaysLatch:
		return plan.ProcAlwaysLatch
	case hdlast.AlwaysFF:
		return plan.ProcAlwaysFF
	case hdlast.Always:
		return plan.ProcAlways
	case hdlast.Initial:
		return plan.ProcInitial
	case hdlast.Final:
		return plan.ProcFinal
	default:
		return plan.ProcUnknown
	}
}

func mapEdge(e hdlast.EdgeKind) (plan.EventEdge, bool) {
	switch e {
	case hdlast.EdgePos:
		return plan.Posedge, true
	case hdlast.EdgeNeg:
		return plan.Negedge, true
	default:
		return 0, false
	}
}

// lowerStmt recursively flattens st, threading the conjunctive guard
// live at this point, the enclosing procedural kind, and whether the
// textual position is known to cover the full two-state value space of
// its target (set under a case branch so marked, and on both arms of an
// if that has an explicit else).
func (s *state) lowerStmt(st hdlast.Stmt, guard plan.ExprNodeId, proc plan.ProcKind, coversAll bool) {
	switch t := st.(type) {
	case hdlast.BlockStmt:
		p := proc
		if t.ProcKind != 0 || proc == plan.ProcUnknown {
			p = mapProcKind(t.ProcKind)
		}
		for _, inner := range t.Body {
			s.lowerStmt(inner, guard, p, coversAll)
		}

	case hdlast.EventControlStmt:
		saved := s.timing
		tm := timing{has: true}
		for _, ev := range t.Events {
			edge, ok := mapEdge(ev.Edge)
			if ok {
				tm.edges = append(tm.edges, edge)
				tm.operands = append(tm.operands, s.convertExpr(ev.Operand))
			}
		}
		s.timing = tm
		s.lowerStmt(t.Inner, guard, proc, coversAll)
		s.timing = saved

	case hdlast.IfStmt:
		cond := s.convertExpr(t.Cond)
		// An if with an explicit else exhausts cond's two-state space;
		// threading that through lets the write-back resolver fold the
		// pair into a plain mux instead of inferring a latch.
		exhaustive := t.Otherwise != nil
		s.lowerStmt(t.Then, s.andGuard(guard, cond), proc, exhaustive)
		if t.Otherwise != nil {
			s.lowerStmt(t.Otherwise, s.andGuard(guard, s.notGuard(cond)), proc, exhaustive)
		}

	case hdlast.CaseStmt:
		selector := s.convertExpr(t.Selector)
		priorConds := plan.InvalidExprNodeId
		for _, item := range t.Items {
			itemCond := plan.InvalidExprNodeId
			if len(item.Values) == 0 {
				// default branch: everything not already matched
				itemCond = s.notGuard(priorConds)
			} else {
				for _, v := range item.Values {
					eq := s.opNode(rhg.KEq, []plan.ExprNodeId{selector, s.convertExpr(v)}, 1, false, rhg.Bit)
					itemCond = s.orGuard(itemCond, eq)
				}
				priorConds = s.orGuard(priorConds, itemCond)
			}
			s.lowerStmt(item.Body, s.andGuard(guard, itemCond), proc, t.CoversAllTwoState)
		}

	case hdlast.ForLoopStmt:
		s.unrollFor(t, guard, proc, coversAll)

	case hdlast.WhileLoopStmt:
		s.rejectWhile(t)

	case hdlast.DoWhileLoopStmt:
		s.rejectDoWhile(t)

	case hdlast.PatternIfStmt:
		s.rejectPatternIf(t)

	case hdlast.PatternCaseStmt:
		s.rejectPatternCase(t)

	case hdlast.AssignStmt:
		s.lowerAssign(t, guard, proc, coversAll)

	case hdlast.SystemTaskStmt:
		args := make([]plan.ExprNodeId, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.convertExpr(a)
		}
		ls := plan.LoweredStmt{
			Kind: plan.LoweredSystemTask, UpdateCond: guard, ProcKind: proc,
			HasTiming: s.timing.has, EventEdges: s.timing.edges, EventOperands: s.timing.operands,
			SystemTask: plan.SystemTaskStmt{Name: t.Name, Args: args, },
		}
		s.lp.LoweredStmts = append(s.lp.LoweredStmts, ls)
		if t.MemoryTarget != "" {
			s.recordMemoryInit(t.Name, t.MemoryTarget, t.Args)
		}

	case hdlast.DpiCallStmt:
		s.recordDpiImport(t.Import)
		args := make([]plan.ExprNodeId, len(t.Args))
		for i, a := range t.Args {
			args[i] = s.convertExpr(a)
		}
		ls := plan.LoweredStmt{
			Kind: plan.LoweredDpiCall, UpdateCond: guard, ProcKind: proc,
			HasTiming: s.timing.has, EventEdges: s.timing.edges, EventOperands: s.timing.operands,
			DpiCall: plan.DpiCallStmt{TargetImportSymbol: t.Import.CFunctionName, InArgs: args},
		}
		s.lp.LoweredStmts = append(s.lp.LoweredStmts, ls)

	default:
		s.ctx.Diagnostics.Todo(fmt.Sprintf("unsupported statement %T", st), "lower")
	}
}

func (s *state) lowerAssign(t hdlast.AssignStmt, guard plan.ExprNodeId, proc plan.ProcKind, coversAll bool) {
	sym, slices, isXmr, xmrPath, isMemWrite, memSym, memAddr := s.resolveTarget(t.Target)
	valueID := s.convertExpr(t.Value)

	if isMemWrite {
		s.lp.MemoryWrites = append(s.lp.MemoryWrites, plan.MemoryWritePort{
			Memory: memSym, Address: memAddr, Data: valueID,
			UpdateCond: guard, IsMasked: false,
			EventEdges: s.timing.edges, EventOperands: s.timing.operands,
		})
		return
	}

	wi := plan.WriteIntent{
		Target: sym, Slices: slices, Value: valueID, Guard: guard,
		Domain: plan.DomainUnknown, IsNonBlocking: t.IsNonBlocking,
		CoversAllTwoState: coversAll, IsXmr: isXmr, XmrPath: xmrPath,
	}
	s.lp.Writes = append(s.lp.Writes, wi)
	s.lp.LoweredStmts = append(s.lp.LoweredStmts, plan.LoweredStmt{
		Kind: plan.LoweredWrite, Op: rhg.KAssign, UpdateCond: guard, ProcKind: proc,
		HasTiming: s.timing.has, EventEdges: s.timing.edges, EventOperands: s.timing.operands,
		Write: wi,
	})
}

func (s *state) recordMemoryInit(taskName, memoryTarget string, args []hdlast.Expr) {
	memSym := s.mp.SymbolTable.Intern(memoryTarget)
	init := plan.MemoryInit{Memory: memSym, Kind: memoryInitKind(taskName), Start: -1}
	if len(args) > 0 {
		if lit, ok := args[0].(hdlast.LiteralExpr); ok {
			init.File = lit.Text
		}
	}
	s.lp.MemoryInits = append(s.lp.MemoryInits, init)
}

func memoryInitKind(taskName string) string {
	switch taskName {
	case "$readmemh":
		return "readmemh"
	case "$readmemb":
		return "readmemb"
	default:
		return "literal"
	}
}
