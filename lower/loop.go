package lower

import (
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/plan"
)

// unrollFor statically unrolls a for loop whose Init/Cond/Step are all
// foldable over a single integer loop variable, lowering a substituted
// copy of Body once per iteration. Anything it can't fold — a
// non-constant bound, an unrecognized Init/Step shape, or a loop that
// would run past MaxLoopIterations — is reported as a todo rather than
// guessed at.
func (s *state) unrollFor(t hdlast.ForLoopStmt, guard plan.ExprNodeId, proc plan.ProcKind, coversAll bool) {
	varName, initVal, ok := loopAssignTarget(t.Init)
	if !ok {
		s.todof("for-loop init is not a simple variable assignment")
		return
	}
	env := loopEnv{}
	start, ok := evalConstExpr(initVal, env)
	if !ok {
		s.todof("for-loop bound over %q is not statically foldable", varName)
		return
	}
	env[varName] = start

	stepName, stepExpr, ok := loopAssignTarget(t.Step)
	if !ok || stepName != varName {
		s.todof("for-loop step does not update loop variable %q", varName)
		return
	}

	var n uint32
	for {
		cond, ok := evalConstExpr(t.Cond, env)
		if !ok {
			s.todof("for-loop condition over %q is not statically foldable", varName)
			return
		}
		if cond == 0 {
			return
		}
		if n >= s.ctx.MaxLoopIterations {
			s.todof("for-loop over %q exceeded the static unroll bound", varName)
			return
		}

		body := substStmt(t.Body, varName, env[varName])
		s.lowerStmt(body, guard, proc, coversAll)

		next, ok := evalConstExpr(stepExpr, env)
		if !ok {
			s.todof("for-loop step over %q is not statically foldable", varName)
			return
		}
		env[varName] = next
		n++
	}
}

// rejectWhile reports a while/forever loop as unsupported. Unlike
// `for`, which is unrolled whenever its bounds are statically
// foldable, `while` (and the nil-Cond `forever` shape) is rejected
// unconditionally — there is no attempt to fold the condition first,
// so a condition that happens to fold to a compile-time constant
// (including a constant false, which would unroll to zero iterations)
// is rejected exactly the same as one that can't be folded at all.
func (s *state) rejectWhile(t hdlast.WhileLoopStmt) {
	if t.Cond == nil {
		s.errorf("forever loop is not supported")
		return
	}
	s.errorf("while loop is not supported")
}

// rejectDoWhile reports a do-while loop as unsupported, unconditionally.
func (s *state) rejectDoWhile(t hdlast.DoWhileLoopStmt) {
	s.errorf("do-while loop is not supported")
}

// rejectPatternIf reports a tagged-union pattern-matching if as
// unsupported, unconditionally.
func (s *state) rejectPatternIf(t hdlast.PatternIfStmt) {
	s.errorf("pattern-matching if is not supported")
}

// rejectPatternCase reports a tagged-union pattern-matching case as
// unsupported, unconditionally.
func (s *state) rejectPatternCase(t hdlast.PatternCaseStmt) {
	s.errorf("pattern-matching case is not supported")
}
