// Package writeback implements the Write-Back Resolver: the third
// ingest pipeline stage. It groups a module's flat plan.WriteIntent
// list by target signal, classifies each target's driver domain,
// reconciles partial (bit/range/member) writes into one merged
// next-value expression, infers latches on incompletely-covered
// combinational targets, and emits one plan.WriteBackPlan.Entry per
// (target, domain).
package writeback

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/rhg"
)

type Context struct {
	Diagnostics *diag.Diagnostics
}

type WriteBackPass struct {
	ctx *Context
}

func New(ctx *Context) *WriteBackPass { return &WriteBackPass{ctx: ctx} }

type writeRecord struct {
	intent plan.WriteIntent
	proc   plan.ProcKind
	timing plan.LoweredStmt
}

// Resolve produces mp's WriteBackPlan from lp's flattened writes.
func (p *WriteBackPass) Resolve(mp *plan.ModulePlan, lp *plan.LoweringPlan) *plan.WriteBackPlan {
	r := &resolver{ctx: p.ctx, mp: mp, lp: lp}
	return r.run()
}

type resolver struct {
	ctx *Context
	mp  *plan.ModulePlan
	lp  *plan.LoweringPlan
}

func (r *resolver) run() *plan.WriteBackPlan {
	order := []plan.SymbolId{}
	groups := map[plan.SymbolId][]writeRecord{}

	for _, ls := range r.lp.LoweredStmts {
		if ls.Kind != plan.LoweredWrite {
			continue
		}
		wi := ls.Write
		if wi.IsXmr {
			// cross-module writes aren't this module's own storage; the
			// assembler resolves them against the target instance directly.
			continue
		}
		if _, seen := groups[wi.Target]; !seen {
			order = append(order, wi.Target)
		}
		groups[wi.Target] = append(groups[wi.Target], writeRecord{intent: wi, proc: ls.ProcKind, timing: ls})
	}

	out := &plan.WriteBackPlan{}
	for _, target := range order {
		entry, ok := r.resolveTarget(target, groups[target])
		if ok {
			out.Entries = append(out.Entries, entry)
		}
	}
	return out
}

func (r *resolver) targetName(target plan.SymbolId) string {
	return r.mp.SymbolTable.Text(target)
}

func (r *resolver) resolveTarget(target plan.SymbolId, recs []writeRecord) (plan.WriteBackEntry, bool) {
	domain, ok := r.classifyDomain(target, recs)
	if !ok {
		return plan.WriteBackEntry{}, false
	}

	oldValue := r.newNode(plan.ExprNode{Kind: plan.ExprSymbolRef, Symbol: target})
	nextValue, staticSlice, lo, width := r.mergeWrites(recs, oldValue)

	anyGuard := r.anyWriteGuard(recs)
	if domain == plan.Combinational && !r.coversAllPaths(recs) {
		domain = plan.Latch
		nextValue = r.opNode(rhg.KMux, []plan.ExprNodeId{anyGuard, nextValue, oldValue})
	}

	entry := plan.WriteBackEntry{
		Target: target, Domain: domain, UpdateCond: anyGuard, NextValue: nextValue,
		HasStaticSlice: staticSlice, SliceLow: lo, SliceWidth: width,
	}
	for _, rec := range recs {
		if rec.timing.HasTiming {
			entry.EventEdges = rec.timing.EventEdges
			entry.EventOperands = rec.timing.EventOperands
			break
		}
	}
	return entry, true
}

// classifyDomain classifies an edge-triggered
// non-blocking write marks Sequential, AlwaysComb/AlwaysLatch mark
// Combinational/Latch, and any other mix across the same target's
// contributing writes is an error.
func (r *resolver) classifyDomain(target plan.SymbolId, recs []writeRecord) (plan.ControlDomain, bool) {
	domain := plan.DomainUnknown
	for _, rec := range recs {
		var d plan.ControlDomain
		switch {
		case rec.proc == plan.ProcAlwaysFF && rec.timing.HasTiming && rec.intent.IsNonBlocking:
			d = plan.Sequential
		case rec.proc == plan.ProcAlwaysLatch:
			d = plan.Latch
		case rec.proc == plan.ProcAlwaysComb, rec.proc == plan.ProcUnknown, rec.proc == plan.ProcAlways, rec.proc == plan.ProcInitial, rec.proc == plan.ProcFinal:
			d = plan.Combinational
		default:
			d = plan.Combinational
		}
		if domain == plan.DomainUnknown {
			domain = d
			continue
		}
		if domain != d {
			r.ctx.Diagnostics.Error(
				fmt.Sprintf("target %q is driven from both %v and %v contexts", r.targetName(target), domain, d),
				"writeback")
			return domain, false
		}
	}
	return domain, true
}

// anyWriteGuard is the disjunction of every contributing write's guard,
// used as the latch/sequential update condition.
func (r *resolver) anyWriteGuard(recs []writeRecord) plan.ExprNodeId {
	acc := plan.InvalidExprNodeId
	for _, rec := range recs {
		acc = r.orGuard(acc, rec.intent.Guard)
	}
	return acc
}

// coversAllPaths reports whether the trailing contributing writes
// exhaust the guarded value space, using the
// coversAllTwoState collapse.
func (r *resolver) coversAllPaths(recs []writeRecord) bool {
	if len(recs) == 0 {
		return false
	}
	last := recs[len(recs)-1]
	return !last.intent.Guard.Valid() || last.intent.CoversAllTwoState
}

// mergeWrites tries the disjoint-static-slice kConcat reconciliation
// first; failing that, it folds the contributing writes in textual order
// into one nested-mux next-value expression, reconciling each write's
// own slice chain against the running result via shift+mask along the
// way.
func (r *resolver) mergeWrites(recs []writeRecord, oldValue plan.ExprNodeId) (value plan.ExprNodeId, staticSlice bool, lo, width int64) {
	if v, ok := r.concatMergeWrites(recs, oldValue); ok {
		return v, false, 0, 0
	}

	allStatic, sliceLo, sliceWidth := r.commonStaticSlice(recs)

	// Fold forward in textual order, each write layering onto the
	// previous result: an unconditional write fully replaces it
	// (collapsing away any earlier mux nesting, including the
	// fallback to oldValue, exactly when the chain turns out to cover
	// every guarded path), a guarded write wraps it in one more mux
	// level. A later write's mux therefore nests outermost, giving it
	// priority over every earlier one.
	acc := oldValue
	for _, rec := range recs {
		adjusted := r.sliceAdjustedValue(rec.intent, acc)
		if !rec.intent.Guard.Valid() {
			acc = adjusted
			continue
		}
		acc = r.opNode(rhg.KMux, []plan.ExprNodeId{rec.intent.Guard, adjusted, acc})
	}
	return acc, allStatic, sliceLo, sliceWidth
}

// staticRange is one contributing write's bit range, reduced to a
// compile-time-constant [lo, lo+width) bound.
type staticRange struct {
	lo, width int64
	value     plan.ExprNodeId
}

// concatMergeWrites implements the disjoint-static-slice reconciliation:
// when every contributing write is unconditional, single-level, and
// targets a distinct, non-overlapping static bit range, the merge is a
// kConcat of the per-range values (ordered msb-first) rather than the
// shift+mask fold sliceAdjustedValue otherwise builds. Any bit range
// left uncovered by a write is filled by a kSliceDynamic read of
// oldValue over the missing span, so the result always spans the full
// target width. It reports ok=false whenever any write is guarded,
// multi-level, whole-target, dynamic, or overlaps another write's
// range, leaving the shift+mask fold as the fallback for those cases.
func (r *resolver) concatMergeWrites(recs []writeRecord, oldValue plan.ExprNodeId) (plan.ExprNodeId, bool) {
	if len(recs) < 2 {
		return plan.InvalidExprNodeId, false
	}

	ranges := make([]staticRange, 0, len(recs))
	for _, rec := range recs {
		if rec.intent.Guard.Valid() || len(rec.intent.Slices) != 1 {
			return plan.InvalidExprNodeId, false
		}
		lo, width, ok := r.staticSliceBounds(rec.intent.Slices[0])
		if !ok {
			return plan.InvalidExprNodeId, false
		}
		ranges = append(ranges, staticRange{lo: lo, width: width, value: rec.intent.Value})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].lo < ranges[j].lo })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].lo < ranges[i-1].lo+ranges[i-1].width {
			return plan.InvalidExprNodeId, false
		}
	}

	var segments []plan.ExprNodeId // msb-first, as kConcat expects
	next := ranges[len(ranges)-1].lo + ranges[len(ranges)-1].width
	for _, sig := range r.mp.Signals {
		if sig.Symbol == recs[0].intent.Target {
			if full := int64(sig.Width); full > next {
				segments = append(segments, r.dynamicSliceRead(oldValue, next, full-next))
			}
			break
		}
	}
	for i := len(ranges) - 1; i >= 0; i-- {
		rg := ranges[i]
		if gapWidth := next - (rg.lo + rg.width); gapWidth > 0 {
			segments = append(segments, r.dynamicSliceRead(oldValue, rg.lo+rg.width, gapWidth))
		}
		segments = append(segments, rg.value)
		next = rg.lo
	}
	if ranges[0].lo > 0 {
		segments = append(segments, r.dynamicSliceRead(oldValue, 0, ranges[0].lo))
	}

	return r.opNode(rhg.KConcat, segments), true
}

// dynamicSliceRead builds a kSliceDynamic read of base over the
// constant-folded [lo, lo+width) range, in the (base, index, width,
// up) shape the lowerer's own indexed-part-select reads use.
func (r *resolver) dynamicSliceRead(base plan.ExprNodeId, lo, width int64) plan.ExprNodeId {
	return r.opNode(rhg.KSliceDynamic, []plan.ExprNodeId{base, r.constNode(lo), r.constNode(width), r.constNode(1)})
}

// sliceAdjustedValue reconciles one write's own slice chain against
// oldValue, returning a full-width value suitable as one mux operand.
// A whole-target write passes its value through unchanged; a sliced
// write is folded via shift+mask and a warning
// is emitted for dynamic or multi-level slice chains, which this
// lowering only widens rather than precisely reconstructing.
func (r *resolver) sliceAdjustedValue(wi plan.WriteIntent, oldValue plan.ExprNodeId) plan.ExprNodeId {
	if len(wi.Slices) == 0 {
		return wi.Value
	}
	slice := wi.Slices[len(wi.Slices)-1]
	if len(wi.Slices) > 1 {
		r.ctx.Diagnostics.Warning(
			fmt.Sprintf("write-back merge for %q folds a multi-level slice chain; only the outermost slice is reconciled", r.targetName(wi.Target)),
			"writeback")
	}

	lo, width, ok := r.staticSliceBounds(slice)
	if !ok {
		r.ctx.Diagnostics.Warning(
			fmt.Sprintf("write-back merge for %q uses a dynamic slice; reconciled via shift+mask", r.targetName(wi.Target)),
			"writeback")
		return r.dynamicSliceMerge(slice, wi.Value, oldValue)
	}
	return r.staticSliceMerge(lo, width, wi.Value, oldValue)
}

// staticSliceMerge builds (oldValue & ~mask) | ((newValue << lo) & mask)
// for a compile-time-constant [lo, lo+width) range.
func (r *resolver) staticSliceMerge(lo, width int64, newValue, oldValue plan.ExprNodeId) plan.ExprNodeId {
	mask := int64(0)
	for i := int64(0); i < width; i++ {
		mask |= 1 << uint(lo+i)
	}
	maskNode := r.constNode(mask)
	notMask := r.opNode(rhg.KNot, []plan.ExprNodeId{maskNode})
	shifted := r.opNode(rhg.KShl, []plan.ExprNodeId{newValue, r.constNode(lo)})
	masked := r.opNode(rhg.KAnd, []plan.ExprNodeId{shifted, maskNode})
	kept := r.opNode(rhg.KAnd, []plan.ExprNodeId{oldValue, notMask})
	return r.opNode(rhg.KOr, []plan.ExprNodeId{kept, masked})
}

// dynamicSliceMerge is the same shift+mask identity, but with the
// shift amount (and an all-ones mask, since a dynamic width can't be
// folded into a fixed bitmask here) computed from the slice's own
// index expression at evaluation time.
func (r *resolver) dynamicSliceMerge(slice plan.WriteSlice, newValue, oldValue plan.ExprNodeId) plan.ExprNodeId {
	var shiftAmount plan.ExprNodeId
	switch slice.Kind {
	case plan.SliceBitSelect:
		shiftAmount = slice.Index
	default:
		if slice.RangeKind == plan.RangeIndexedDown {
			shiftAmount = r.opNode(rhg.KSub, []plan.ExprNodeId{slice.Index, slice.Left})
		} else {
			shiftAmount = slice.Index
		}
	}
	shifted := r.opNode(rhg.KShl, []plan.ExprNodeId{newValue, shiftAmount})
	mask := r.opNode(rhg.KShl, []plan.ExprNodeId{r.constNode(-1), shiftAmount})
	notMask := r.opNode(rhg.KNot, []plan.ExprNodeId{mask})
	kept := r.opNode(rhg.KAnd, []plan.ExprNodeId{oldValue, notMask})
	masked := r.opNode(rhg.KAnd, []plan.ExprNodeId{shifted, mask})
	return r.opNode(rhg.KOr, []plan.ExprNodeId{kept, masked})
}

// staticSliceBounds folds a slice's bounds to [lo, width) when every
// index involved is a compile-time constant.
func (r *resolver) staticSliceBounds(slice plan.WriteSlice) (lo, width int64, ok bool) {
	switch slice.Kind {
	case plan.SliceBitSelect:
		v, ok := r.constValue(slice.Index)
		return v, 1, ok
	case plan.SliceRangeSelect:
		switch slice.RangeKind {
		case plan.RangeSimple:
			hi, ok1 := r.constValue(slice.Left)
			lo, ok2 := r.constValue(slice.Right)
			if !ok1 || !ok2 {
				return 0, 0, false
			}
			return lo, hi - lo + 1, true
		default:
			idx, ok1 := r.constValue(slice.Index)
			w, ok2 := r.constValue(slice.Left)
			if !ok1 || !ok2 {
				return 0, 0, false
			}
			if slice.RangeKind == plan.RangeIndexedDown {
				return idx - w + 1, w, true
			}
			return idx, w, true
		}
	default:
		return 0, 0, false
	}
}

// commonStaticSlice reports the single contiguous static range every
// contributing write shares, or false if the writes target different
// ranges, the whole signal, or a non-constant range.
func (r *resolver) commonStaticSlice(recs []writeRecord) (ok bool, lo, width int64) {
	if len(recs) == 0 {
		return false, 0, 0
	}
	first := recs[0].intent
	if len(first.Slices) == 0 {
		return false, 0, 0
	}
	lo, width, ok = r.staticSliceBounds(first.Slices[len(first.Slices)-1])
	if !ok {
		return false, 0, 0
	}
	for _, rec := range recs[1:] {
		if len(rec.intent.Slices) == 0 {
			return false, 0, 0
		}
		l, w, k := r.staticSliceBounds(rec.intent.Slices[len(rec.intent.Slices)-1])
		if !k || l != lo || w != width {
			return false, 0, 0
		}
	}
	return true, lo, width
}

func (r *resolver) constValue(id plan.ExprNodeId) (int64, bool) {
	if !id.Valid() || int(id) >= len(r.lp.Values) {
		return 0, false
	}
	n := r.lp.Values[id]
	if n.Kind != plan.ExprConstant {
		return 0, false
	}
	v, err := strconv.ParseInt(n.Literal, 0, 64)
	return v, err == nil
}

func (r *resolver) newNode(n plan.ExprNode) plan.ExprNodeId {
	id := plan.ExprNodeId(len(r.lp.Values))
	r.lp.Values = append(r.lp.Values, n)
	return id
}

func (r *resolver) constNode(v int64) plan.ExprNodeId {
	return r.newNode(plan.ExprNode{Kind: plan.ExprConstant, Literal: strconv.FormatInt(v, 10), ValueType: rhg.Bit})
}

func (r *resolver) opNode(op rhg.OperationKind, operands []plan.ExprNodeId) plan.ExprNodeId {
	return r.newNode(plan.ExprNode{Kind: plan.ExprOpNode, Op: op, Operands: operands, ValueType: rhg.Bit})
}

func (r *resolver) orGuard(a, b plan.ExprNodeId) plan.ExprNodeId {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	default:
		return r.opNode(rhg.KOr, []plan.ExprNodeId{a, b})
	}
}
