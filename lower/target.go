package lower

import (
	"fmt"
	"strings"

	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/plan"
)

// resolveTarget walks a write-position Expr outside-in, peeling off one
// partial-write layer (bit-select, range-select, indexed part-select,
// member-select) per level until it bottoms out at the written signal's
// own identifier (or a cross-module path). A dynamically-indexed select
// whose base is a memory signal is reported separately via isMemWrite
// rather than folded into the slice chain, since a memory write needs
// its own port rather than a WriteIntent.
func (s *state) resolveTarget(e hdlast.Expr) (sym plan.SymbolId, slices []plan.WriteSlice, isXmr bool, xmrPath string, isMemWrite bool, memSym plan.SymbolId, memAddr plan.ExprNodeId) {
	switch t := e.(type) {
	case hdlast.IdentExpr:
		sym = s.mp.SymbolTable.Intern(t.Name)
		return

	case hdlast.XmrPathExpr:
		isXmr = true
		xmrPath = strings.Join(t.Path, ".")
		return

	case hdlast.IndexSelectExpr:
		if s.isMemoryIdent(t.Base) {
			ident := t.Base.(hdlast.IdentExpr)
			return 0, nil, false, "", true, s.mp.SymbolTable.Intern(ident.Name), s.convertExpr(t.Index)
		}
		base, baseSlices, x, xp, memW, ms, ma := s.resolveTarget(t.Base)
		slices = append(baseSlices, plan.WriteSlice{Kind: plan.SliceBitSelect, Index: s.convertExpr(t.Index)})
		return base, slices, x, xp, memW, ms, ma

	case hdlast.PartSelectExpr:
		base, baseSlices, x, xp, memW, ms, ma := s.resolveTarget(t.Base)
		slices = append(baseSlices, plan.WriteSlice{
			Kind: plan.SliceRangeSelect, RangeKind: plan.RangeSimple,
			Left: s.constNode(int64(t.Hi), 32), Right: s.constNode(int64(t.Lo), 32),
		})
		return base, slices, x, xp, memW, ms, ma

	case hdlast.IndexedPartSelectExpr:
		base, baseSlices, x, xp, memW, ms, ma := s.resolveTarget(t.Base)
		rangeKind := plan.RangeIndexedUp
		if !t.Up {
			rangeKind = plan.RangeIndexedDown
		}
		slices = append(baseSlices, plan.WriteSlice{
			Kind: plan.SliceRangeSelect, RangeKind: rangeKind,
			Index: s.convertExpr(t.Index), Left: s.constNode(int64(t.Width), 32),
		})
		return base, slices, x, xp, memW, ms, ma

	case hdlast.MemberSelectExpr:
		base, baseSlices, x, xp, memW, ms, ma := s.resolveTarget(t.Base)
		slices = append(baseSlices, plan.WriteSlice{Kind: plan.SliceMemberSelect, Member: s.mp.SymbolTable.Intern(t.Field)})
		return base, slices, x, xp, memW, ms, ma

	default:
		s.ctx.Diagnostics.Todo(fmt.Sprintf("unsupported write target %T", e), "lower")
		return
	}
}
