package writeback

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/lower"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/planner"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
)

func planAndLower(yamlSrc string) (*plan.ModulePlan, *plan.LoweringPlan) {
	r, err := fixture.Build([]byte(yamlSrc))
	Expect(err).ToNot(HaveOccurred())
	top := r.TopInstances()[0]
	pl := planner.New(&planner.Context{Cache: cache.New(), Queue: queue.New(), Diagnostics: diag.New()})
	mp := pl.Plan(top.Body(), top.Definition().Name())
	lp := lower.New(&lower.Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)
	return mp, lp
}

const ffYAML = `
modules:
  top:
    ports:
      - {name: clk, direction: in, width: 1, type: logic}
      - {name: d, direction: in, width: 8, type: logic}
      - {name: q, direction: out, width: 8, type: logic}
    statements:
      - kind: event_control
        events:
          - {edge: pos, operand: {kind: ident, name: clk, width: 1}}
        inner:
          kind: block
          proc_kind: ff
          body:
            - kind: assign
              non_blocking: true
              target: {kind: ident, name: q, width: 8}
              value: {kind: ident, name: d, width: 8}
top:
  - {name: dut, module: top}
`

const ifElseYAML = `
modules:
  top:
    ports:
      - {name: sel, direction: in, width: 1, type: logic}
      - {name: out, direction: out, width: 8, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: if
            cond: {kind: ident, name: sel, width: 1}
            then:
              kind: assign
              target: {kind: ident, name: out, width: 8}
              value: {kind: literal, text: "8'hFF", width: 8}
            else:
              kind: assign
              target: {kind: ident, name: out, width: 8}
              value: {kind: literal, text: "8'h00", width: 8}
top:
  - {name: dut, module: top}
`

const incompleteIfYAML = `
modules:
  top:
    ports:
      - {name: sel, direction: in, width: 1, type: logic}
      - {name: out, direction: out, width: 8, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: if
            cond: {kind: ident, name: sel, width: 1}
            then:
              kind: assign
              target: {kind: ident, name: out, width: 8}
              value: {kind: literal, text: "8'hFF", width: 8}
top:
  - {name: dut, module: top}
`

const sliceYAML = `
modules:
  top:
    signals:
      - {name: r, kind: variable, width: 8, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: assign
            target: {kind: part_select, hi: 7, lo: 4, base: {kind: ident, name: r, width: 8}}
            value: {kind: literal, text: "4'hA", width: 4}
          - kind: assign
            target: {kind: part_select, hi: 3, lo: 0, base: {kind: ident, name: r, width: 8}}
            value: {kind: literal, text: "4'h5", width: 4}
top:
  - {name: dut, module: top}
`

const sliceGapYAML = `
modules:
  top:
    signals:
      - {name: r, kind: variable, width: 8, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: assign
            target: {kind: part_select, hi: 7, lo: 4, base: {kind: ident, name: r, width: 8}}
            value: {kind: literal, text: "4'hA", width: 4}
          - kind: assign
            target: {kind: part_select, hi: 1, lo: 0, base: {kind: ident, name: r, width: 8}}
            value: {kind: literal, text: "2'h1", width: 2}
top:
  - {name: dut, module: top}
`

const guardedSliceYAML = `
modules:
  top:
    signals:
      - {name: r, kind: variable, width: 8, type: logic}
    ports:
      - {name: sel, direction: in, width: 1, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: if
            cond: {kind: ident, name: sel, width: 1}
            then:
              kind: assign
              target: {kind: part_select, hi: 7, lo: 4, base: {kind: ident, name: r, width: 8}}
              value: {kind: literal, text: "4'hA", width: 4}
          - kind: assign
            target: {kind: part_select, hi: 3, lo: 0, base: {kind: ident, name: r, width: 8}}
            value: {kind: literal, text: "4'h5", width: 4}
top:
  - {name: dut, module: top}
`

var _ = Describe("WriteBackPass", func() {
	It("keeps event metadata on a sequential register write", func() {
		mp, lp := planAndLower(ffYAML)
		wbp := New(&Context{Diagnostics: diag.New()}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1))
		e := wbp.Entries[0]
		Expect(e.Domain).To(Equal(plan.Sequential))
		Expect(e.EventEdges).To(Equal([]plan.EventEdge{plan.Posedge}))
	})

	It("merges a full if/else into one combinational mux write", func() {
		mp, lp := planAndLower(ifElseYAML)
		wbp := New(&Context{Diagnostics: diag.New()}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1))
		e := wbp.Entries[0]
		Expect(e.Domain).To(Equal(plan.Combinational), "if/else covers the full guard space")
		Expect(lp.Values[e.NextValue].Op).To(Equal(rhg.KMux))
	})

	It("infers a latch for a single-branch combinational if", func() {
		mp, lp := planAndLower(incompleteIfYAML)
		wbp := New(&Context{Diagnostics: diag.New()}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1))
		Expect(wbp.Entries[0].Domain).To(Equal(plan.Latch))
	})

	It("merges two disjoint static-slice writes into a kConcat, without a warning", func() {
		mp, lp := planAndLower(sliceYAML)
		d := diag.New()
		wbp := New(&Context{Diagnostics: d}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1), "expected one merged entry for r's two slice writes")
		e := wbp.Entries[0]
		next := lp.Values[e.NextValue]
		Expect(next.Op).To(Equal(rhg.KConcat), "disjoint static writes covering the whole target combine into a kConcat of last-writers per range")
		Expect(next.Operands).To(HaveLen(2), "r[7:4] and r[3:0] together cover the full width, leaving no gap to fill from the old value")
		for _, m := range d.Messages() {
			Expect(m.Kind).ToNot(Equal(diag.Warning), "a fully-static, non-overlapping slice merge should not warn")
			Expect(m.Kind).ToNot(Equal(diag.Todo), "did not expect a todo diagnostic for a fully-static slice merge")
		}
	})

	It("fills an untouched bit range from the old value with a kSliceDynamic read", func() {
		mp, lp := planAndLower(sliceGapYAML)
		wbp := New(&Context{Diagnostics: diag.New()}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1))
		next := lp.Values[wbp.Entries[0].NextValue]
		Expect(next.Op).To(Equal(rhg.KConcat))
		Expect(next.Operands).To(HaveLen(3), "r[7:4], the untouched r[3:2] gap, and r[1:0]")

		gap := lp.Values[next.Operands[1]]
		Expect(gap.Op).To(Equal(rhg.KSliceDynamic), "the untouched middle range is read back from the old value")
	})

	It("falls back to shift+mask when a static-slice write is guarded", func() {
		mp, lp := planAndLower(guardedSliceYAML)
		d := diag.New()
		wbp := New(&Context{Diagnostics: d}).Resolve(mp, lp)

		Expect(wbp.Entries).To(HaveLen(1))
		next := lp.Values[wbp.Entries[0].NextValue]
		Expect(next.Op).ToNot(Equal(rhg.KConcat), "a guarded partial write still needs the old value preserved via mux, not a plain concat")
	})
})
