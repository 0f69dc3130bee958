package lower

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/planner"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
)

func planModule(yamlSrc string) *plan.ModulePlan {
	r, err := fixture.Build([]byte(yamlSrc))
	Expect(err).ToNot(HaveOccurred())
	top := r.TopInstances()[0]
	pl := planner.New(&planner.Context{Cache: cache.New(), Queue: queue.New(), Diagnostics: diag.New()})
	return pl.Plan(top.Body(), top.Definition().Name())
}

const combAdderYAML = `
modules:
  top:
    ports:
      - {name: a, direction: in, width: 8, type: logic}
      - {name: b, direction: in, width: 8, type: logic}
      - {name: sum, direction: out, width: 8, type: logic}
    assigns:
      - target: {kind: ident, name: sum, width: 8}
        value: {kind: binary, op: add, width: 8,
                left: {kind: ident, name: a, width: 8},
                right: {kind: ident, name: b, width: 8}}
top:
  - {name: dut, module: top}
`

const ffRegisterYAML = `
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

const forLoopYAML = `
modules:
  top:
    signals:
      - {name: i, kind: variable, width: 8, type: logic}
    ports:
      - {name: out, direction: out, width: 8, type: logic}
    statements:
      - kind: for
        init:
          kind: assign
          target: {kind: ident, name: i, width: 8}
          value: {kind: literal, text: "0", width: 8}
        cond: {kind: binary, op: lt, width: 1,
               left: {kind: ident, name: i, width: 8},
               right: {kind: literal, text: "3", width: 8}}
        step:
          kind: assign
          target: {kind: ident, name: i, width: 8}
          value: {kind: binary, op: add, width: 8,
                  left: {kind: ident, name: i, width: 8},
                  right: {kind: literal, text: "1", width: 8}}
        loop_body:
          kind: assign
          target: {kind: ident, name: out, width: 8}
          value: {kind: ident, name: i, width: 8}
top:
  - {name: dut, module: top}
`

const memoryYAML = `
modules:
  top:
    signals:
      - {name: mem, kind: memory, width: 8, rows: 16, type: logic}
    ports:
      - {name: addr, direction: in, width: 4, type: logic}
      - {name: rdata, direction: out, width: 8, type: logic}
    assigns:
      - target: {kind: ident, name: rdata, width: 8}
        value: {kind: index_select, width: 8,
                base: {kind: ident, name: mem, width: 8},
                index: {kind: ident, name: addr, width: 4}}
top:
  - {name: dut, module: top}
`

var _ = Describe("StmtLowererPass", func() {
	It("produces one unconditional write for a continuous assign", func() {
		mp := planModule(combAdderYAML)
		lp := New(&Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)

		Expect(lp.Writes).To(HaveLen(1))
		wi := lp.Writes[0]
		Expect(mp.SymbolTable.Text(wi.Target)).To(Equal("sum"))
		Expect(wi.Guard.Valid()).To(BeFalse(), "a continuous assign carries no guard")

		valNode := lp.Values[wi.Value]
		Expect(valNode.Kind).To(Equal(plan.ExprOpNode))
		Expect(valNode.Op).To(Equal(rhg.KAdd))
	})

	It("captures posedge timing on an event-controlled write", func() {
		mp := planModule(ffRegisterYAML)
		lp := New(&Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)

		Expect(lp.LoweredStmts).To(HaveLen(1))
		ls := lp.LoweredStmts[0]
		Expect(ls.HasTiming).To(BeTrue())
		Expect(ls.EventEdges).To(Equal([]plan.EventEdge{plan.Posedge}))
		Expect(ls.ProcKind).To(Equal(plan.ProcAlwaysFF))
		Expect(ls.Write.IsNonBlocking).To(BeTrue())
	})

	It("produces one guarded write per if/else branch", func() {
		mp := planModule(ifElseYAML)
		lp := New(&Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)

		Expect(lp.Writes).To(HaveLen(2))
		for _, wi := range lp.Writes {
			Expect(wi.Guard.Valid()).To(BeTrue(), "every if/else branch write should carry a guard")
		}
	})

	It("unrolls a statically-bounded for loop", func() {
		mp := planModule(forLoopYAML)
		lp := New(&Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)

		Expect(lp.Writes).To(HaveLen(3))
		want := []string{"0", "1", "2"}
		for idx, wi := range lp.Writes {
			valNode := lp.Values[wi.Value]
			Expect(valNode.Literal).To(Equal(want[idx]))
		}
	})

	It("reports a todo when the unroll bound is exceeded", func() {
		mp := planModule(forLoopYAML)
		d := diag.New()
		New(&Context{MaxLoopIterations: 2, Diagnostics: d}).Lower(mp)

		found := false
		for _, m := range d.Messages() {
			if m.Kind == diag.Todo {
				found = true
			}
		}
		Expect(found).To(BeTrue())
	})

	It("produces one read port for an indexed memory read", func() {
		mp := planModule(memoryYAML)
		lp := New(&Context{MaxLoopIterations: 16, Diagnostics: diag.New()}).Lower(mp)

		Expect(lp.MemoryReads).To(HaveLen(1))
		Expect(mp.SymbolTable.Text(lp.MemoryReads[0].Memory)).To(Equal("mem"))
	})
})
