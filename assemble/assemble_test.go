package assemble

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/lower"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/planner"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
	"github.com/sarchlab/rhgforge/writeback"
)

// buildGraph runs every pipeline stage on the named top module of
// yamlSrc and returns the resulting published graph plus its
// diagnostics sink, so each test can assert on the emitted IR and
// confirm nothing went through diag.Error/Todo unexpectedly.
func buildGraph(yamlSrc, topModule string) (*rhg.Graph, *diag.Diagnostics) {
	r, err := fixture.Build([]byte(yamlSrc))
	Expect(err).ToNot(HaveOccurred())

	var top hdlast.Instance
	for _, inst := range r.TopInstances() {
		if inst.Definition().Name() == topModule {
			top = inst
			break
		}
	}
	Expect(top).ToNot(BeNil(), "no top instance for module %q", topModule)

	d := diag.New()
	pl := planner.New(&planner.Context{Cache: cache.New(), Queue: queue.New(), Diagnostics: d})
	mp := pl.Plan(top.Body(), top.Definition().Name())
	lp := lower.New(&lower.Context{MaxLoopIterations: 16, Diagnostics: d}).Lower(mp)
	wbp := writeback.New(&writeback.Context{Diagnostics: d}).Resolve(mp, lp)

	nl := rhg.NewNetlist()
	reg := NewInstanceRegistry()
	key := plan.Key{DefinitionIdentity: top.Definition().Identity(), ParamSignature: ""}
	g := New(&Context{Diagnostics: d}).Assemble(nl, reg, key, mp, lp, wbp, true)
	return g, d
}

func opsOfKind(g *rhg.Graph, kind rhg.OperationKind) []rhg.OperationId {
	var out []rhg.OperationId
	for _, id := range g.Operations() {
		if g.GetOperation(id).Kind == kind {
			out = append(out, id)
		}
	}
	return out
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

const memYAML = `
modules:
  top:
    ports:
      - {name: clk, direction: in, width: 1, type: logic}
      - {name: waddr, direction: in, width: 4, type: logic}
      - {name: wdata, direction: in, width: 8, type: logic}
      - {name: raddr, direction: in, width: 4, type: logic}
      - {name: rdata, direction: out, width: 8, type: logic}
    signals:
      - {name: mem, kind: memory, width: 8, rows: 16}
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
              target: {kind: index_select, base: {kind: ident, name: mem, width: 8},
                       index: {kind: ident, name: waddr, width: 4}, width: 8}
              value: {kind: ident, name: wdata, width: 8}
      - kind: assign
        non_blocking: false
        target: {kind: ident, name: rdata, width: 8}
        value: {kind: index_select, base: {kind: ident, name: mem, width: 8},
                index: {kind: ident, name: raddr, width: 4}, width: 8}
top:
  - {name: dut, module: top}
`

const instanceYAML = `
modules:
  child:
    ports:
      - {name: a, direction: in, width: 8, type: logic}
      - {name: y, direction: out, width: 8, type: logic}
    assigns:
      - target: {kind: ident, name: y, width: 8}
        value: {kind: ident, name: a, width: 8}
  top:
    ports:
      - {name: a, direction: in, width: 8, type: logic}
      - {name: y, direction: out, width: 8, type: logic}
    instances:
      - {name: u_child, module: child}
top:
  - {name: dut, module: top}
`

var _ = Describe("GraphAssembler", func() {
	It("assembles one kAdd and one kAssign for a combinational adder", func() {
		g, d := buildGraph(combAdderYAML, "top")
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())

		Expect(g.InputPorts).To(HaveLen(2))
		Expect(g.OutputPorts).To(HaveLen(1))
		Expect(opsOfKind(g, rhg.KAdd)).To(HaveLen(1))
		Expect(opsOfKind(g, rhg.KAssign)).To(HaveLen(1), "expected exactly one kAssign op for the combinational write-back")

		sumPort := g.OutputPorts[0]
		sumVal := g.GetValue(sumPort.Value)
		Expect(sumVal.HasDefiningOp()).To(BeTrue(), "expected sum port value to have a defining kAssign op")
		Expect(g.GetOperation(sumVal.DefiningOp).Kind).To(Equal(rhg.KAssign))
	})

	It("materializes a register and its write port with posedge timing", func() {
		g, d := buildGraph(ffYAML, "top")
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())

		regs := opsOfKind(g, rhg.KRegister)
		Expect(regs).To(HaveLen(1))
		writePorts := opsOfKind(g, rhg.KRegisterWritePort)
		Expect(writePorts).To(HaveLen(1))

		wp := g.GetOperation(writePorts[0])
		edges, ok := wp.AttrStrings("eventEdge")
		Expect(ok).To(BeTrue())
		Expect(edges).To(Equal([]string{"posedge"}))

		outVal := g.GetValue(g.OutputPorts[0].Value)
		Expect(g.GetOperation(outVal.DefiningOp).Kind).To(Equal(rhg.KRegister),
			"expected q's defining op to be the register declaration itself")
	})

	It("materializes one memory read port and one write port", func() {
		g, d := buildGraph(memYAML, "top")
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())

		Expect(opsOfKind(g, rhg.KMemory)).To(HaveLen(1))
		Expect(opsOfKind(g, rhg.KMemoryWritePort)).To(HaveLen(1))
		Expect(opsOfKind(g, rhg.KMemoryReadPort)).To(HaveLen(1))
	})

	It("wires a single-in/single-out child instance by same-name ports", func() {
		g, d := buildGraph(instanceYAML, "top")
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())

		insts := opsOfKind(g, rhg.KInstance)
		Expect(insts).To(HaveLen(1))

		op := g.GetOperation(insts[0])
		Expect(op.Operands).To(HaveLen(1))
		Expect(op.Results).To(HaveLen(1))

		name, _ := op.AttrString("moduleName")
		Expect(name).To(Equal("child"))
		name, _ = op.AttrString("instanceName")
		Expect(name).To(Equal("u_child"))
	})
})
