package rhg

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Graph", func() {
	It("holds its invariants after wiring ports and publishing", func() {
		netlist := NewNetlist()
		gname := netlist.Symbols().Intern("adder")
		g := NewGraph(gname)

		a := g.NewValue(g.Symbols().Intern("a"), 8, false, Bit, nil)
		b := g.NewValue(g.Symbols().Intern("b"), 8, false, Bit, nil)

		addOp := g.NewOperation(g.Symbols().Intern("add0"), KAdd, nil)
		g.AddOperand(addOp, a)
		g.AddOperand(addOp, b)
		sum := g.NewResultValue(addOp, g.Symbols().Intern("sum"), 8, false, Bit, nil)

		g.InputPorts = append(g.InputPorts,
			Port{Name: g.Symbols().Intern("a"), Value: a, Direction: DirInput},
			Port{Name: g.Symbols().Intern("b"), Value: b, Direction: DirInput},
		)
		g.OutputPorts = append(g.OutputPorts, Port{Name: g.Symbols().Intern("sum"), Value: sum, Direction: DirOutput})

		Expect(g.CheckInvariants()).To(Succeed())

		av := g.GetValue(a)
		Expect(av.Users).To(HaveLen(1))
		Expect(av.Users[0].Op).To(Equal(addOp))
		Expect(av.Users[0].Operand).To(Equal(0))

		sv := g.GetValue(sum)
		Expect(sv.DefiningOp).To(Equal(addOp))

		netlist.Publish(g, true)
		Expect(netlist.TopGraphs()).To(Equal([]string{"adder"}))

		found, ok := netlist.FindGraph("adder")
		Expect(ok).To(BeTrue())
		Expect(found).To(Equal(g))
	})

	It("rejects redefining an already-produced value", func() {
		g := NewGraph(1)
		op1 := g.NewOperation(0, KConstant, nil)
		v := g.NewResultValue(op1, 0, 1, false, Bit, nil)
		op2 := g.NewOperation(0, KConstant, nil)

		Expect(func() { g.AddResult(op2, v) }).To(Panic())
	})
})

var _ = Describe("SymbolTable", func() {
	It("interns the same text to the same id, and the zero symbol is invalid", func() {
		st := NewSymbolTable()
		first := st.Intern("clk")
		second := st.Intern("clk")
		Expect(first).To(Equal(second))
		Expect(st.Text(first)).To(Equal("clk"))
		Expect(InvalidSymbolId.Valid()).To(BeFalse())
	})
})
