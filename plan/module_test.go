package plan

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/rhg"
)

var _ = Describe("FindPortByName / FindPortByInoutName", func() {
	It("finds a plain port by name and an inout port by one of its surrogate names", func() {
		st := NewSymbolTable()
		p := &ModulePlan{SymbolTable: st}

		aSym := st.Intern("a")
		p.Ports = append(p.Ports, PortInfo{Symbol: aSym, Direction: rhg.DirInput, Width: 1})

		busIn := st.Intern("bus_in")
		busOut := st.Intern("bus_out")
		busOe := st.Intern("bus_oe")
		busSym := st.Intern("bus")
		p.Ports = append(p.Ports, PortInfo{
			Symbol:    busSym,
			Direction: rhg.DirInout,
			Inout:     &InoutBinding{InSymbol: busIn, OutSymbol: busOut, OeSymbol: busOe},
		})

		got := FindPortByName(p, "a")
		Expect(got).ToNot(BeNil())
		Expect(got.Symbol).To(Equal(aSym))

		Expect(FindPortByName(p, "missing")).To(BeNil())

		got = FindPortByInoutName(p, "bus_oe")
		Expect(got).ToNot(BeNil())
		Expect(got.Symbol).To(Equal(busSym))

		Expect(FindPortByInoutName(p, "a")).To(BeNil(), "a is not an inout port")
	})
})

var _ = Describe("Key", func() {
	It("is usable as a map key with structural equality", func() {
		type defId struct{ n int }
		d1, d2 := &defId{1}, &defId{2}

		cache := map[Key]string{}
		cache[Key{DefinitionIdentity: d1, ParamSignature: "WIDTH=8"}] = "plan-a"
		cache[Key{DefinitionIdentity: d2, ParamSignature: "WIDTH=8"}] = "plan-b"
		cache[Key{DefinitionIdentity: d1, ParamSignature: "WIDTH=16"}] = "plan-c"

		Expect(cache[Key{DefinitionIdentity: d1, ParamSignature: "WIDTH=8"}]).To(Equal("plan-a"))
		Expect(cache).To(HaveLen(3))
	})
})
