package planner

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
)

const hierarchyYAML = `
modules:
  leaf:
    ports:
      - {name: clk, direction: in, width: 1, type: logic}
  top:
    ports:
      - {name: bus, direction: inout, width: 8, type: logic}
    signals:
      - {name: mem, kind: memory, width: 8, rows: 16, type: logic}
    instances:
      - {name: u0, module: leaf}
      - {name: u1, module: leaf}
top:
  - {name: dut, module: top}
`

var _ = Describe("ModulePlanner", func() {
	It("interns ports/signals and enqueues distinct child keys", func() {
		r, err := fixture.Build([]byte(hierarchyYAML))
		Expect(err).ToNot(HaveOccurred())
		topInst := r.TopInstances()[0]

		c, q := cache.New(), queue.New()
		pl := New(&Context{Cache: c, Queue: q, Diagnostics: diag.New()})

		mp := pl.Plan(topInst.Body(), topInst.Definition().Name())

		Expect(mp.Ports).To(HaveLen(1))
		port := mp.Ports[0]
		Expect(port.Direction).To(Equal(rhg.DirInout))
		Expect(port.Inout).ToNot(BeNil())
		Expect(mp.SymbolTable.Text(port.Inout.InSymbol)).To(Equal("bus_in"))

		// one Signal entry for the memory, one mirroring the inout port.
		Expect(mp.Signals).To(HaveLen(2))

		Expect(mp.Instances).To(HaveLen(2))
		Expect(q.Len()).To(Equal(1), "both children share 'leaf' and should enqueue one distinct key")

		key, ok := q.TryPop()
		Expect(ok).To(BeTrue())

		_, ready := c.FindReady(key)
		Expect(ready).To(BeFalse(), "the child plan has not been produced yet")
		Expect(c.Status(key)).To(Equal(plan.StatusPlanning))
	})
})
