package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast/fixture"
	"github.com/sarchlab/rhgforge/rhg"
	"github.com/sarchlab/rhgforge/rhglog"
)

const leafAdderYAML = `
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

const hierarchyYAML = `
modules:
  leaf:
    ports:
      - {name: a, direction: in, width: 8, type: logic}
      - {name: y, direction: out, width: 8, type: logic}
    assigns:
      - target: {kind: ident, name: y, width: 8}
        value: {kind: ident, name: a, width: 8}
  top:
    ports:
      - {name: a, direction: in, width: 8, type: logic}
      - {name: y0, direction: out, width: 8, type: logic}
      - {name: y1, direction: out, width: 8, type: logic}
    instances:
      - {name: u0, module: leaf}
      - {name: u1, module: leaf}
top:
  - {name: dut, module: top}
`

func opsOfKindLocal(g *rhg.Graph, kind rhg.OperationKind) []rhg.OperationId {
	var out []rhg.OperationId
	for _, id := range g.Operations() {
		if g.GetOperation(id).Kind == kind {
			out = append(out, id)
		}
	}
	return out
}

const domainConflictYAML = `
modules:
  top:
    ports:
      - {name: clk, direction: in, width: 1, type: logic}
      - {name: a, direction: in, width: 8, type: logic}
      - {name: q, direction: out, width: 8, type: logic}
    statements:
      - kind: block
        proc_kind: comb
        body:
          - kind: assign
            non_blocking: false
            target: {kind: ident, name: q, width: 8}
            value: {kind: ident, name: a, width: 8}
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
              value: {kind: ident, name: a, width: 8}
top:
  - {name: dut, module: top}
`

var _ = Describe("ConvertDriver", func() {
	It("converts a single leaf module into one published graph", func() {
		root, err := fixture.Build([]byte(leafAdderYAML))
		Expect(err).ToNot(HaveOccurred())

		d := diag.New()
		nl, err := New(NewConvertOptions().WithSingleThread(true)).Convert(root, d, rhglog.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())
		Expect(nl.TopGraphs()).To(HaveLen(1))
	})

	It("shares one published graph across instances of the same module", func() {
		root, err := fixture.Build([]byte(hierarchyYAML))
		Expect(err).ToNot(HaveOccurred())

		d := diag.New()
		nl, err := New(NewConvertOptions().WithThreadCount(4)).Convert(root, d, rhglog.Discard())
		Expect(err).ToNot(HaveOccurred())
		Expect(d.HasError()).To(BeFalse(), "unexpected diagnostics: %+v", d.Messages())

		_, ok := nl.FindGraph("top")
		Expect(ok).To(BeTrue())
		_, ok = nl.FindGraph("leaf")
		Expect(ok).To(BeTrue(), "expected a published graph named %q (shared by both instances)", "leaf")
		Expect(nl.Graphs()).To(HaveLen(2), "expected exactly 2 published graphs (one leaf shared by both instances)")

		top, _ := nl.FindGraph("top")
		insts := opsOfKindLocal(top, rhg.KInstance)
		Expect(insts).To(HaveLen(2))
	})

	It("runs sequentially when ThreadCount is zero or negative, not just when SingleThread is set", func() {
		Expect((&convertRun{opts: NewConvertOptions().WithThreadCount(0)}).workerCount()).To(Equal(1))
		Expect((&convertRun{opts: NewConvertOptions().WithThreadCount(-3)}).workerCount()).To(Equal(1))
		Expect((&convertRun{opts: NewConvertOptions().WithThreadCount(1)}).workerCount()).To(Equal(1))
	})

	It("aborts the run when configured to stop on the first error", func() {
		root, err := fixture.Build([]byte(domainConflictYAML))
		Expect(err).ToNot(HaveOccurred())

		d := diag.New()
		_, err = New(NewConvertOptions().WithSingleThread(true).WithAbortOnError(true)).Convert(root, d, rhglog.Discard())
		Expect(err).To(Equal(ErrConvertAborted))
		Expect(d.HasError()).To(BeTrue(), "expected a domain-conflict diagnostic to have been recorded")
	})
})
