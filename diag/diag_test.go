package diag

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Diagnostics", func() {
	It("does not fire onError for a warning, but fires exactly once for the first fatal record", func() {
		d := New()
		calls := 0
		d.SetOnError(func() { calls++ })

		d.Warning("not fatal", "")
		Expect(calls).To(Equal(0), "a warning must not trigger onError")

		d.Error("first error", "ctx")
		d.Todo("second fatal record", "ctx")
		Expect(calls).To(Equal(1), "onError should fire exactly once")
		Expect(d.HasError()).To(BeTrue())
	})

	It("preserves flush order and fatality across a merge", func() {
		shared := New()
		worker := New()
		worker.Info("from worker", "")
		worker.Error("worker saw a bug", "")

		shared.Info("from driver", "")
		shared.Merge(worker)

		msgs := shared.Messages()
		Expect(msgs).To(HaveLen(3))
		Expect(msgs[0].Message).To(Equal("from driver"))
		Expect(msgs[1].Message).To(Equal("from worker"))
		Expect(msgs[2].Message).To(Equal("worker saw a bug"))
		Expect(shared.HasError()).To(BeTrue(), "merging an error record should mark the shared sink as having an error")
	})

	It("resets messages and the error flag on Clear, but not the once-guard", func() {
		d := New()
		calls := 0
		d.SetOnError(func() { calls++ })
		d.Error("boom", "")
		d.Clear()
		Expect(d.Empty()).To(BeTrue())
		Expect(d.HasError()).To(BeFalse())

		d.Error("boom again", "")
		Expect(calls).To(Equal(1), "onError is a once-per-sink-lifetime callback")
	})
})
