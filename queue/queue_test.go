package queue

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/plan"
)

var _ = Describe("PlanTaskQueue", func() {
	It("pops keys in FIFO order", func() {
		q := New()
		type def struct{}
		k1 := plan.Key{DefinitionIdentity: &def{}, ParamSignature: "1"}
		k2 := plan.Key{DefinitionIdentity: &def{}, ParamSignature: "2"}
		q.Push(k1)
		q.Push(k2)

		got1, ok := q.TryPop()
		Expect(ok).To(BeTrue())
		Expect(got1).To(Equal(k1))

		got2, ok := q.TryPop()
		Expect(ok).To(BeTrue())
		Expect(got2).To(Equal(k2))

		_, ok = q.TryPop()
		Expect(ok).To(BeFalse(), "expected an empty queue")
	})

	It("blocks WaitPop until a Push wakes it", func() {
		q := New()
		type def struct{}
		k := plan.Key{DefinitionIdentity: &def{}, ParamSignature: "x"}

		done := make(chan plan.Key, 1)
		go func() {
			got, ok := q.WaitPop(nil)
			if ok {
				done <- got
			} else {
				close(done)
			}
		}()

		time.Sleep(20 * time.Millisecond)
		q.Push(k)

		Eventually(done, time.Second).Should(Receive(Equal(k)))
	})

	It("unblocks waiters on Close with no pending items", func() {
		q := New()
		done := make(chan bool, 1)
		go func() {
			_, ok := q.WaitPop(nil)
			done <- ok
		}()

		time.Sleep(20 * time.Millisecond)
		q.Close()

		Eventually(done, time.Second).Should(Receive(BeFalse()))
	})

	It("unblocks a waiter once the cancel flag is set", func() {
		q := New()
		var cancel CancelFlag
		done := make(chan bool, 1)
		go func() {
			_, ok := q.WaitPop(&cancel)
			done <- ok
		}()

		time.Sleep(20 * time.Millisecond)
		cancel.Set()
		q.cond.Broadcast() // a real caller's abort path also signals after setting the flag

		Eventually(done, time.Second).Should(Receive(BeFalse()))
	})

	It("tracks outstanding across Push/Requeue/Done", func() {
		q := New()
		type def struct{}
		k := plan.Key{DefinitionIdentity: &def{}, ParamSignature: "x"}

		q.Push(k)
		Expect(q.Outstanding()).To(Equal(int64(1)))

		got, ok := q.TryPop()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(k))

		q.Requeue(k)
		Expect(q.Outstanding()).To(Equal(int64(1)), "Requeue must not change Outstanding")

		_, ok = q.TryPop()
		Expect(ok).To(BeTrue(), "expected the requeued key to be poppable")

		Expect(q.Done()).To(Equal(int64(0)))
	})

	It("treats Push/TryPush after Close as a no-op", func() {
		q := New()
		q.Close()
		type def struct{}
		q.Push(plan.Key{DefinitionIdentity: &def{}})
		Expect(q.TryPush(plan.Key{DefinitionIdentity: &def{}})).To(BeFalse())
		Expect(q.Len()).To(Equal(0))
	})
})
