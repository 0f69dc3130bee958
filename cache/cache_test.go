package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rhgforge/plan"
)

func key(sig string) plan.Key {
	type def struct{}
	return plan.Key{DefinitionIdentity: &def{}, ParamSignature: sig}
}

var _ = Describe("PlanCache", func() {
	It("claims a key exactly once and surfaces the plan once stored", func() {
		c := New()
		k := key("WIDTH=8")

		Expect(c.TryClaim(k)).To(BeTrue(), "first claim should succeed")
		Expect(c.TryClaim(k)).To(BeFalse(), "second concurrent claim on the same key should fail")

		_, ok := c.FindReady(k)
		Expect(ok).To(BeFalse(), "plan should not be ready before StorePlan")

		p := &plan.ModulePlan{}
		c.StorePlan(k, p)

		got, ok := c.FindReady(k)
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(p))
		Expect(c.Status(k)).To(Equal(plan.StatusDone))
	})

	It("marks a key failed and keeps it from ever becoming ready", func() {
		c := New()
		k := key("WIDTH=4")
		c.TryClaim(k)
		c.MarkFailed(k)
		Expect(c.Status(k)).To(Equal(plan.StatusFailed))

		_, ok := c.FindReady(k)
		Expect(ok).To(BeFalse(), "a failed plan must never be ready")
	})

	It("makes an artifact mutation visible to later readers", func() {
		c := New()
		k := key("WIDTH=1")
		c.TryClaim(k)
		c.StorePlan(k, &plan.ModulePlan{})

		Expect(c.SetLoweringPlan(k, &plan.LoweringPlan{})).To(BeTrue())

		ok := c.WithLoweringPlanMut(k, func(lp *plan.LoweringPlan) {
			lp.Writes = append(lp.Writes, plan.WriteIntent{})
		})
		Expect(ok).To(BeTrue())

		seen := false
		c.WithLoweringPlan(k, func(lp *plan.LoweringPlan) {
			seen = len(lp.Writes) == 1
		})
		Expect(seen).To(BeTrue(), "mutation through WithLoweringPlanMut should be visible to later readers")
	})

	It("reports false for every operation on an unclaimed key", func() {
		c := New()
		k := key("never-claimed")
		Expect(c.SetLoweringPlan(k, &plan.LoweringPlan{})).To(BeFalse())
		Expect(c.WithWriteBackPlan(k, func(*plan.WriteBackPlan) {})).To(BeFalse())
	})
})
