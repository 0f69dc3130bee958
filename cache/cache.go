// Package cache implements the PlanCache: the shared, mutex-guarded
// map from plan.Key to that module's planning/lowering/write-back
// state. It is one of the ingest core's shared mutable resources
// (alongside the PlanTaskQueue, the Netlist and the diagnostics sink) —
// every worker claims a
// key before planning it, so the same module is never planned twice.
package cache

import (
	"sync"

	"github.com/sarchlab/rhgforge/plan"
)

// PlanCache maps plan.Key to plan.Entry under a single mutex. No lock
// is ever held across a pipeline stage: callers pull a snapshot or hand
// a callback in, and the mutex is released before that callback's
// result is used by the next stage.
type PlanCache struct {
	mu      sync.Mutex
	entries map[plan.Key]*plan.Entry
}

// New creates an empty PlanCache.
func New() *PlanCache {
	return &PlanCache{entries: make(map[plan.Key]*plan.Entry)}
}

func (c *PlanCache) getOrCreateLocked(key plan.Key) *plan.Entry {
	e, ok := c.entries[key]
	if !ok {
		e = &plan.Entry{Status: plan.StatusPending}
		c.entries[key] = e
	}
	return e
}

// TryClaim atomically transitions key from Pending to Planning and
// reports whether the caller won the claim. A second caller racing on
// the same key gets false and should instead poll FindReady (or block
// on whatever synchronization its stage uses) rather than plan the
// module itself.
func (c *PlanCache) TryClaim(key plan.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.getOrCreateLocked(key)
	if e.Status != plan.StatusPending {
		return false
	}
	e.Status = plan.StatusPlanning
	return true
}

// StorePlan records the completed ModulePlan for key and marks it Done.
// The caller must already hold the claim (TryClaim must have returned
// true for this key). Storing a plan for a key already marked Failed
// is a programming error and panics.
func (c *PlanCache) StorePlan(key plan.Key, p *plan.ModulePlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.getOrCreateLocked(key)
	if e.Status == plan.StatusFailed {
		panic("cache: StorePlan called for a key already marked failed")
	}
	e.Plan = p
	e.Status = plan.StatusDone
}

// MarkFailed records that planning key failed irrecoverably.
func (c *PlanCache) MarkFailed(key plan.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.getOrCreateLocked(key)
	e.Status = plan.StatusFailed
}

// FindReady returns the completed ModulePlan for key, if any.
func (c *PlanCache) FindReady(key plan.Key) (*plan.ModulePlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.Status != plan.StatusDone || e.Plan == nil {
		return nil, false
	}
	return e.Plan, true
}

// Status reports the current lifecycle status of key, or
// plan.StatusPending if key has never been claimed.
func (c *PlanCache) Status(key plan.Key) plan.PlanStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return plan.StatusPending
	}
	return e.Status
}

// Clear discards every entry.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[plan.Key]*plan.Entry)
}

// SetLoweringPlan records key's LoweringPlan artifact. Reports false if
// key has no entry yet.
func (c *PlanCache) SetLoweringPlan(key plan.Key, lp *plan.LoweringPlan) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.Artifacts.LoweringPlan = lp
	return true
}

// SetWriteBackPlan records key's WriteBackPlan artifact. Reports false
// if key has no entry yet.
func (c *PlanCache) SetWriteBackPlan(key plan.Key, wbp *plan.WriteBackPlan) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	e.Artifacts.WriteBackPlan = wbp
	return true
}

// WithLoweringPlan runs fn with key's LoweringPlan while the cache
// mutex is held, for a read that must observe a consistent snapshot.
// Reports false if no lowering plan has been stored for key.
func (c *PlanCache) WithLoweringPlan(key plan.Key, fn func(*plan.LoweringPlan)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.Artifacts.LoweringPlan == nil {
		return false
	}
	fn(e.Artifacts.LoweringPlan)
	return true
}

// WithWriteBackPlan runs fn with key's WriteBackPlan while the cache
// mutex is held. Reports false if none has been stored.
func (c *PlanCache) WithWriteBackPlan(key plan.Key, fn func(*plan.WriteBackPlan)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.Artifacts.WriteBackPlan == nil {
		return false
	}
	fn(e.Artifacts.WriteBackPlan)
	return true
}

// WithLoweringPlanMut runs fn with key's LoweringPlan open for
// mutation, serialized against every other cache access by the same
// single cache mutex WithLoweringPlan takes.
func (c *PlanCache) WithLoweringPlanMut(key plan.Key, fn func(*plan.LoweringPlan)) bool {
	return c.WithLoweringPlan(key, fn)
}

// WithWriteBackPlanMut runs fn with key's WriteBackPlan open for
// mutation, serialized against every other cache access.
func (c *PlanCache) WithWriteBackPlanMut(key plan.Key, fn func(*plan.WriteBackPlan)) bool {
	return c.WithWriteBackPlan(key, fn)
}
