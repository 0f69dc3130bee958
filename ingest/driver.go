// Package ingest implements the Convert Driver: the worker pool that
// coordinates the Module Planner, Statement Lowerer, Write-Back
// Resolver and Graph Assembler over a whole design hierarchy, turning
// one hdlast.Root into a published rhg.Netlist.
package ingest

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/rhgforge/assemble"
	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/lower"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/planner"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
	"github.com/sarchlab/rhgforge/rhglog"
	"github.com/sarchlab/rhgforge/writeback"
)

// ErrConvertAborted is returned when ConvertOptions.AbortOnError fired
// mid-run: the returned netlist, if any, is a partial result and
// should not be treated as complete.
var ErrConvertAborted = errors.New("ingest: conversion aborted after first error")

// maxRequeuesPerKey bounds how many times one key can be deferred back
// onto the queue (waiting on a not-yet-registered child body, or on a
// child instance's graph not yet being published) before the driver
// gives up and reports it as stuck rather than spinning forever.
const maxRequeuesPerKey = 4096

// ConvertDriver owns one PlanCache/PlanTaskQueue/Netlist triple across
// a single Convert call and fans planning/lowering/write-back/
// assembly work for every distinct module out across a worker pool.
type ConvertDriver struct {
	opts ConvertOptions
}

// New creates a ConvertDriver configured by opts.
func New(opts ConvertOptions) *ConvertDriver { return &ConvertDriver{opts: opts} }

// Convert lowers every top instance of root into a published
// rhg.Netlist. diagnostics receives every Todo/Error/Warning/Info
// record raised along the way; logger receives structured progress
// output gated by ConvertOptions.WithLogging/WithTiming.
func (d *ConvertDriver) Convert(root hdlast.Root, diagnostics *diag.Diagnostics, logger *rhglog.Logger) (*rhg.Netlist, error) {
	if logger == nil {
		logger = rhglog.Discard()
	}

	r := &convertRun{
		opts:        d.opts,
		diagnostics: diagnostics,
		logger:      logger,
		cache:       cache.New(),
		queue:       queue.New(),
		netlist:     rhg.NewNetlist(),
		registry:    assemble.NewInstanceRegistry(),
		bodies:      map[plan.Key]hdlast.Instance{},
		requeues:    map[plan.Key]int{},
		topKeys:     map[plan.Key]bool{},
	}

	for _, top := range root.TopInstances() {
		key := r.seedInstance(top)
		r.topKeys[key] = true
	}

	diagnostics.SetOnError(func() {
		if r.opts.abortOnError {
			r.cancel.Set()
			r.queue.Close()
		}
	})

	start := time.Now()
	err := r.run()
	if r.opts.enableTiming {
		logger.Timing("convert", time.Since(start))
	}
	if err != nil {
		return r.netlist, err
	}
	if diagnostics.HasError() && r.opts.abortOnError {
		return r.netlist, ErrConvertAborted
	}
	return r.netlist, nil
}

// convertRun is the mutable state of one Convert call, shared by every
// worker goroutine.
type convertRun struct {
	opts        ConvertOptions
	diagnostics *diag.Diagnostics
	logger      *rhglog.Logger

	cache    *cache.PlanCache
	queue    *queue.PlanTaskQueue
	netlist  *rhg.Netlist
	registry *assemble.InstanceRegistry
	cancel   queue.CancelFlag

	asm *assemble.GraphAssembler

	bodiesMu sync.Mutex
	bodies   map[plan.Key]hdlast.Instance

	requeueMu sync.Mutex
	requeues  map[plan.Key]int

	topKeys map[plan.Key]bool
}

// seedInstance claims and enqueues a top instance's key, registering
// its body up front since, unlike a nested child, no parent worker
// will ever do that on its behalf.
func (r *convertRun) seedInstance(inst hdlast.Instance) plan.Key {
	key := plan.Key{DefinitionIdentity: inst.Definition().Identity(), ParamSignature: paramSignature(inst.Parameters())}
	r.registerBody(key, inst)
	if r.cache.TryClaim(key) {
		r.queue.Push(key)
	}
	return key
}

func (r *convertRun) registerBody(key plan.Key, inst hdlast.Instance) {
	r.bodiesMu.Lock()
	r.bodies[key] = inst
	r.bodiesMu.Unlock()
}

func (r *convertRun) lookupBody(key plan.Key) (hdlast.Instance, bool) {
	r.bodiesMu.Lock()
	defer r.bodiesMu.Unlock()
	inst, ok := r.bodies[key]
	return inst, ok
}

// bumpRequeue increments key's requeue counter and reports whether it
// has now exceeded maxRequeuesPerKey.
func (r *convertRun) bumpRequeue(key plan.Key) bool {
	r.requeueMu.Lock()
	defer r.requeueMu.Unlock()
	r.requeues[key]++
	return r.requeues[key] > maxRequeuesPerKey
}

// run spawns the worker pool and blocks until every outstanding key has
// been processed or the queue was closed by an abort.
func (r *convertRun) run() error {
	workers := r.workerCount()
	r.asm = assemble.New(&assemble.Context{Diagnostics: r.diagnostics})

	if workers <= 1 {
		r.workerLoop()
		return nil
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			r.workerLoop()
			return nil
		})
	}
	return g.Wait()
}

func (r *convertRun) workerCount() int {
	if r.opts.singleThread || r.opts.threadCount <= 1 {
		return 1
	}
	n := r.opts.threadCount
	if hw, err := cpu.Counts(true); err == nil && hw > 0 && hw < n {
		n = hw
	}
	return n
}

// workerLoop pops keys until the queue closes or the run is cancelled,
// processing each one to completion (possibly across several pops, via
// Requeue) and calling queue.Done exactly once per key that finishes
// its whole pipeline.
func (r *convertRun) workerLoop() {
	for {
		key, ok := r.queue.WaitPop(&r.cancel)
		if !ok {
			return
		}
		r.closeIfDrained(r.processKey(key))
	}
}

// closeIfDrained closes the queue once every outstanding key has
// retired, unblocking the remaining idle workers' WaitPop calls.
func (r *convertRun) closeIfDrained(finished bool) {
	if !finished {
		return
	}
	if r.queue.Outstanding() == 0 {
		r.queue.Close()
	}
}

// processKey advances key's pipeline as far as it currently can. It
// reports true once key's entire pipeline (plan, lower, write-back,
// assemble) has completed and queue.Done has been called for it, or
// once it has been abandoned as unrecoverable; it reports false when
// the key was deferred back onto the queue for a later attempt.
func (r *convertRun) processKey(key plan.Key) bool {
	if r.cancel.IsSet() {
		r.retire()
		return true
	}

	mp, lp, wbp, ok := r.planLowerAndWriteBack(key)
	if !ok {
		return r.deferOrAbandon(key, "waiting on child instance body to be registered")
	}

	if !r.childGraphsReady(mp) {
		return r.deferOrAbandon(key, "waiting on a child instance's graph to be published")
	}

	isTop := r.topKeys[key]
	r.asm.Assemble(r.netlist, r.registry, key, mp, lp, wbp, isTop)
	if r.opts.enableLogging {
		r.logger.Debug("assembled graph", "module", mp.SymbolTable.Text(mp.ModuleSymbol))
	}
	r.retire()
	return true
}

func (r *convertRun) retire() {
	r.queue.Done()
}

func (r *convertRun) deferOrAbandon(key plan.Key, reason string) bool {
	if r.bumpRequeue(key) {
		r.diagnostics.Error("module never became ready: "+reason, "")
		r.cache.MarkFailed(key)
		r.retire()
		return true
	}
	r.queue.Requeue(key)
	return false
}

// planLowerAndWriteBack runs (or, on a second attempt, reuses the
// already-cached result of) the first three pipeline stages for key.
// It reports false only when key's hdlast.Instance has not yet been
// registered by its parent — a transient race the caller resolves by
// deferring key back onto the queue.
func (r *convertRun) planLowerAndWriteBack(key plan.Key) (*plan.ModulePlan, *plan.LoweringPlan, *plan.WriteBackPlan, bool) {
	if mp, ok := r.cache.FindReady(key); ok {
		var lp *plan.LoweringPlan
		var wbp *plan.WriteBackPlan
		r.cache.WithLoweringPlan(key, func(p *plan.LoweringPlan) { lp = p })
		r.cache.WithWriteBackPlan(key, func(p *plan.WriteBackPlan) { wbp = p })
		return mp, lp, wbp, true
	}

	inst, ok := r.lookupBody(key)
	if !ok {
		return nil, nil, nil, false
	}

	mp := planner.New(&planner.Context{Cache: r.cache, Queue: r.queue, Diagnostics: r.diagnostics}).
		Plan(inst.Body(), inst.Definition().Name())
	r.cache.StorePlan(key, mp)
	r.registerChildBodies(mp)

	lp := lower.New(&lower.Context{
		MaxLoopIterations: uint32(r.opts.maxLoopIterations),
		Diagnostics:       r.diagnostics,
	}).Lower(mp)
	r.cache.SetLoweringPlan(key, lp)

	wbp := writeback.New(&writeback.Context{Diagnostics: r.diagnostics}).Resolve(mp, lp)
	r.cache.SetWriteBackPlan(key, wbp)

	return mp, lp, wbp, true
}

// registerChildBodies makes every non-blackbox child instance mp's
// planning pass just discovered and claimed findable by the worker
// that eventually pops its key, closing the window between
// planner.Plan pushing the key and this worker recording where its
// hdlast.Instance actually lives.
func (r *convertRun) registerChildBodies(mp *plan.ModulePlan) {
	for _, ii := range mp.Instances {
		if ii.IsBlackbox {
			continue
		}
		key := plan.Key{DefinitionIdentity: ii.Instance.Definition().Identity(), ParamSignature: ii.ParamSignature}
		r.registerBody(key, ii.Instance)
	}
}

// childGraphsReady reports whether every non-blackbox child of mp has
// already been assembled and published under a name recorded in the
// registry. PlanCache.StatusDone only means "planned", so this is the
// actual completion signal a parent's instance wiring waits on.
func (r *convertRun) childGraphsReady(mp *plan.ModulePlan) bool {
	for _, ii := range mp.Instances {
		if ii.IsBlackbox {
			continue
		}
		key := plan.Key{DefinitionIdentity: ii.Instance.Definition().Identity(), ParamSignature: ii.ParamSignature}
		if _, ok := r.registry.Lookup(key); !ok {
			return false
		}
	}
	return true
}

// paramSignature mirrors planner's canonicalization of a binding list
// into a stable string, needed here only for the top-level instances
// the driver seeds itself (every other key's signature comes straight
// from the plan.InstanceInfo a parent already computed).
func paramSignature(bindings []hdlast.ParamBinding) string {
	if len(bindings) == 0 {
		return ""
	}
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = b.Name + "=" + b.Value
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
