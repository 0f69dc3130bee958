// Package planner implements the Module Planner: the first ingest
// pipeline stage. It interns one elaborated Body's ports and signals
// into a plan.ModulePlan, desugars inout ports into their three-signal
// binding, and claims+enqueues a plan.Key for every non-blackbox child
// instance so the worker pool picks up each distinct module exactly
// once.
package planner

import (
	"sort"
	"strings"

	"github.com/sarchlab/rhgforge/cache"
	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/queue"
	"github.com/sarchlab/rhgforge/rhg"
)

// Context is the slice of the ingest core's shared resources the
// planner needs: the cache to claim child-module keys against and the
// queue to enqueue them on, plus the diagnostics sink.
type Context struct {
	Cache       *cache.PlanCache
	Queue       *queue.PlanTaskQueue
	Diagnostics *diag.Diagnostics
}

// ModulePlanner walks one elaborated Body into a plan.ModulePlan.
type ModulePlanner struct {
	ctx *Context
}

func New(ctx *Context) *ModulePlanner { return &ModulePlanner{ctx: ctx} }

// Plan builds the ModulePlan for body, the body of a module named
// moduleName. Every non-blackbox child instance's (definition,
// parameter-signature) key is claimed in the PlanCache and, on a
// successful claim, pushed onto the PlanTaskQueue for some worker to
// plan next.
func (p *ModulePlanner) Plan(body hdlast.Body, moduleName string) *plan.ModulePlan {
	st := plan.NewSymbolTable()
	mp := &plan.ModulePlan{
		Body:         body,
		SymbolTable:  st,
		ModuleSymbol: st.Intern(moduleName),
	}

	for _, pd := range body.Ports() {
		mp.Ports = append(mp.Ports, p.internPort(mp, pd))
	}
	for _, sd := range body.Signals() {
		mp.Signals = append(mp.Signals, plan.SignalInfo{
			Symbol:     st.Intern(sd.Name),
			Kind:       signalKindFromHdlast(sd.Kind),
			Width:      sd.Width,
			IsSigned:   sd.IsSigned,
			ValueType:  sd.Type,
			MemoryRows: sd.MemoryRows,
		})
	}
	for _, child := range body.ChildInstances() {
		mp.Instances = append(mp.Instances, p.internInstance(mp, child))
	}

	mp.NextInternalSymbol = uint32(st.Len())
	return mp
}

func (p *ModulePlanner) internPort(mp *plan.ModulePlan, pd hdlast.PortDecl) plan.PortInfo {
	st := mp.SymbolTable
	info := plan.PortInfo{
		Symbol:    st.Intern(pd.Name),
		Direction: pd.Direction,
		Width:     pd.Width,
		IsSigned:  pd.IsSigned,
		ValueType: pd.Type,
	}
	if pd.Direction == rhg.DirInout {
		binding := plan.InoutBinding{
			InSymbol:  st.Intern(pd.Name + "_in"),
			OutSymbol: st.Intern(pd.Name + "_out"),
			OeSymbol:  st.Intern(pd.Name + "_oe"),
		}
		info.Inout = &binding
		mp.InoutSignals = append(mp.InoutSignals, plan.InoutSignalInfo{Symbol: info.Symbol, Binding: binding})
	}
	// Every port also gets a mirroring Signal entry so write-back and
	// assembly can treat a port-driven target the same way as a
	// declared net/variable target, without special-casing ports.
	mp.Signals = append(mp.Signals, plan.SignalInfo{
		Symbol: info.Symbol, Kind: plan.SignalPort, Width: pd.Width, IsSigned: pd.IsSigned, ValueType: pd.Type,
	})
	return info
}

func (p *ModulePlanner) internInstance(mp *plan.ModulePlan, child hdlast.Instance) plan.InstanceInfo {
	st := mp.SymbolTable
	def := child.Definition()
	bindings := child.Parameters()

	params := make([]plan.InstanceParameter, 0, len(bindings))
	for _, b := range bindings {
		params = append(params, plan.InstanceParameter{Symbol: st.Intern(b.Name), Value: b.Value})
	}
	signature := paramSignature(bindings)

	info := plan.InstanceInfo{
		Instance:       child,
		InstanceSymbol: st.Intern(child.Name()),
		ModuleSymbol:   st.Intern(def.Name()),
		IsBlackbox:     def.IsBlackbox(),
		Parameters:     params,
		ParamSignature: signature,
	}

	if !def.IsBlackbox() {
		key := plan.Key{DefinitionIdentity: def.Identity(), ParamSignature: signature}
		if p.ctx.Cache.TryClaim(key) {
			p.ctx.Queue.Push(key)
		}
	}
	return info
}

// paramSignature canonicalizes a parameter binding list into a stable
// string so two instances with the same bindings in different
// declaration order still dedup to one plan.Key.
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

func signalKindFromHdlast(k hdlast.SignalKind) plan.SignalKind {
	switch k {
	case hdlast.SignalNet:
		return plan.SignalNet
	case hdlast.SignalMemory:
		return plan.SignalMemory
	default:
		return plan.SignalVariable
	}
}
