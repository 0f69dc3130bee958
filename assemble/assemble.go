// Package assemble implements the Graph Assembler: the fourth and
// final ingest pipeline stage. It takes one module's ModulePlan,
// LoweringPlan and WriteBackPlan and materializes them into a single
// published rhg.Graph: storage declarations for registers/latches/
// memories, operations for every lowered expression node, write ports
// for every resolved write-back entry, and instance/blackbox ops for
// child modules.
package assemble

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sarchlab/rhgforge/diag"
	"github.com/sarchlab/rhgforge/plan"
	"github.com/sarchlab/rhgforge/rhg"
)

// Context carries the diagnostics sink the assembler reports into.
type Context struct {
	Diagnostics *diag.Diagnostics
}

// GraphAssembler assembles one plan.Key's artifacts into a published
// graph at a time. A single instance may be shared across workers: its
// only mutable state is the anonymous-name disambiguation counter,
// which is mutex-guarded.
type GraphAssembler struct {
	ctx *Context

	mu   sync.Mutex
	next int
}

func New(ctx *Context) *GraphAssembler { return &GraphAssembler{ctx: ctx} }

// Assemble materializes mp/lp/wbp into a fresh graph, publishes it
// into nl under a name derived from the module name and key's
// parameter signature, records that name in reg for any parent
// instance op that references this module, and returns the graph.
func (a *GraphAssembler) Assemble(
	nl *rhg.Netlist,
	reg *InstanceRegistry,
	key plan.Key,
	mp *plan.ModulePlan,
	lp *plan.LoweringPlan,
	wbp *plan.WriteBackPlan,
	isTop bool,
) *rhg.Graph {
	moduleName := mp.SymbolTable.Text(mp.ModuleSymbol)
	name := a.uniqueName(nl, graphBaseName(moduleName, key.ParamSignature))
	gsym := nl.Symbols().Intern(name)
	g := rhg.NewGraph(gsym)

	b := &builder{
		ctx:       a.ctx,
		g:         g,
		mp:        mp,
		lp:        lp,
		wbp:       wbp,
		reg:       reg,
		symValues: map[plan.SymbolId]rhg.ValueId{},
		values:    make([]rhg.ValueId, len(lp.Values)),
	}
	b.declarePortsAndSignals()
	b.materializeExprValues()
	b.materializeWriteBack()
	b.materializeMemoryWritePorts()
	b.materializeMemoryInits()
	b.materializeRegisterInits()
	b.materializeInstances()

	reg.Register(key, name)
	nl.Publish(g, isTop)
	return g
}

// graphBaseName derives a graph's candidate name from its module name
// and the canonical parameter-signature string the planner already
// computed: plain module name when there are no
// parameters, "module$PARAM1VAL1_PARAM2VAL2..." otherwise: the
// signature's "," separators become "_", and "=" and spaces are dropped.
func graphBaseName(moduleName, paramSignature string) string {
	if paramSignature == "" {
		return moduleName
	}
	r := strings.NewReplacer(",", "_", "=", "", " ", "")
	return moduleName + "$" + r.Replace(paramSignature)
}

// uniqueName returns base if it is not already a published graph name,
// otherwise appends a monotonically increasing suffix until it finds
// one that is free.
func (a *GraphAssembler) uniqueName(nl *rhg.Netlist, base string) string {
	name := base
	for {
		if _, exists := nl.FindGraph(name); !exists {
			return name
		}
		name = fmt.Sprintf("%s$%d", base, a.nextAnon())
	}
}

func (a *GraphAssembler) nextAnon() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return a.next
}
