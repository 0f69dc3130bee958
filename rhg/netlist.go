package rhg

import (
	"fmt"
	"sync"
)

// Netlist is an insertion-ordered mapping from graph symbol to Graph, plus a
// netlist-scope declared-symbols set and the ordered list of top graph
// names. Netlist enumeration order is explicitly insertion order, so
// graphs are published under a lock that also appends to the order
// slice atomically with the map insert: a graph is published either
// fully wired or not at all.
type Netlist struct {
	mu sync.Mutex

	symbols *SymbolTable

	graphs     map[SymbolId]*Graph
	graphOrder []SymbolId

	topGraphs []SymbolId

	declared map[SymbolId]struct{}
}

// NewNetlist creates an empty netlist with its own graph-name symbol table.
func NewNetlist() *Netlist {
	return &Netlist{
		symbols:  NewSymbolTable(),
		graphs:   map[SymbolId]*Graph{},
		declared: map[SymbolId]struct{}{},
	}
}

// Symbols returns the netlist-scope symbol table (graph names are interned
// here, shared across the whole design).
func (n *Netlist) Symbols() *SymbolTable { return n.symbols }

// DeclareSymbol marks sym as a user-visible declared identifier at netlist
// scope.
func (n *Netlist) DeclareSymbol(sym SymbolId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.declared[sym] = struct{}{}
}

// DeclaredSymbols returns the netlist-scope declared-symbols set.
func (n *Netlist) DeclaredSymbols() map[SymbolId]struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[SymbolId]struct{}, len(n.declared))
	for k := range n.declared {
		out[k] = struct{}{}
	}
	return out
}

// Publish inserts g under its own Symbol(), appending to graph order and
// marking it a top graph if isTop is set. Publishing the same symbol twice
// is a programming error: each PlanKey maps to exactly one graph.
func (n *Netlist) Publish(g *Graph, isTop bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.graphs[g.symbol]; exists {
		panic(fmt.Sprintf("rhg: graph %q already published", n.symbols.Text(g.symbol)))
	}
	n.graphs[g.symbol] = g
	n.graphOrder = append(n.graphOrder, g.symbol)
	if isTop {
		n.topGraphs = append(n.topGraphs, g.symbol)
	}
}

// Graphs returns every published graph, symbol to Graph. Callers that need
// a stable order should use GraphOrder.
func (n *Netlist) Graphs() map[SymbolId]*Graph {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make(map[SymbolId]*Graph, len(n.graphs))
	for k, v := range n.graphs {
		out[k] = v
	}
	return out
}

// GraphOrder returns graph-name symbols in publish order.
func (n *Netlist) GraphOrder() []SymbolId {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SymbolId, len(n.graphOrder))
	copy(out, n.graphOrder)
	return out
}

// FindGraph looks a graph up by its textual name.
func (n *Netlist) FindGraph(name string) (*Graph, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id, ok := n.symbols.Lookup(name)
	if !ok {
		return nil, false
	}
	g, ok := n.graphs[id]
	return g, ok
}

// TopGraphs returns the textual names of the declared top graphs, in the
// order they were published.
func (n *Netlist) TopGraphs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.topGraphs))
	for i, id := range n.topGraphs {
		out[i] = n.symbols.Text(id)
	}
	return out
}
