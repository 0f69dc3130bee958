package assemble

import (
	"sync"

	"github.com/sarchlab/rhgforge/plan"
)

// InstanceRegistry maps a plan.Key to the graph name its assembler run
// settled on, so a parent's kInstance op can reference an
// already-published child graph by name without re-deriving the
// disambiguated name itself. The convert driver (outside this
// package) is responsible for ensuring a child is assembled, and its
// entry registered here, before any parent referencing it is
// assembled — this registry only stores the mapping, it does not wait
// on it.
type InstanceRegistry struct {
	mu    sync.Mutex
	names map[plan.Key]string
}

// NewInstanceRegistry creates an empty registry.
func NewInstanceRegistry() *InstanceRegistry {
	return &InstanceRegistry{names: map[plan.Key]string{}}
}

// Register records the graph name assigned to key.
func (r *InstanceRegistry) Register(key plan.Key, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[key] = name
}

// Lookup returns the graph name previously registered for key, if any.
func (r *InstanceRegistry) Lookup(key plan.Key) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.names[key]
	return name, ok
}
