// Package rhg implements the Register-Hardware Graph: the language-neutral,
// arena-indexed intermediate representation the ingest pipeline produces.
package rhg

import "fmt"

// SymbolId is a stable handle to an interned string. A scope (a Netlist or a
// Graph) owns its own symbol table; symbols are never renumbered after
// interning and are never freed.
type SymbolId uint32

// InvalidSymbolId marks an empty/unset symbol.
const InvalidSymbolId SymbolId = 0

// Valid reports whether the symbol was actually interned.
func (s SymbolId) Valid() bool { return s != InvalidSymbolId }

// ValueId is a dense index into a Graph's value arena. It is only valid
// within the graph that produced it.
type ValueId uint32

// InvalidValueId marks the absence of a value (e.g. no defining op).
const InvalidValueId ValueId = 0

// Valid reports whether the id refers to an allocated value.
func (v ValueId) Valid() bool { return v != InvalidValueId }

// OperationId is a dense index into a Graph's operation arena. It is only
// valid within the graph that produced it.
type OperationId uint32

// InvalidOperationId marks the absence of an operation.
const InvalidOperationId OperationId = 0

// Valid reports whether the id refers to an allocated operation.
func (o OperationId) Valid() bool { return o != InvalidOperationId }

// SymbolTable interns strings into dense SymbolIds. It never removes or
// renumbers an entry once assigned, matching the append-only symbol
// discipline the graph arenas rely on.
type SymbolTable struct {
	names  []string // index 0 is the InvalidSymbolId sentinel, always ""
	lookup map[string]SymbolId
}

// NewSymbolTable creates an empty table with the invalid-symbol sentinel
// already reserved at index 0.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		names:  []string{""},
		lookup: map[string]SymbolId{},
	}
}

// Intern returns the SymbolId for text, assigning a new one if this is the
// first time text has been seen. Interning the empty string is a
// programming error: empty symbols are invalid per the data-model contract.
func (t *SymbolTable) Intern(text string) SymbolId {
	if text == "" {
		panic("rhg: cannot intern an empty symbol")
	}
	if id, ok := t.lookup[text]; ok {
		return id
	}
	id := SymbolId(len(t.names))
	t.names = append(t.names, text)
	t.lookup[text] = id
	return id
}

// Lookup returns the SymbolId already assigned to text, if any.
func (t *SymbolTable) Lookup(text string) (SymbolId, bool) {
	id, ok := t.lookup[text]
	return id, ok
}

// Text returns the interned string for id.
func (t *SymbolTable) Text(id SymbolId) string {
	if int(id) >= len(t.names) {
		panic(fmt.Sprintf("rhg: symbol id %d out of range", id))
	}
	return t.names[id]
}

// Len returns the number of distinct symbols interned (excluding the
// invalid-symbol sentinel).
func (t *SymbolTable) Len() int { return len(t.names) - 1 }
