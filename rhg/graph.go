package rhg

import "fmt"

// Graph owns one module's value/operation arenas, its local symbol table,
// port surfaces, and the set of user-visible declared symbols the optimizer
// must not drop by default. A Graph is assembled exclusively by one worker
// until it is published into a Netlist.
type Graph struct {
	symbol SymbolId // this graph's name, unique within the owning Netlist

	symbols *SymbolTable

	values     []Value
	operations []Operation

	InputPorts  []Port
	OutputPorts []Port
	InoutPorts  []InoutPort

	declared map[SymbolId]struct{}
}

// NewGraph creates an empty graph named sym.
func NewGraph(sym SymbolId) *Graph {
	return &Graph{
		symbol:   sym,
		symbols:  NewSymbolTable(),
		declared: map[SymbolId]struct{}{},
	}
}

// Symbol returns this graph's own name within its Netlist.
func (g *Graph) Symbol() SymbolId { return g.symbol }

// Symbols returns the graph-local symbol table (for local identifiers, as
// distinct from the Netlist's graph-name symbol table).
func (g *Graph) Symbols() *SymbolTable { return g.symbols }

// DeclareSymbol marks sym as a user-visible declared identifier.
func (g *Graph) DeclareSymbol(sym SymbolId) { g.declared[sym] = struct{}{} }

// DeclaredSymbols returns the set of declared symbols in this graph.
func (g *Graph) DeclaredSymbols() map[SymbolId]struct{} { return g.declared }

// NewValue allocates a fresh value with no defining operation (suitable for
// port inputs and storage declarations, which are never "produced" by an
// operation in the usual sense).
func (g *Graph) NewValue(symbol SymbolId, width int, isSigned bool, vt ValueType, loc *SourceLoc) ValueId {
	id := ValueId(len(g.values) + 1) // 0 is InvalidValueId
	g.values = append(g.values, Value{
		id:         id,
		Symbol:     symbol,
		Width:      width,
		IsSigned:   isSigned,
		Type:       vt,
		DefiningOp: InvalidOperationId,
		SrcLoc:     loc,
	})
	return id
}

// NewOperation allocates a fresh operation with empty operand/result lists.
func (g *Graph) NewOperation(symbol SymbolId, kind OperationKind, loc *SourceLoc) OperationId {
	id := OperationId(len(g.operations) + 1) // 0 is InvalidOperationId
	g.operations = append(g.operations, Operation{
		id:     id,
		Symbol: symbol,
		Kind:   kind,
		SrcLoc: loc,
	})
	return id
}

// AddOperand appends v as the next operand of op and records the
// corresponding back-reference on v.Users, keeping invariant 2 in lock-step.
func (g *Graph) AddOperand(op OperationId, v ValueId) {
	o := g.mustOperation(op)
	idx := len(o.Operands)
	o.Operands = append(o.Operands, v)
	val := g.mustValue(v)
	val.Users = append(val.Users, UserRef{Op: op, Operand: idx})
}

// AddResult appends v as the next result of op and marks op as v's defining
// operation. Panics if v already has a defining operation (invariant 3: a
// value is produced by at most one operation).
func (g *Graph) AddResult(op OperationId, v ValueId) {
	val := g.mustValue(v)
	if val.DefiningOp.Valid() {
		panic(fmt.Sprintf("rhg: value %d already has a defining operation", v))
	}
	val.DefiningOp = op
	o := g.mustOperation(op)
	o.Results = append(o.Results, v)
}

// NewResultValue allocates a value and immediately wires it as the next
// result of op — the common case for expression lowering.
func (g *Graph) NewResultValue(op OperationId, symbol SymbolId, width int, isSigned bool, vt ValueType, loc *SourceLoc) ValueId {
	v := g.NewValue(symbol, width, isSigned, vt, loc)
	g.AddResult(op, v)
	return v
}

// GetValue returns a pointer to the value with the given id. Panics if the
// id is out of range for this graph, matching the "only valid within the
// owning graph" contract.
func (g *Graph) GetValue(id ValueId) *Value { return g.mustValue(id) }

// GetOperation returns a pointer to the operation with the given id.
func (g *Graph) GetOperation(id OperationId) *Operation { return g.mustOperation(id) }

// Values returns every allocated ValueId in allocation order.
func (g *Graph) Values() []ValueId {
	ids := make([]ValueId, len(g.values))
	for i := range g.values {
		ids[i] = ValueId(i + 1)
	}
	return ids
}

// Operations returns every allocated OperationId in allocation order.
func (g *Graph) Operations() []OperationId {
	ids := make([]OperationId, len(g.operations))
	for i := range g.operations {
		ids[i] = OperationId(i + 1)
	}
	return ids
}

func (g *Graph) mustValue(id ValueId) *Value {
	if id == InvalidValueId || int(id) > len(g.values) {
		panic(fmt.Sprintf("rhg: value id %d invalid for this graph", id))
	}
	return &g.values[id-1]
}

func (g *Graph) mustOperation(id OperationId) *Operation {
	if id == InvalidOperationId || int(id) > len(g.operations) {
		panic(fmt.Sprintf("rhg: operation id %d invalid for this graph", id))
	}
	return &g.operations[id-1]
}

// CheckInvariants validates this graph's core structural invariants against its
// current contents: every operand/result resolves to a live value, the
// users index matches the operand back-references exactly, and each value
// has at most one defining operation. It is intended for tests, not for use
// on the hot path.
func (g *Graph) CheckInvariants() error {
	expectedUsers := map[ValueId][]UserRef{}
	for i := range g.operations {
		op := &g.operations[i]
		for operandIdx, v := range op.Operands {
			if v == InvalidValueId || int(v) > len(g.values) {
				return fmt.Errorf("operation %d operand %d refers to invalid value %d", op.id, operandIdx, v)
			}
			expectedUsers[v] = append(expectedUsers[v], UserRef{Op: op.id, Operand: operandIdx})
		}
		for _, v := range op.Results {
			if v == InvalidValueId || int(v) > len(g.values) {
				return fmt.Errorf("operation %d result refers to invalid value %d", op.id, v)
			}
		}
	}

	seenDefiner := map[ValueId]OperationId{}
	for i := range g.operations {
		op := &g.operations[i]
		for _, v := range op.Results {
			if prior, ok := seenDefiner[v]; ok {
				return fmt.Errorf("value %d produced by both operation %d and %d", v, prior, op.id)
			}
			seenDefiner[v] = op.id
		}
	}

	for i := range g.values {
		id := ValueId(i + 1)
		want := expectedUsers[id]
		got := g.values[i].Users
		if len(want) != len(got) {
			return fmt.Errorf("value %d users mismatch: want %v got %v", id, want, got)
		}
		for j := range want {
			if want[j] != got[j] {
				return fmt.Errorf("value %d users mismatch at %d: want %v got %v", id, j, want[j], got[j])
			}
		}
	}
	return nil
}
