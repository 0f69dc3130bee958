package rhg

// ValueType is the closed set of scalar/event value categories the RHG
// expresses.
type ValueType int

const (
	Logic ValueType = iota
	Bit
	Integer
	Real
	String
	Event
	Time
)

func (t ValueType) String() string {
	switch t {
	case Logic:
		return "Logic"
	case Bit:
		return "Bit"
	case Integer:
		return "Integer"
	case Real:
		return "Real"
	case String:
		return "String"
	case Event:
		return "Event"
	case Time:
		return "Time"
	default:
		return "Unknown"
	}
}

// UserRef is a back-reference from a Value to one (operation, operand-index)
// pair that reads it. The users list on Value is a derived index: it must
// always equal exactly the set of (op, i) pairs such that
// op.Operands[i] == this value's id.
type UserRef struct {
	Op       OperationId
	Operand int
}

// Value is a typed, single-definition SSA-like node: every value except
// input-port values and certain storage declarations is produced by exactly
// one operation (invariant 3).
type Value struct {
	id          ValueId
	Symbol      SymbolId
	Width       int
	IsSigned    bool
	Type        ValueType
	DefiningOp  OperationId // InvalidOperationId if this value has no producer
	Users       []UserRef
	SrcLoc      *SourceLoc
}

// ID returns this value's identity within its owning graph.
func (v *Value) ID() ValueId { return v.id }

// HasDefiningOp reports whether a producing operation is recorded.
func (v *Value) HasDefiningOp() bool { return v.DefiningOp.Valid() }

// SourceLoc is the (file, line, column, endLine, endColumn) tuple the
// front end's source-location service yields, attached where derivable.
type SourceLoc struct {
	File               string
	Line, Column       int
	EndLine, EndColumn int
}
