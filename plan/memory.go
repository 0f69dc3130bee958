package plan

import "github.com/sarchlab/rhgforge/rhg"

// SignalId indexes into ModulePlan.Signals.
type SignalId uint32

const InvalidSignalId SignalId = ^SignalId(0)

// MemoryReadPort is one memory read port lifted during lowering: an
// indexed read on a signal declared as memory.
type MemoryReadPort struct {
	Memory SymbolId
	Signal SignalId

	Address ExprNodeId
	Data    ExprNodeId

	IsSync     bool
	UpdateCond ExprNodeId

	EventEdges    []EventEdge
	EventOperands []ExprNodeId

	Location rhg.SourceLoc
}

// MemoryWritePort is one memory write port, with an optional
// mask expression for a partial (masked) row write.
type MemoryWritePort struct {
	Memory SymbolId
	Signal SignalId

	Address ExprNodeId
	Data    ExprNodeId
	Mask    ExprNodeId

	UpdateCond ExprNodeId
	IsMasked   bool

	EventEdges    []EventEdge
	EventOperands []ExprNodeId

	Location rhg.SourceLoc
}

// MemoryInit captures one $readmemh/$readmemb call or literal
// initializer targeting a memory signal.
type MemoryInit struct {
	Memory SymbolId

	Kind      string // "readmemh" | "readmemb" | "literal"
	File      string // set for readmemh/readmemb
	InitValue string // set for literal: "0", "8'hAB", "$random", "$random(12345)"

	Start int64 // <0 means no address range was given
	Len   int64 // <=0 means unbounded, ignored when Start < 0

	Location rhg.SourceLoc
}

// RegisterInit captures one initial-value assignment to a register
// signal, preserved verbatim when the value is a $random call (open
// question: $random seeding is never evaluated, only recorded as text).
type RegisterInit struct {
	Register  SymbolId
	InitValue string
	Location  rhg.SourceLoc
}

// LoweringPlan is everything the Statement Lowerer produces for one
// module: the flat expression-node table, every write intent and
// flattened statement, and the memory/register side-tables the
// assembler needs to materialize storage operations.
type LoweringPlan struct {
	Values       []ExprNode
	TempSymbols  []SymbolId
	Writes       []WriteIntent
	LoweredStmts []LoweredStmt

	DpiImports []DpiImportInfo

	MemoryReads   []MemoryReadPort
	MemoryWrites  []MemoryWritePort
	MemoryInits   []MemoryInit
	RegisterInits []RegisterInit
}

// WriteBackEntry is one resolved target signal: its domain, the
// event/update-condition it samples on, the priority-merged next-value
// expression, and (when the target signal only received a single
// static partial write) the static slice it narrows to.
type WriteBackEntry struct {
	Target SymbolId
	Signal SignalId
	Domain ControlDomain

	UpdateCond ExprNodeId
	NextValue  ExprNodeId

	HasStaticSlice bool
	SliceLow       int64
	SliceWidth     int64

	EventEdges    []EventEdge
	EventOperands []ExprNodeId

	Location rhg.SourceLoc
}

// WriteBackPlan is the resolved, per-target output of the Write-Back
// Resolver, ready for the Graph Assembler to materialize.
type WriteBackPlan struct {
	Entries []WriteBackEntry
}

// PlanArtifacts holds the derived per-key artifacts the PlanCache
// stores once the corresponding pass has completed: nil until set.
type PlanArtifacts struct {
	LoweringPlan  *LoweringPlan
	WriteBackPlan *WriteBackPlan
}
