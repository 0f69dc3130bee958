package plan

import "github.com/sarchlab/rhgforge/rhg"

// ExprNodeId indexes into LoweringPlan.Values.
type ExprNodeId uint32

const InvalidExprNodeId ExprNodeId = ^ExprNodeId(0)

func (id ExprNodeId) Valid() bool { return id != InvalidExprNodeId }

// ExprNode is one pre-SSA expression-tree node produced by the
// Statement Lowerer: a tagged union over a literal constant, a bare
// symbol reference, a hierarchical read, or an operation applied to
// already-lowered operands.
type ExprNode struct {
	Kind ExprNodeKind
	Op   rhg.OperationKind // meaningful only when Kind == ExprOpNode

	Symbol     SymbolId // meaningful when Kind == ExprSymbolRef
	TempSymbol SymbolId // compiler-generated name for this node, if any

	Literal    string // meaningful when Kind == ExprConstant
	SystemName string // system-call name, when this node models one
	XmrPath    string // dotted hierarchical path, when Kind == ExprXmrRead

	Operands []ExprNodeId

	WidthHint      int
	IsSigned       bool
	ValueType      rhg.ValueType
	HasSideEffects bool

	Location rhg.SourceLoc
}

// WriteSlice is one link of a (possibly multi-level) partial-write
// slice chain: a bit-select, a static or indexed-up/-down range
// select, or a member select.
type WriteSlice struct {
	Kind      WriteSliceKind
	RangeKind WriteRangeKind
	Index     ExprNodeId
	Left      ExprNodeId
	Right     ExprNodeId
	Member    SymbolId
	Location  rhg.SourceLoc
}

// WriteIntent is one ordered procedural or continuous-assignment
// write, guarded by the conjunction of enclosing conditionals live at
// its textual position.
type WriteIntent struct {
	Target            SymbolId
	Slices            []WriteSlice
	Value             ExprNodeId
	Guard             ExprNodeId
	Domain            ControlDomain
	IsNonBlocking     bool
	CoversAllTwoState bool
	IsXmr             bool
	XmrPath           string
	Location          rhg.SourceLoc
}

// SystemTaskStmt is a lowered system-task call (anything other than a
// DPI import), e.g. $display, $finish, $readmemh.
type SystemTaskStmt struct {
	Name string
	Args []ExprNodeId
}

// DpiCallStmt is a lowered call into a DPI-imported function used in
// statement position.
type DpiCallStmt struct {
	TargetImportSymbol string
	InArgNames         []string
	OutArgNames        []string
	InArgs             []ExprNodeId
	Results            []SymbolId
	HasReturn          bool
}

// DpiImportInfo records the signature of one DPI import encountered
// while lowering, so the assembler can emit a single kDpiCall
// declaration shared by every call site.
type DpiImportInfo struct {
	Symbol        string
	ArgsDirection []string
	ArgsWidth     []int64
	ArgsName      []string
	ArgsSigned    []bool
	ArgsType      []string
	HasReturn     bool
	ReturnWidth   int64
	ReturnSigned  bool
	ReturnType    string
}

// LoweredStmt is one flattened, ordered procedural statement: a write,
// a system-task call, or a DPI call, carrying its guard and sampling
// timing.
type LoweredStmt struct {
	Kind LoweredStmtKind
	Op   rhg.OperationKind

	UpdateCond ExprNodeId
	ProcKind   ProcKind

	HasTiming     bool
	EventEdges    []EventEdge
	EventOperands []ExprNodeId

	Location rhg.SourceLoc

	Write      WriteIntent
	SystemTask SystemTaskStmt
	DpiCall    DpiCallStmt
}
