// Package hdlast is the read-only contract the ingest core consumes: an
// already-elaborated module hierarchy handed in by an external front end.
// Nothing in this module parses source text or produces these values from
// scratch — hdlast only declares the shape a front end must hand over, plus
// (in hdlast/fixture) a YAML-driven builder that plays the front end's role
// for tests and the demo CLI.
package hdlast

import "github.com/sarchlab/rhgforge/rhg"

// Root is the entry point into one elaborated design: the set of
// instances with no parent in the hierarchy.
type Root interface {
	TopInstances() []Instance
}

// Instance is one place in the hierarchy where a Definition is
// instantiated, with its own parameter bindings.
type Instance interface {
	Name() string
	Definition() Definition
	Body() Body
	Parameters() []ParamBinding
}

// Definition identifies a module/interface definition independent of
// where it is instantiated. Identity is the non-signature half of a
// plan key: two instances of the same Definition with the same resolved
// parameter signature share one lowering.
type Definition interface {
	Identity() any
	Name() string
	IsBlackbox() bool
}

// Body is the elaborated contents of one instantiated definition: its
// ports, its own signals, its child instances, and its behavior as a
// flat list of top-level statements plus continuous assigns.
type Body interface {
	Ports() []PortDecl
	Signals() []SignalDecl
	ChildInstances() []Instance
	Statements() []Stmt
	ContinuousAssigns() []ContinuousAssign
}

// SourceLocator resolves an opaque AST node back to a source location,
// for diagnostics. A front end that cannot track locations may return
// ok=false for every node.
type SourceLocator interface {
	Locate(node any) (rhg.SourceLoc, bool)
}

// ParamBinding is one resolved parameter=value pair contributing to an
// instance's parameter signature.
type ParamBinding struct {
	Name  string
	Value string
}

// PortDecl describes one port of a Body.
type PortDecl struct {
	Name      string
	Direction rhg.PortDirection
	Width     int
	IsSigned  bool
	Type      rhg.ValueType
}

// SignalKind discriminates the storage class of a SignalDecl.
// "Register" is deliberately not a case here: whether a variable ends
// up a register is a write-back-time inference, not a
// declaration-time fact a front end hands over.
type SignalKind int

const (
	SignalNet SignalKind = iota
	SignalVariable
	SignalMemory
)

func (k SignalKind) String() string {
	switch k {
	case SignalNet:
		return "Net"
	case SignalVariable:
		return "Variable"
	case SignalMemory:
		return "Memory"
	default:
		return "Unknown"
	}
}

// SignalDecl describes one signal (net, variable, or memory) declared
// directly in a Body.
type SignalDecl struct {
	Name       string
	Kind       SignalKind
	Width      int
	IsSigned   bool
	Type       rhg.ValueType
	MemoryRows int64 // >0 only when Kind == SignalMemory
}

// ContinuousAssign is a `assign lhs = rhs;` statement, modeled
// separately from procedural statements because it never carries a
// guard, event control, or blocking/non-blocking distinction.
type ContinuousAssign struct {
	Target Expr
	Value  Expr
}
