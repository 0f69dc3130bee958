package rhg

// PortDirection classifies a Graph-level port.
type PortDirection int

const (
	DirInput PortDirection = iota
	DirOutput
	DirInout
)

// Port is a named surface value on a Graph.
type Port struct {
	Name      SymbolId
	Value     ValueId
	Direction PortDirection
}

// InoutPort is the split-phase surrogate the ingest core uses to represent a
// bidirectional pin as pure data-flow: an input-side read (In), an
// output-side drive (Out), and an output-enable (Oe).
type InoutPort struct {
	Name SymbolId
	In   ValueId
	Out  ValueId
	Oe   ValueId
}
