package plan

import (
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/rhg"
)

// InoutBinding names the three underlying signals an inout port
// desugars into: an input half, an output half, and an output-enable.
type InoutBinding struct {
	InSymbol  SymbolId
	OutSymbol SymbolId
	OeSymbol  SymbolId
}

// PortInfo describes one port of the module being planned. Inout is
// non-nil only for PortDirection == rhg.DirInout.
type PortInfo struct {
	Symbol    SymbolId
	Direction rhg.PortDirection
	Width     int
	IsSigned  bool
	ValueType rhg.ValueType
	Inout     *InoutBinding
}

// InoutSignalInfo records one inout binding keyed by the port's own
// symbol, built alongside PortInfo.Inout so the lowerer can look a
// binding up by the in/out/oe symbol as well as by the port symbol.
type InoutSignalInfo struct {
	Symbol  SymbolId
	Binding InoutBinding
}

// UnpackedDimInfo is one unpacked-array dimension of a signal
// declaration.
type UnpackedDimInfo struct {
	Extent int
	Left   int
	Right  int
}

// SignalInfo describes one signal declared directly in the module
// being planned (net, variable, memory, or a port alias).
type SignalInfo struct {
	Symbol       SymbolId
	Kind         SignalKind
	Width        int
	IsSigned     bool
	ValueType    rhg.ValueType
	MemoryRows   int64
	PackedDims   []int
	UnpackedDims []UnpackedDimInfo
}

// InstanceParameter is one resolved parameter binding of a child
// instance.
type InstanceParameter struct {
	Symbol SymbolId
	Value  string
}

// InstanceInfo describes one child instance recorded while planning
// the enclosing module.
type InstanceInfo struct {
	Instance       hdlast.Instance
	InstanceSymbol SymbolId
	ModuleSymbol   SymbolId
	IsBlackbox     bool
	Parameters     []InstanceParameter
	ParamSignature string
}

// ModulePlan is everything the Module Planner records about one
// elaborated module body before lowering begins.
type ModulePlan struct {
	Body              hdlast.Body
	SymbolTable       *SymbolTable
	ModuleSymbol      SymbolId
	NextInternalSymbol uint32
	Ports             []PortInfo
	Signals           []SignalInfo
	Instances         []InstanceInfo
	InoutSignals      []InoutSignalInfo
}

// FindPortByName looks up a port by its own (non-inout-binding) name.
func FindPortByName(p *ModulePlan, name string) *PortInfo {
	id, ok := p.SymbolTable.Lookup(name)
	if !ok {
		return nil
	}
	for i := range p.Ports {
		if p.Ports[i].Symbol == id {
			return &p.Ports[i]
		}
	}
	return nil
}

// FindPortByInoutName looks up the owning port for any of an inout
// port's three desugared names (in/out/oe).
func FindPortByInoutName(p *ModulePlan, name string) *PortInfo {
	id, ok := p.SymbolTable.Lookup(name)
	if !ok {
		return nil
	}
	for i := range p.Ports {
		in := p.Ports[i].Inout
		if in == nil {
			continue
		}
		if in.InSymbol == id || in.OutSymbol == id || in.OeSymbol == id {
			return &p.Ports[i]
		}
	}
	return nil
}
