package fixture

import (
	"fmt"

	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/rhg"
	"gopkg.in/yaml.v3"
)

// Build parses a YAML fixture document and returns the elaborated
// hdlast.Root it describes. Every module named under "modules" is built
// exactly once; instances under "top" and under each module's own
// "instances" list reference those shared definitions by name.
func Build(data []byte) (hdlast.Root, error) {
	var cfg configYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("fixture: parse: %w", err)
	}

	b := &builder{
		cfg:  cfg,
		defs: make(map[string]*definition, len(cfg.Modules)),
	}
	for name := range cfg.Modules {
		if _, err := b.definitionFor(name); err != nil {
			return nil, err
		}
	}

	top := make([]hdlast.Instance, 0, len(cfg.Top))
	for _, ref := range cfg.Top {
		inst, err := b.buildInstance(ref)
		if err != nil {
			return nil, err
		}
		top = append(top, inst)
	}
	return &root{top: top}, nil
}

type builder struct {
	cfg  configYAML
	defs map[string]*definition
}

// definitionFor builds (memoized) the *definition for a named module,
// resolving its body — including child instances, which may reference
// other modules not yet built — lazily on first request.
func (b *builder) definitionFor(name string) (*definition, error) {
	if d, ok := b.defs[name]; ok {
		return d, nil
	}
	spec, ok := b.cfg.Modules[name]
	if !ok {
		return nil, fmt.Errorf("fixture: undefined module %q", name)
	}
	d := &definition{name: name, blackbox: spec.Blackbox}
	b.defs[name] = d // register before recursing, so self/mutual references terminate

	bd, err := b.buildBody(spec)
	if err != nil {
		return nil, fmt.Errorf("fixture: module %q: %w", name, err)
	}
	d.body = bd
	return d, nil
}

func (b *builder) buildBody(spec moduleYAML) (*body, error) {
	bd := &body{}

	for _, p := range spec.Ports {
		dir, err := parseDirection(p.Direction)
		if err != nil {
			return nil, err
		}
		typ, err := parseValueType(p.Type)
		if err != nil {
			return nil, err
		}
		bd.ports = append(bd.ports, hdlast.PortDecl{
			Name: p.Name, Direction: dir, Width: p.Width, IsSigned: p.Signed, Type: typ,
		})
	}

	for _, s := range spec.Signals {
		kind, err := parseSignalKind(s.Kind)
		if err != nil {
			return nil, err
		}
		typ, err := parseValueType(s.Type)
		if err != nil {
			return nil, err
		}
		bd.signals = append(bd.signals, hdlast.SignalDecl{
			Name: s.Name, Kind: kind, Width: s.Width, IsSigned: s.Signed, Type: typ, MemoryRows: s.Rows,
		})
	}

	for _, ref := range spec.Instances {
		inst, err := b.buildInstance(ref)
		if err != nil {
			return nil, err
		}
		bd.children = append(bd.children, inst)
	}

	for _, a := range spec.Assigns {
		target, err := convertExpr(a.Target)
		if err != nil {
			return nil, err
		}
		value, err := convertExpr(a.Value)
		if err != nil {
			return nil, err
		}
		bd.continuous = append(bd.continuous, hdlast.ContinuousAssign{Target: target, Value: value})
	}

	for _, s := range spec.Statements {
		stmt, err := convertStmt(&s)
		if err != nil {
			return nil, err
		}
		bd.stmts = append(bd.stmts, stmt)
	}

	return bd, nil
}

func (b *builder) buildInstance(ref instanceRefYAML) (*instance, error) {
	def, err := b.definitionFor(ref.Module)
	if err != nil {
		return nil, err
	}
	params := make([]hdlast.ParamBinding, 0, len(ref.Parameters))
	for _, p := range ref.Parameters {
		params = append(params, hdlast.ParamBinding{Name: p.Name, Value: p.Value})
	}
	return &instance{name: ref.Name, def: def, parameters: params}, nil
}

func parseDirection(s string) (rhg.PortDirection, error) {
	switch s {
	case "in":
		return rhg.DirInput, nil
	case "out":
		return rhg.DirOutput, nil
	case "inout":
		return rhg.DirInout, nil
	default:
		return 0, fmt.Errorf("fixture: unknown port direction %q", s)
	}
}

func parseSignalKind(s string) (hdlast.SignalKind, error) {
	switch s {
	case "net":
		return hdlast.SignalNet, nil
	case "variable", "register":
		// "register" is accepted as a writer-friendly synonym for
		// "variable" in fixture documents — registerness itself is
		// inferred at write-back time, never declared.
		return hdlast.SignalVariable, nil
	case "memory":
		return hdlast.SignalMemory, nil
	default:
		return 0, fmt.Errorf("fixture: unknown signal kind %q", s)
	}
}

func parseValueType(s string) (rhg.ValueType, error) {
	switch s {
	case "", "logic":
		return rhg.Logic, nil
	case "bit":
		return rhg.Bit, nil
	case "integer":
		return rhg.Integer, nil
	case "real":
		return rhg.Real, nil
	case "string":
		return rhg.String, nil
	case "event":
		return rhg.Event, nil
	case "time":
		return rhg.Time, nil
	default:
		return 0, fmt.Errorf("fixture: unknown value type %q", s)
	}
}
