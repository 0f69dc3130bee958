// Package fixture builds hdlast.Root values from a compact YAML
// description of an already-elaborated module hierarchy. No SystemVerilog
// front end ships in this module (elaboration is out of scope), so this
// package plays the front end's role for tests and the demo CLI: it is
// the only place a YAML dependency appears in the ingest core's
// dependency graph, the same boundary core/program.go draws around
// its own config loading with gopkg.in/yaml.v3.
package fixture

import (
	"github.com/sarchlab/rhgforge/hdlast"
	"github.com/sarchlab/rhgforge/rhg"
)

// definition is the one concrete hdlast.Definition implementation this
// package produces. Two instances sharing the same *definition pointer
// are, by construction, instances of the same named module — exactly
// the identity plan.Key needs for lowering-cache dedup.
type definition struct {
	name      string
	blackbox  bool
	body      *body
}

func (d *definition) Identity() any   { return d }
func (d *definition) Name() string    { return d.name }
func (d *definition) IsBlackbox() bool { return d.blackbox }

// instance is the one concrete hdlast.Instance implementation.
type instance struct {
	name       string
	def        *definition
	parameters []hdlast.ParamBinding
}

func (i *instance) Name() string                     { return i.name }
func (i *instance) Definition() hdlast.Definition     { return i.def }
func (i *instance) Body() hdlast.Body                 { return i.def.body }
func (i *instance) Parameters() []hdlast.ParamBinding { return i.parameters }

// body is the one concrete hdlast.Body implementation. A definition's
// body is shared verbatim across every instance of that definition —
// this fixture builder does not re-elaborate per-instance geometry from
// parameter bindings, only a real front end would.
type body struct {
	ports     []hdlast.PortDecl
	signals   []hdlast.SignalDecl
	children  []hdlast.Instance
	stmts     []hdlast.Stmt
	continuous []hdlast.ContinuousAssign
}

func (b *body) Ports() []hdlast.PortDecl                    { return b.ports }
func (b *body) Signals() []hdlast.SignalDecl                { return b.signals }
func (b *body) ChildInstances() []hdlast.Instance            { return b.children }
func (b *body) Statements() []hdlast.Stmt                     { return b.stmts }
func (b *body) ContinuousAssigns() []hdlast.ContinuousAssign { return b.continuous }

// root is the one concrete hdlast.Root implementation.
type root struct {
	top []hdlast.Instance
}

func (r *root) TopInstances() []hdlast.Instance { return r.top }

// noLocator is an hdlast.SourceLocator that never resolves a location.
// Fixture documents carry no source-position information, so the demo
// CLI and tests wire this in rather than leaving the locator nil.
type noLocator struct{}

func (noLocator) Locate(node any) (rhg.SourceLoc, bool) { return rhg.SourceLoc{}, false }

// NoLocator returns the shared no-op SourceLocator for fixture-built
// roots.
func NoLocator() hdlast.SourceLocator { return noLocator{} }
