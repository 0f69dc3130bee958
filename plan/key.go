package plan

// Key identifies one (definition, parameter-signature) pair for
// lowering-cache dedup: two instances of the same module with the same
// resolved parameter signature share exactly one ModulePlan/LoweringPlan/
// WriteBackPlan. DefinitionIdentity is whatever comparable value
// hdlast.Definition.Identity() returns for the instance's definition —
// Key is itself comparable, so it can be used directly as a Go map key
// with no separate hash function.
type Key struct {
	DefinitionIdentity any
	ParamSignature     string
}

// Entry is one PlanCache slot: its lifecycle status, the ModulePlan
// once planning completes, and whatever lowering/write-back artifacts
// have been derived from it so far.
type Entry struct {
	Status    PlanStatus
	Plan      *ModulePlan
	Artifacts PlanArtifacts
}
