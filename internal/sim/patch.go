package sim

import (
	"slices"

	"github.com/yja/firesim/internal/model"
)

// Patch carries exactly the fields one stage contributes to the state.
// Implementations are the *Patch types in this package.
type Patch interface {
	from() model.Step
	apply(*model.SimulationState)
}

// IntroPatch leaves the briefing; it contributes nothing.
type IntroPatch struct{}

func (IntroPatch) from() model.Step { return model.StepIntro }

func (IntroPatch) apply(*model.SimulationState) {}

// SituationPatch carries the selected facts in selection order.
type SituationPatch struct {
	Facts []string
}

func (SituationPatch) from() model.Step { return model.StepSituation }

func (p SituationPatch) apply(s *model.SimulationState) {
	s.CollectedFacts = slices.Clone(p.Facts)
}

// DefinitionPatch carries the gap analysis.
type DefinitionPatch struct {
	Gap model.GapAnalysis
}

func (DefinitionPatch) from() model.Step { return model.StepDefinition }

func (p DefinitionPatch) apply(s *model.SimulationState) {
	s.Gap = p.Gap
}

// AnalysisPatch carries the final device configuration and root-cause picks.
type AnalysisPatch struct {
	Devices    []model.PowerDevice
	RootCauses model.RootCauses
}

func (AnalysisPatch) from() model.Step { return model.StepAnalysis }

func (p AnalysisPatch) apply(s *model.SimulationState) {
	s.Power = slices.Clone(p.Devices)
	s.RootCauses = p.RootCauses
}

// SolutionPatch carries the action plan.
type SolutionPatch struct {
	Solutions model.Solutions
}

func (SolutionPatch) from() model.Step { return model.StepSolution }

func (p SolutionPatch) apply(s *model.SimulationState) {
	s.Solutions = p.Solutions
}
