// Package stage holds the per-stage forms a student fills in and the static
// scenario content that goes with them.
package stage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/sim"
)

// DefaultMinFacts is the number of facts the SITUATION gate requires unless
// configured otherwise.
const DefaultMinFacts = 1

// Form produces the validated contribution of one stage.
type Form interface {
	Step() model.Step
	Validate() (sim.Patch, error)
}

// ValidationError reports an incomplete or invalid stage input. MessageID
// is a localisation key; Data holds its template values.
type ValidationError struct {
	Step      model.Step
	Field     string
	MessageID string
	Data      map[string]any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s (%s)", e.Step, e.Field, e.MessageID)
}

func invalid(step model.Step, field, msgID string) *ValidationError {
	return &ValidationError{Step: step, Field: field, MessageID: msgID}
}

// IntroForm acknowledges the briefing.
type IntroForm struct{}

func (IntroForm) Step() model.Step { return model.StepIntro }

func (IntroForm) Validate() (sim.Patch, error) { return sim.IntroPatch{}, nil }

// SituationForm is the fact/opinion multi-select.
type SituationForm struct {
	Selected []string
	MinFacts int
}

func (SituationForm) Step() model.Step { return model.StepSituation }

// Validate keeps the first occurrence of each statement in selection order.
func (f SituationForm) Validate() (sim.Patch, error) {
	facts := make([]string, 0, len(f.Selected))
	for _, s := range f.Selected {
		if !slices.Contains(FactPool, s) {
			return nil, invalid(model.StepSituation, "facts", "validation.facts_unknown")
		}
		if !slices.Contains(facts, s) {
			facts = append(facts, s)
		}
	}
	minFacts := f.MinFacts
	if minFacts < 1 {
		minFacts = DefaultMinFacts
	}
	if len(facts) < minFacts {
		err := invalid(model.StepSituation, "facts", "validation.facts_min")
		err.Data = map[string]any{"Count": minFacts}
		return nil, err
	}
	return sim.SituationPatch{Facts: facts}, nil
}

// DefinitionForm is the gap analysis.
type DefinitionForm struct {
	Current string
	Ideal   string
}

func (DefinitionForm) Step() model.Step { return model.StepDefinition }

func (f DefinitionForm) Validate() (sim.Patch, error) {
	current := strings.TrimSpace(f.Current)
	ideal := strings.TrimSpace(f.Ideal)
	if current == "" {
		return nil, invalid(model.StepDefinition, "current", "validation.required")
	}
	if ideal == "" {
		return nil, invalid(model.StepDefinition, "ideal", "validation.required")
	}
	return sim.DefinitionPatch{Gap: model.GapAnalysis{Current: current, Ideal: ideal}}, nil
}

// Option is one choice of a root-cause question.
type Option struct {
	Text    string
	Correct bool
}

// Question is a forced-choice root-cause question.
type Question struct {
	Field   string
	Title   string
	Hint    string
	Options []Option
}

// Has reports whether answer is one of the question's options.
func (q Question) Has(answer string) bool {
	return slices.ContainsFunc(q.Options, func(o Option) bool { return o.Text == answer })
}

// IsCorrect reports whether answer is the option flagged correct.
func (q Question) IsCorrect(answer string) bool {
	return slices.ContainsFunc(q.Options, func(o Option) bool { return o.Correct && o.Text == answer })
}

// EvacuationQuestion and SuppressionQuestion are the ANALYSIS root-cause picks.
var (
	EvacuationQuestion = Question{
		Field: "evacuation",
		Title: "인명피해는 왜 커졌는가?",
		Hint:  "박계장은 왜 제때 대피하지 못했는가?",
		Options: []Option{
			{Text: "대피 방송 시스템 고장"},
			{Text: "비상구 앞 자재 적재로 탈출 지연", Correct: true},
			{Text: "안전화 미착용으로 인한 부상"},
		},
	}
	SuppressionQuestion = Question{
		Field: "suppression",
		Title: "초기진압은 왜 실패했는가?",
		Hint:  "왜 작은 불이 큰 화재로 번졌는가?",
		Options: []Option{
			{Text: "소방차 진입로 부족"},
			{Text: "소화기 노후화로 인한 작동 불량", Correct: true},
			{Text: "스프링클러 오작동"},
		},
	}
)

// RootCauseQuestions lists the questions in display order.
var RootCauseQuestions = []Question{EvacuationQuestion, SuppressionQuestion}

// Score counts correctly answered root-cause questions. It is shown to the
// facilitator only and never gates progress.
func Score(rc model.RootCauses) int {
	n := 0
	if EvacuationQuestion.IsCorrect(rc.Evacuation) {
		n++
	}
	if SuppressionQuestion.IsCorrect(rc.Suppression) {
		n++
	}
	return n
}

// AnalysisForm is the power calculator plus the two root-cause picks.
type AnalysisForm struct {
	Devices     []model.PowerDevice
	Evacuation  string
	Suppression string
}

func (AnalysisForm) Step() model.Step { return model.StepAnalysis }

// Validate requires the overload to be reproduced, then both picks.
// Whether the picks are correct does not matter.
func (f AnalysisForm) Validate() (sim.Patch, error) {
	if !sim.Overloaded(f.Devices) {
		err := invalid(model.StepAnalysis, "devices", "validation.no_overload")
		err.Data = map[string]any{"Limit": sim.MaxPowerLimit}
		return nil, err
	}
	if !EvacuationQuestion.Has(f.Evacuation) {
		return nil, invalid(model.StepAnalysis, EvacuationQuestion.Field, "validation.select_cause")
	}
	if !SuppressionQuestion.Has(f.Suppression) {
		return nil, invalid(model.StepAnalysis, SuppressionQuestion.Field, "validation.select_cause")
	}
	return sim.AnalysisPatch{
		Devices: f.Devices,
		RootCauses: model.RootCauses{
			Evacuation:  f.Evacuation,
			Suppression: f.Suppression,
		},
	}, nil
}

// ToggleDevices returns devices with only the named ones active.
func ToggleDevices(devices []model.PowerDevice, active []string) []model.PowerDevice {
	out := slices.Clone(devices)
	for i := range out {
		out[i].Active = slices.Contains(active, out[i].Device)
	}
	return out
}

// SolutionForm is the action plan. Both fields are optional.
type SolutionForm struct {
	ShortTerm  string
	Prevention string
}

func (SolutionForm) Step() model.Step { return model.StepSolution }

func (f SolutionForm) Validate() (sim.Patch, error) {
	return sim.SolutionPatch{Solutions: model.Solutions{
		ShortTerm:  strings.TrimSpace(f.ShortTerm),
		Prevention: strings.TrimSpace(f.Prevention),
	}}, nil
}

// SolutionReference is the capacity hint shown beside the short-term plan.
const SolutionReference = "1공장(400) + 4공장(600) = 1,000 unit/day 생산 가능"

// ReportForm is the final document. It is not a Form: submitting it stores
// a report rather than advancing a stage.
type ReportForm struct {
	Title      string
	Members    string
	Contents   string
	Situation  string
	Definition string
	Cause      string
	Solution   string
	Prevention string
	Schedule   string
}

// Validate requires title and members.
func (f ReportForm) Validate() (model.FinalReportData, error) {
	r := model.FinalReportData{
		Title:      strings.TrimSpace(f.Title),
		Members:    strings.TrimSpace(f.Members),
		Contents:   f.Contents,
		Situation:  f.Situation,
		Definition: f.Definition,
		Cause:      f.Cause,
		Solution:   f.Solution,
		Prevention: f.Prevention,
		Schedule:   f.Schedule,
	}
	if r.Title == "" {
		return model.FinalReportData{}, invalid(model.StepReport, "title", "validation.required")
	}
	if r.Members == "" {
		return model.FinalReportData{}, invalid(model.StepReport, "members", "validation.required")
	}
	return r, nil
}

const (
	defaultContents = "1. 개요\n2. 현상 파악\n3. 원인 분석\n4. 해결 방안"
	defaultCause    = "전력 과부하, 소화기 미작동, 관리 소홀"
	defaultSchedule = "즉시: 소화기 교체\n1주 내: 안전 교육\n1달 내: 설비 증설"
)

// PrefillReport fills the report form from earlier stage answers. A report
// already submitted is returned as-is so a student can revise it.
func PrefillReport(state model.SimulationState) ReportForm {
	if r := state.FinalReport; r != nil {
		return ReportForm{
			Title: r.Title, Members: r.Members, Contents: r.Contents,
			Situation: r.Situation, Definition: r.Definition, Cause: r.Cause,
			Solution: r.Solution, Prevention: r.Prevention, Schedule: r.Schedule,
		}
	}
	f := ReportForm{
		Title:      state.TeamName + " 화재사고 분석 보고서",
		Contents:   defaultContents,
		Situation:  state.Gap.Current,
		Definition: state.Gap.Ideal,
		Cause:      defaultCause,
		Solution:   state.Solutions.ShortTerm,
		Prevention: state.Solutions.Prevention,
		Schedule:   defaultSchedule,
	}
	if state.User != nil {
		f.Members = state.User.Name
	}
	return f
}
