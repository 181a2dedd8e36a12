// Package sim implements the progression engine that moves one student
// through the fixed training stages.
package sim

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/yja/firesim/internal/model"
)

// MaxPowerLimit is the factory line's breaker rating in watts.
const MaxPowerLimit = 16000

var (
	// ErrIllegalTransition is matched by every *IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrEmptyNote is returned when adding a blank personal note.
	ErrEmptyNote = errors.New("note is empty")
	// ErrNoteIndex is returned when deleting a note that does not exist.
	ErrNoteIndex = errors.New("note index out of range")
	// ErrNotAtReport is returned when a final report is stored before REPORT.
	ErrNotAtReport = errors.New("final report can only be set at the REPORT stage")
)

// IllegalTransitionError describes a rejected Advance call.
type IllegalTransitionError struct {
	From  model.Step
	To    model.Step
	Cause string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s: %s", e.From, e.To, e.Cause)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}

// DefaultPowerDevices returns the device pool of the third factory line.
func DefaultPowerDevices() []model.PowerDevice {
	return []model.PowerDevice{
		{Device: "A Pro (기존)", Count: 2, Watts: 3500, Active: true},
		{Device: "A Pro (4공장 이관)", Count: 2, Watts: 3500, Active: true},
		{Device: "B Pro", Count: 4, Watts: 2000, Active: true},
		{Device: "항온항습기", Count: 3, Watts: 500, Active: true},
	}
}

// TotalWatts sums the load of all active devices.
func TotalWatts(devices []model.PowerDevice) int {
	total := 0
	for _, d := range devices {
		total += d.Load()
	}
	return total
}

// Overloaded reports whether the active devices exceed MaxPowerLimit.
func Overloaded(devices []model.PowerDevice) bool {
	return TotalWatts(devices) > MaxPowerLimit
}

// NewState returns the INTRO defaults with no user attached.
func NewState() model.SimulationState {
	return model.SimulationState{
		Step:           model.StepIntro,
		CollectedFacts: []string{},
		PersonalNotes:  []string{},
		Power:          DefaultPowerDevices(),
	}
}

// TeamName formats the display name of a team.
func TeamName(teamID int) string {
	return strconv.Itoa(teamID) + "조"
}

// Successor returns the step after s and whether one exists.
func Successor(s model.Step) (model.Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(model.Steps) {
		return "", false
	}
	return model.Steps[i+1], true
}

// Engine owns one student's SimulationState and enforces legal transitions.
type Engine struct {
	state *model.SimulationState
}

// New starts a fresh engine for a student who just joined.
func New(profile model.UserProfile) *Engine {
	st := NewState()
	st.User = &profile
	st.TeamName = TeamName(profile.TeamID)
	return &Engine{state: &st}
}

// Resume wraps an existing state, e.g. one loaded from the store.
func Resume(state *model.SimulationState) *Engine {
	if state.Power == nil {
		state.Power = DefaultPowerDevices()
	}
	return &Engine{state: state}
}

// State returns the live state. Callers must not mutate it directly.
func (e *Engine) State() *model.SimulationState {
	return e.state
}

// Step returns the current stage.
func (e *Engine) Step() model.Step {
	return e.state.Step
}

// Advance moves to next after merging the patch produced by the current stage.
// next must be the immediate successor of the current step and the patch must
// belong to the current step; otherwise the state is left untouched.
func (e *Engine) Advance(next model.Step, patch Patch) error {
	cur := e.state.Step
	want, ok := Successor(cur)
	if !ok {
		return &IllegalTransitionError{From: cur, To: next, Cause: "no successor"}
	}
	if next != want {
		return &IllegalTransitionError{From: cur, To: next, Cause: "expected " + string(want)}
	}
	if patch == nil {
		return &IllegalTransitionError{From: cur, To: next, Cause: "missing stage data"}
	}
	if patch.from() != cur {
		return &IllegalTransitionError{From: cur, To: next, Cause: "stage data belongs to " + string(patch.from())}
	}
	patch.apply(e.state)
	e.state.Step = next
	return nil
}

// Reset discards every answer and returns to INTRO.
func (e *Engine) Reset() {
	*e.state = NewState()
}

// AddNote appends a personal note.
func (e *Engine) AddNote(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyNote
	}
	e.state.PersonalNotes = append(e.state.PersonalNotes, text)
	return nil
}

// DeleteNote removes the note at index.
func (e *Engine) DeleteNote(index int) error {
	if index < 0 || index >= len(e.state.PersonalNotes) {
		return ErrNoteIndex
	}
	e.state.PersonalNotes = slices.Delete(e.state.PersonalNotes, index, index+1)
	return nil
}

// SetFinalReport stores the assembled report.
func (e *Engine) SetFinalReport(report model.FinalReportData) error {
	if e.state.Step != model.StepReport {
		return ErrNotAtReport
	}
	e.state.FinalReport = &report
	return nil
}

// Progress returns how far along the reachable steps the student is, 0-100.
func (e *Engine) Progress() int {
	i := e.state.Step.Index()
	if i <= 0 {
		return 0
	}
	return i * 100 / (len(model.Steps) - 1)
}
