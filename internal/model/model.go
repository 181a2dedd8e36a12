package model

import (
	"context"
	"encoding/json"
	"time"
)

// Step identifies one stage of the training sequence.
type Step string

const (
	StepIntro      Step = "INTRO"
	StepSituation  Step = "SITUATION"
	StepDefinition Step = "DEFINITION"
	StepAnalysis   Step = "ANALYSIS"
	StepSolution   Step = "SOLUTION"
	StepReport     Step = "REPORT"
	// StepFeedback is declared for compatibility with stored states but no
	// transition leads to it.
	StepFeedback Step = "FEEDBACK"
)

// Steps is the fixed forward order of reachable stages.
var Steps = []Step{
	StepIntro,
	StepSituation,
	StepDefinition,
	StepAnalysis,
	StepSolution,
	StepReport,
}

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a declared step.
func (s Step) Valid() bool {
	return s.Index() >= 0 || s == StepFeedback
}

// SessionConfig is an admin-configured training event.
type SessionConfig struct {
	ID            string    `json:"id"`
	GroupName     string    `json:"groupName"`
	TotalTeams    int       `json:"totalTeams"`
	CreatedAt     time.Time `json:"-"`
	ReportEnabled bool      `json:"isReportEnabled"`
}

type sessionConfigWire struct {
	ID            string `json:"id"`
	GroupName     string `json:"groupName"`
	TotalTeams    int    `json:"totalTeams"`
	CreatedAt     int64  `json:"createdAt"`
	ReportEnabled bool   `json:"isReportEnabled"`
}

// MarshalJSON encodes CreatedAt as epoch milliseconds.
func (c SessionConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionConfigWire{
		ID:            c.ID,
		GroupName:     c.GroupName,
		TotalTeams:    c.TotalTeams,
		CreatedAt:     c.CreatedAt.UnixMilli(),
		ReportEnabled: c.ReportEnabled,
	})
}

// UnmarshalJSON decodes CreatedAt from epoch milliseconds.
func (c *SessionConfig) UnmarshalJSON(data []byte) error {
	var w sessionConfigWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = SessionConfig{
		ID:            w.ID,
		GroupName:     w.GroupName,
		TotalTeams:    w.TotalTeams,
		CreatedAt:     time.UnixMilli(w.CreatedAt),
		ReportEnabled: w.ReportEnabled,
	}
	return nil
}

// MinTeams and MaxTeams bound SessionConfig.TotalTeams.
const (
	MinTeams = 1
	MaxTeams = 12
)

// UserProfile is the identity a student enters at login.
type UserProfile struct {
	Name   string `json:"name"`
	TeamID int    `json:"teamId"`
}

// PowerDevice is one toggleable load in the ANALYSIS calculator.
type PowerDevice struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
	Watts  int    `json:"watts"`
	Active bool   `json:"active"`
}

// Load returns the wattage the device draws while active.
func (d PowerDevice) Load() int {
	if !d.Active {
		return 0
	}
	return d.Count * d.Watts
}

// GapAnalysis holds the DEFINITION stage answers.
type GapAnalysis struct {
	Current string `json:"current"`
	Ideal   string `json:"ideal"`
}

// RootCauses holds the ANALYSIS stage root-cause answers.
type RootCauses struct {
	Evacuation  string `json:"evacuation,omitempty"`
	Suppression string `json:"suppression,omitempty"`
}

// Solutions holds the SOLUTION stage answers.
type Solutions struct {
	ShortTerm  string `json:"shortTerm"`
	Prevention string `json:"prevention"`
}

// SimulationState is one student's in-progress answers.
type SimulationState struct {
	Step           Step             `json:"currentStep"`
	User           *UserProfile     `json:"user"`
	TeamName       string           `json:"teamName"`
	CollectedFacts []string         `json:"collectedFacts"`
	PersonalNotes  []string         `json:"personalNotes"`
	Gap            GapAnalysis      `json:"gapAnalysis"`
	Power          []PowerDevice    `json:"powerCalculation"`
	RootCauses     RootCauses       `json:"rootCauses"`
	Solutions      Solutions        `json:"solutions"`
	FinalReport    *FinalReportData `json:"finalReport"`
}

// Participant binds a student's state to a cookie token and a session.
type Participant struct {
	Token     string
	SessionID string
	Profile   UserProfile
	State     SimulationState
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// AuthSession represents an admin login.
type AuthSession struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type adminCtxKey struct{}

// ContextWithAdmin marks the request as coming from a logged-in admin.
func ContextWithAdmin(ctx context.Context, isAdmin bool) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, isAdmin)
}

// IsAdmin reports whether the request carries a valid admin session.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminCtxKey{}).(bool)
	return v
}

type participantCtxKey struct{}

// ContextWithParticipant stores the current participant in the request context.
func ContextWithParticipant(ctx context.Context, p *Participant) context.Context {
	return context.WithValue(ctx, participantCtxKey{}, p)
}

// ParticipantFromContext retrieves the participant from context, or nil.
func ParticipantFromContext(ctx context.Context) *Participant {
	p, _ := ctx.Value(participantCtxKey{}).(*Participant)
	return p
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	MinFacts      int    // minimum selected facts to leave SITUATION
	BasePath      string // URL prefix for sub-path deployments (e.g. "/fire")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Lang          string
}
