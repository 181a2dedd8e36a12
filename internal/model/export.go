package model

import "time"

// SessionExport is the top-level JSON structure for the export command.
type SessionExport struct {
	Session      SessionConfig       `json:"session"`
	CreatedAt    time.Time           `json:"created_at"`
	ExportedAt   time.Time           `json:"exported_at"`
	Participants []ParticipantExport `json:"participants"`
}

// ParticipantExport holds one student's progress for export.
type ParticipantExport struct {
	Name        string           `json:"name"`
	TeamID      int              `json:"team_id"`
	Step        Step             `json:"step"`
	JoinedAt    time.Time        `json:"joined_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Facts       []string         `json:"facts"`
	Gap         GapAnalysis      `json:"gap"`
	RootCauses  RootCauses       `json:"root_causes"`
	Solutions   Solutions        `json:"solutions"`
	FinalReport *FinalReportData `json:"final_report,omitempty"`
}

// TeamProgress summarises the furthest participant of one team.
type TeamProgress struct {
	TeamID      int
	Members     []string
	Step        Step
	UpdatedAt   time.Time
	Submitted   bool
	CorrectRoot int // root-cause answers that match the facilitator key
}
