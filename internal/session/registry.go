// Package session defines the registry of admin-configured training sessions
// and a decorator that pushes changes to subscribers.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yja/firesim/internal/model"
)

var (
	// ErrNotFound is returned for an unknown session id.
	ErrNotFound = errors.New("session not found")
	// ErrInvalid is returned by NewConfig for a bad group name or team count.
	ErrInvalid = errors.New("invalid session")
)

// Registry stores SessionConfig records keyed by id. Concurrent writers are
// last-write-wins.
type Registry interface {
	Create(ctx context.Context, cfg model.SessionConfig) error
	// List returns all sessions, newest first.
	List(ctx context.Context) ([]model.SessionConfig, error)
	Get(ctx context.Context, id string) (*model.SessionConfig, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, p Patch) error
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	ReportEnabled *bool
}

// Apply merges p into cfg.
func (p Patch) Apply(cfg *model.SessionConfig) {
	if p.ReportEnabled != nil {
		cfg.ReportEnabled = *p.ReportEnabled
	}
}

// NewConfig validates the admin input and builds a new session record.
func NewConfig(groupName string, totalTeams int, now time.Time) (model.SessionConfig, error) {
	groupName = strings.TrimSpace(groupName)
	if groupName == "" {
		return model.SessionConfig{}, fmt.Errorf("%w: group name is required", ErrInvalid)
	}
	if totalTeams < model.MinTeams || totalTeams > model.MaxTeams {
		return model.SessionConfig{}, fmt.Errorf("%w: team count must be between %d and %d", ErrInvalid, model.MinTeams, model.MaxTeams)
	}
	return model.SessionConfig{
		ID:         uuid.NewString(),
		GroupName:  groupName,
		TotalTeams: totalTeams,
		CreatedAt:  now.UTC().Truncate(time.Millisecond),
	}, nil
}

// ValidTeam reports whether teamID is within the session's team range.
func ValidTeam(cfg model.SessionConfig, teamID int) bool {
	return teamID >= 1 && teamID <= cfg.TotalTeams
}

// DemoGroupName and DemoTeams describe the session created when none exists.
const (
	DemoGroupName = "데모 교육 세션"
	DemoTeams     = 6
)

// EnsureDefault creates the demo session if the registry is empty.
func EnsureDefault(ctx context.Context, r Registry, now time.Time) (*model.SessionConfig, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return nil, nil
	}
	cfg, err := NewConfig(DemoGroupName, DemoTeams, now)
	if err != nil {
		return nil, err
	}
	if err := r.Create(ctx, cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
