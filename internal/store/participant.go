package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yja/firesim/internal/model"
)

const participantTTL = 12 * time.Hour

// CreateParticipant registers a student in a session and returns their token.
func (s *Store) CreateParticipant(ctx context.Context, sessionID string, state model.SimulationState) (*model.Participant, error) {
	if state.User == nil {
		return nil, errors.New("participant state has no user")
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	now := time.Now().UTC()
	p := &model.Participant{
		Token:     uuid.NewString(),
		SessionID: sessionID,
		Profile:   *state.User,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(participantTTL),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO participants (token, session_id, name, team_id, state, created_at, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Token, p.SessionID, p.Profile.Name, p.Profile.TeamID, string(raw), p.CreatedAt, p.UpdatedAt, p.ExpiresAt,
	)
	if err != nil {
		slog.Error("failed to create participant", "session", sessionID, "name", p.Profile.Name, "error", err)
		return nil, err
	}
	slog.Info("participant joined", "session", sessionID, "team", p.Profile.TeamID, "name", p.Profile.Name)
	return p, nil
}

const participantColumns = `token, session_id, name, team_id, state, created_at, updated_at, expires_at`

func scanParticipant(row interface{ Scan(...any) error }) (*model.Participant, error) {
	var p model.Participant
	var raw string
	if err := row.Scan(&p.Token, &p.SessionID, &p.Profile.Name, &p.Profile.TeamID, &raw,
		&p.CreatedAt, &p.UpdatedAt, &p.ExpiresAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &p.State); err != nil {
		return nil, fmt.Errorf("decode state of %s: %w", p.Token, err)
	}
	return &p, nil
}

// GetParticipant returns the participant for token, or nil if not found/expired.
func (s *Store) GetParticipant(ctx context.Context, token string) (*model.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE token = ?`, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(p.ExpiresAt) {
		_ = s.DeleteParticipant(ctx, token)
		return nil, nil
	}
	return p, nil
}

// SaveState stores the participant's state and extends their expiry.
func (s *Store) SaveState(ctx context.Context, token string, state model.SimulationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET state = ?, updated_at = ?, expires_at = ? WHERE token = ?`,
		string(raw), now, now.Add(participantTTL), token,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("participant %s: %w", token, sql.ErrNoRows)
	}
	return nil
}

// DeleteParticipant removes a participant (logout or mode switch).
func (s *Store) DeleteParticipant(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE token = ?`, token)
	return err
}

// DeleteParticipants removes everyone who joined a session.
func (s *Store) DeleteParticipants(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE session_id = ?`, sessionID)
	return err
}

// ListParticipants returns a session's participants ordered by team and join time.
func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]model.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE session_id = ? ORDER BY team_id, created_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
