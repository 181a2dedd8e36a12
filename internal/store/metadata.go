package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"
)

const activeSessionKey = "active_session"

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetActiveSession records the session students join.
func (s *Store) SetActiveSession(ctx context.Context, id string) error {
	return s.SetMetadata(ctx, activeSessionKey, id)
}

// ActiveSession resolves the session students join against r: the one the
// admin opened last, else the newest. It returns nil if r is empty.
func (s *Store) ActiveSession(ctx context.Context, r session.Registry) (*model.SessionConfig, error) {
	id, err := s.GetMetadata(ctx, activeSessionKey)
	if err != nil {
		return nil, err
	}
	if id != "" {
		cfg, err := r.Get(ctx, id)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
	}
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}
