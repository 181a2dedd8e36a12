package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed persistence layer. It implements
// session.Registry and keeps participants, admin logins and metadata.
type Store struct {
	db *sql.DB
}

var _ session.Registry = (*Store)(nil)

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS training_sessions (
		id TEXT PRIMARY KEY,
		group_name TEXT NOT NULL,
		total_teams INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		report_enabled INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS participants (
		token TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		name TEXT NOT NULL,
		team_id INTEGER NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_session ON participants(session_id);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Create stores a new training session.
func (s *Store) Create(ctx context.Context, cfg model.SessionConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_sessions (id, group_name, total_teams, created_at, report_enabled)
		 VALUES (?, ?, ?, ?, ?)`,
		cfg.ID, cfg.GroupName, cfg.TotalTeams, cfg.CreatedAt.UnixMilli(), cfg.ReportEnabled,
	)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", cfg.ID, err)
	}
	return nil
}

const sessionColumns = `id, group_name, total_teams, created_at, report_enabled`

func scanSession(row interface{ Scan(...any) error }) (model.SessionConfig, error) {
	var cfg model.SessionConfig
	var createdMs int64
	err := row.Scan(&cfg.ID, &cfg.GroupName, &cfg.TotalTeams, &createdMs, &cfg.ReportEnabled)
	cfg.CreatedAt = time.UnixMilli(createdMs).UTC()
	return cfg, err
}

// List returns all sessions, newest first.
func (s *Store) List(ctx context.Context) ([]model.SessionConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.SessionConfig
	for rows.Next() {
		cfg, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, cfg)
	}
	return sessions, rows.Err()
}

// Get returns the session with id, or session.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*model.SessionConfig, error) {
	cfg, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Delete removes the session record. Participants are removed separately
// with DeleteParticipants since the registry may live elsewhere.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM training_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// Update applies a partial change to a session.
func (s *Store) Update(ctx context.Context, id string, p session.Patch) error {
	if p.ReportEnabled == nil {
		_, err := s.Get(ctx, id)
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE training_sessions SET report_enabled = ? WHERE id = ?`, *p.ReportEnabled, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return session.ErrNotFound
	}
	return nil
}
