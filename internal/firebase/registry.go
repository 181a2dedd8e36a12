// Package firebase keeps training sessions in a Firebase Realtime Database
// under sessions/<id>, the layout the browser client of the exercise reads.
package firebase

import (
	"context"
	"fmt"
	"sort"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/yja/firesim/internal/model"
	"github.com/yja/firesim/internal/session"
)

const sessionsPath = "sessions"

// ref is the subset of *db.Ref the registry uses.
type ref interface {
	Get(ctx context.Context, v any) error
	Set(ctx context.Context, v any) error
	Delete(ctx context.Context) error
	Update(ctx context.Context, v map[string]any) error
}

// Registry implements session.Registry on a Realtime Database.
type Registry struct {
	root func(path string) ref
}

var _ session.Registry = (*Registry)(nil)

// New connects to the database at databaseURL using a service account key.
func New(ctx context.Context, credentialsFile, databaseURL string) (*Registry, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("get database client: %w", err)
	}
	return newRegistry(client), nil
}

func newRegistry(client *db.Client) *Registry {
	return &Registry{root: func(path string) ref { return client.NewRef(path) }}
}

func sessionPath(id string) string {
	return sessionsPath + "/" + id
}

func (r *Registry) Create(ctx context.Context, cfg model.SessionConfig) error {
	if err := r.root(sessionPath(cfg.ID)).Set(ctx, cfg); err != nil {
		return fmt.Errorf("create session %s: %w", cfg.ID, err)
	}
	return nil
}

// List returns all sessions, newest first.
func (r *Registry) List(ctx context.Context) ([]model.SessionConfig, error) {
	var byID map[string]model.SessionConfig
	if err := r.root(sessionsPath).Get(ctx, &byID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	list := make([]model.SessionConfig, 0, len(byID))
	for key, cfg := range byID {
		if cfg.ID == "" {
			cfg.ID = key
		}
		list = append(list, cfg)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// Get returns session.ErrNotFound when the node is absent.
func (r *Registry) Get(ctx context.Context, id string) (*model.SessionConfig, error) {
	var cfg *model.SessionConfig
	if err := r.root(sessionPath(id)).Get(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	if cfg == nil {
		return nil, session.ErrNotFound
	}
	if cfg.ID == "" {
		cfg.ID = id
	}
	return cfg, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	if err := r.root(sessionPath(id)).Delete(ctx); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// Update writes only the patched children, last write wins.
func (r *Registry) Update(ctx context.Context, id string, p session.Patch) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	fields := map[string]any{}
	if p.ReportEnabled != nil {
		fields["isReportEnabled"] = *p.ReportEnabled
	}
	if len(fields) == 0 {
		return nil
	}
	if err := r.root(sessionPath(id)).Update(ctx, fields); err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	return nil
}
