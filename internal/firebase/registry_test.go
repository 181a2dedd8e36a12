package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yja/firesim/internal/session"
)

// fakeDB stores JSON documents under sessions/<id> the way the Realtime
// Database returns them.
type fakeDB struct {
	mu   sync.Mutex
	docs map[string]map[string]any
}

type fakeRef struct {
	db   *fakeDB
	path string
}

func newFakeRegistry() (*Registry, *fakeDB) {
	f := &fakeDB{docs: map[string]map[string]any{}}
	return &Registry{root: func(path string) ref { return &fakeRef{db: f, path: path} }}, f
}

func (r *fakeRef) id() string {
	return strings.TrimPrefix(r.path, sessionsPath+"/")
}

func (r *fakeRef) Get(_ context.Context, v any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var doc any
	if r.path == sessionsPath {
		if len(r.db.docs) > 0 {
			doc = r.db.docs
		}
	} else if d, ok := r.db.docs[r.id()]; ok {
		doc = d
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (r *fakeRef) Set(_ context.Context, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.docs[r.id()] = doc
	return nil
}

func (r *fakeRef) Delete(context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.docs, r.id())
	return nil
}

func (r *fakeRef) Update(_ context.Context, v map[string]any) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	doc, ok := r.db.docs[r.id()]
	if !ok {
		return errors.New("no such node")
	}
	for k, val := range v {
		doc[k] = val
	}
	return nil
}

func TestRegistryStoresClientSchema(t *testing.T) {
	r, f := newFakeRegistry()
	ctx := context.Background()
	at := time.UnixMilli(1722735000000).UTC()

	cfg, err := session.NewConfig("신입사원", 6, at)
	require.NoError(t, err)
	require.NoError(t, r.Create(ctx, cfg))

	doc := f.docs[cfg.ID]
	assert.Equal(t, "신입사원", doc["groupName"])
	assert.EqualValues(t, 6, doc["totalTeams"])
	assert.EqualValues(t, 1722735000000, doc["createdAt"])
	assert.Equal(t, false, doc["isReportEnabled"])

	got, err := r.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.GroupName, got.GroupName)
	assert.True(t, got.CreatedAt.Equal(at))
}

func TestRegistryCRUD(t *testing.T) {
	r, _ := newFakeRegistry()
	ctx := context.Background()

	list, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	now := time.Now()
	a, _ := session.NewConfig("a", 2, now)
	b, _ := session.NewConfig("b", 3, now.Add(time.Minute))
	c, _ := session.NewConfig("c", 4, now.Add(2*time.Minute))
	require.NoError(t, r.Create(ctx, a))
	require.NoError(t, r.Create(ctx, b))
	require.NoError(t, r.Create(ctx, c))

	list, err = r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	on := true
	require.NoError(t, r.Update(ctx, b.ID, session.Patch{ReportEnabled: &on}))
	got, err := r.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.ReportEnabled)
	assert.Equal(t, 3, got.TotalTeams)

	require.NoError(t, r.Delete(ctx, b.ID))
	list, err = r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, a.ID}, []string{list[0].ID, list[1].ID})

	_, err = r.Get(ctx, b.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, b.ID), session.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, b.ID, session.Patch{ReportEnabled: &on}), session.ErrNotFound)
}
