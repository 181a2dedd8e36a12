package session

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yja/firesim/internal/model"
)

type memRegistry struct {
	mu       sync.Mutex
	sessions []model.SessionConfig
	failList bool
}

func (m *memRegistry) Create(_ context.Context, cfg model.SessionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append([]model.SessionConfig{cfg}, m.sessions...)
	return nil
}

func (m *memRegistry) List(context.Context) ([]model.SessionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, errors.New("boom")
	}
	return slices.Clone(m.sessions), nil
}

func (m *memRegistry) Get(_ context.Context, id string) (*model.SessionConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRegistry) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.sessions, func(s model.SessionConfig) bool { return s.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	m.sessions = slices.Delete(m.sessions, i, i+1)
	return nil
}

func (m *memRegistry) Update(_ context.Context, id string, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			p.Apply(&m.sessions[i])
			return nil
		}
	}
	return ErrNotFound
}

func TestNewConfig(t *testing.T) {
	now := time.Date(2025, 8, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		group   string
		teams   int
		wantErr bool
	}{
		{"valid", "신입사원 1기", 6, false},
		{"min teams", "a", 1, false},
		{"max teams", "a", 12, false},
		{"blank name", "  ", 6, true},
		{"zero teams", "a", 0, true},
		{"too many teams", "a", 13, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig(tt.group, tt.teams, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, cfg.ID)
			assert.Equal(t, tt.teams, cfg.TotalTeams)
			assert.Equal(t, now, cfg.CreatedAt)
			assert.False(t, cfg.ReportEnabled)
		})
	}
}

func TestValidTeam(t *testing.T) {
	cfg := model.SessionConfig{TotalTeams: 4}
	assert.False(t, ValidTeam(cfg, 0))
	assert.True(t, ValidTeam(cfg, 1))
	assert.True(t, ValidTeam(cfg, 4))
	assert.False(t, ValidTeam(cfg, 5))
}

func TestPatchApply(t *testing.T) {
	cfg := model.SessionConfig{GroupName: "a", ReportEnabled: false}
	Patch{}.Apply(&cfg)
	assert.False(t, cfg.ReportEnabled)

	on := true
	Patch{ReportEnabled: &on}.Apply(&cfg)
	assert.True(t, cfg.ReportEnabled)
	assert.Equal(t, "a", cfg.GroupName)
}

func TestEnsureDefault(t *testing.T) {
	ctx := context.Background()
	r := &memRegistry{}

	created, err := EnsureDefault(ctx, r, time.Now())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, DemoGroupName, created.GroupName)
	assert.Equal(t, DemoTeams, created.TotalTeams)

	again, err := EnsureDefault(ctx, r, time.Now())
	require.NoError(t, err)
	assert.Nil(t, again)

	list, _ := r.List(ctx)
	assert.Len(t, list, 1)
}

func TestBroadcasterPublishesAfterWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(&memRegistry{})
	ch := b.Subscribe(ctx)

	cfg, err := NewConfig("g", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Create(ctx, cfg))

	on := true
	require.NoError(t, b.Update(ctx, cfg.ID, Patch{ReportEnabled: &on}))

	// Only the latest list is kept for a subscriber that has not read yet.
	select {
	case list := <-ch:
		require.Len(t, list, 1)
		assert.True(t, list[0].ReportEnabled)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	require.NoError(t, b.Delete(ctx, cfg.ID))
	select {
	case list := <-ch:
		assert.Empty(t, list)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestBroadcasterSkipsFailedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(&memRegistry{})
	ch := b.Subscribe(ctx)

	err := b.Delete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	select {
	case <-ch:
		t.Fatal("unexpected update")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcasterClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroadcaster(&memRegistry{})
	ch := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// Publishing after the subscriber left must not panic.
	cfg, _ := NewConfig("g", 1, time.Now())
	require.NoError(t, b.Create(context.Background(), cfg))
}

// stallingRegistry blocks the first armed List after it has taken its snapshot.
type stallingRegistry struct {
	*memRegistry
	armed   chan struct{}
	listed  chan struct{}
	release chan struct{}
}

func (s *stallingRegistry) List(ctx context.Context) ([]model.SessionConfig, error) {
	list, err := s.memRegistry.List(ctx)
	select {
	case <-s.armed:
		close(s.listed)
		<-s.release
	default:
	}
	return list, err
}

func TestBroadcasterDeliversNewestSnapshotLast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := &stallingRegistry{
		memRegistry: &memRegistry{},
		armed:       make(chan struct{}, 1),
		listed:      make(chan struct{}),
		release:     make(chan struct{}),
	}
	b := NewBroadcaster(reg)
	cfg, err := NewConfig("g", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, b.Create(ctx, cfg))
	ch := b.Subscribe(ctx)

	reg.armed <- struct{}{}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		on := true
		assert.NoError(t, b.Update(ctx, cfg.ID, Patch{ReportEnabled: &on}))
	}()
	<-reg.listed

	go func() {
		defer wg.Done()
		off := false
		assert.NoError(t, b.Update(ctx, cfg.ID, Patch{ReportEnabled: &off}))
	}()
	require.Eventually(t, func() bool {
		got, err := reg.Get(ctx, cfg.ID)
		return err == nil && !got.ReportEnabled
	}, time.Second, time.Millisecond)

	close(reg.release)
	wg.Wait()

	select {
	case list := <-ch:
		require.Len(t, list, 1)
		assert.False(t, list[0].ReportEnabled, "stored flag is off, so the last push must be off")
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}
