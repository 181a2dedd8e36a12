package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yja/firesim/internal/model"
)

// Broadcaster wraps a Registry and notifies subscribers after every write.
type Broadcaster struct {
	Registry

	// pubMu orders snapshots: the last List taken is the last one sent.
	pubMu sync.Mutex

	mu   sync.Mutex
	subs map[chan []model.SessionConfig]struct{}
}

// NewBroadcaster returns a Broadcaster over r.
func NewBroadcaster(r Registry) *Broadcaster {
	return &Broadcaster{
		Registry: r,
		subs:     make(map[chan []model.SessionConfig]struct{}),
	}
}

// Subscribe returns a channel that receives the full session list after each
// change. Slow subscribers only see the latest list. The channel is closed
// when ctx is done.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan []model.SessionConfig {
	ch := make(chan []model.SessionConfig, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

func (b *Broadcaster) Create(ctx context.Context, cfg model.SessionConfig) error {
	if err := b.Registry.Create(ctx, cfg); err != nil {
		return err
	}
	b.publish(ctx)
	return nil
}

func (b *Broadcaster) Delete(ctx context.Context, id string) error {
	if err := b.Registry.Delete(ctx, id); err != nil {
		return err
	}
	b.publish(ctx)
	return nil
}

func (b *Broadcaster) Update(ctx context.Context, id string, p Patch) error {
	if err := b.Registry.Update(ctx, id, p); err != nil {
		return err
	}
	b.publish(ctx)
	return nil
}

func (b *Broadcaster) publish(ctx context.Context) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	list, err := b.Registry.List(ctx)
	if err != nil {
		slog.Warn("list sessions for subscribers", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		// Drop a stale pending value so the newest list wins.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- list:
		default:
		}
	}
}
