// Package sync owns the live client snapshot. The engine drains server
// events off the bus one at a time, in receipt order, through the pure
// reducer — the single logical thread of state mutation. It also hosts
// the outbound operations, so every state change enters through the
// same door.
package sync

import (
	"context"
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/WinstonKong/bubble-chat/internal/bus"
	"github.com/WinstonKong/bubble-chat/internal/readstore"
	"github.com/WinstonKong/bubble-chat/internal/state"
	"github.com/WinstonKong/bubble-chat/internal/transport"
)

// Requester sends one typed request and blocks for its acknowledgement.
// Satisfied by *transport.Adapter.
type Requester interface {
	Request(ctx context.Context, typ string, payload any) (transport.Ack, error)
}

// Engine applies events to the snapshot and exposes it read-only.
type Engine struct {
	bus     *bus.Bus
	cursors *readstore.Store
	tr      Requester
	logger  *zap.Logger
	cancel  context.CancelFunc

	mu   stdsync.RWMutex
	snap *state.Snapshot
}

// NewEngine creates an engine for the given user, seeding the snapshot
// with the cursors persisted on this device.
func NewEngine(uid string, cursors *readstore.Store, tr Requester, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{
		bus:     b,
		cursors: cursors,
		tr:      tr,
		logger:  logger,
		snap:    state.NewSnapshot(uid, cursors.Load(uid)),
	}
}

// Start subscribes to decoded server events on the bus. The
// subscription is lossless: every server event must reach the reducer,
// so a full buffer backpressures the transport instead of dropping.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	ch, unsub := e.bus.SubscribeBlocking("server.", 256)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				se, ok := evt.Payload.(state.Event)
				if !ok {
					e.logger.Error("bad server event payload", zap.String("kind", evt.Kind))
					continue
				}
				e.Dispatch(se)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the engine.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Snapshot returns the current snapshot. Snapshots are immutable, so
// the caller may hold on to it while the engine moves on.
func (e *Engine) Snapshot() *state.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Dispatch applies one event. Events are serialized under the engine
// lock; each produces exactly one new snapshot, announced on the bus.
// The publish happens under the same lock, so subscribers observe
// snapshots in the order they were produced even when operations
// dispatch from their own goroutines.
func (e *Engine) Dispatch(evt state.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.snap
	next := state.Reduce(prev, evt)
	if next == prev {
		return
	}
	e.snap = next
	e.persistCursors(prev, next)
	e.bus.Publish(bus.Event{Kind: "state.updated", Payload: next})
}

// persistCursors writes advanced read positions fire-and-forget. Save
// never propagates failures, so nothing can throw back into the
// reducer's call path.
func (e *Engine) persistCursors(prev, next *state.Snapshot) {
	var changed map[string]int64
	for cid, id := range next.ReadCursors {
		if old, ok := prev.ReadCursors[cid]; !ok || old != id {
			if changed == nil {
				changed = make(map[string]int64)
			}
			changed[cid] = id
		}
	}
	if changed != nil {
		go e.cursors.Save(next.UserID, changed)
	}
}
