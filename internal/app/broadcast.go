package app

import (
	"context"
	"maps"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/WinstonKong/bubble-chat/internal/bus"
	"github.com/WinstonKong/bubble-chat/internal/debounce"
	"github.com/WinstonKong/bubble-chat/internal/state"
)

// Notifier sends one fire-and-forget frame to the server. Satisfied by
// *transport.Adapter.
type Notifier interface {
	Notify(typ string, payload any) error
}

// Broadcaster tells the server about read-cursor movement so the user's
// other devices can clear their badges. Cursor advances arrive in
// bursts while the user scrolls, so sends are debounced; only the
// newest cursor map goes out.
type Broadcaster struct {
	bus      *bus.Bus
	notifier Notifier
	logger   *zap.Logger
	deb      *debounce.Debouncer
	cancel   context.CancelFunc

	mu   sync.Mutex
	sent map[string]int64
	next map[string]int64
}

// NewBroadcaster creates a broadcaster sending at most one
// channelUnread frame per delay window.
func NewBroadcaster(b *bus.Bus, n Notifier, delay time.Duration, logger *zap.Logger) *Broadcaster {
	br := &Broadcaster{
		bus:      b,
		notifier: n,
		logger:   logger,
		sent:     make(map[string]int64),
	}
	br.deb = debounce.New(delay, br.send)
	return br
}

// Start subscribes to snapshot announcements.
func (br *Broadcaster) Start(ctx context.Context) {
	ctx, br.cancel = context.WithCancel(ctx)
	ch, unsub := br.bus.Subscribe("state.", 64)

	go func() {
		defer unsub()
		for {
			select {
			case evt := <-ch:
				snap, ok := evt.Payload.(*state.Snapshot)
				if !ok {
					continue
				}
				br.observe(snap.ReadCursors)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop flushes any pending broadcast and stops the timer.
func (br *Broadcaster) Stop() {
	if br.cancel != nil {
		br.cancel()
	}
	br.deb.Flush()
}

func (br *Broadcaster) observe(cursors map[string]int64) {
	br.mu.Lock()
	defer br.mu.Unlock()

	// Fold into whatever is already pending, per channel and
	// monotonically, so an out-of-date snapshot can neither regress a
	// cursor nor clobber a newer pending broadcast.
	base := br.next
	if base == nil {
		base = br.sent
	}

	var merged map[string]int64
	for cid, id := range cursors {
		if id <= base[cid] {
			continue
		}
		if merged == nil {
			merged = maps.Clone(base)
		}
		merged[cid] = id
	}
	if merged == nil {
		return
	}
	br.next = merged
	br.deb.Trigger()
}

func (br *Broadcaster) send() {
	br.mu.Lock()
	cursors := br.next
	br.next = nil
	br.mu.Unlock()
	if cursors == nil {
		return
	}

	if err := br.notifier.Notify("channelUnread", cursors); err != nil {
		// The join handshake resends cursors on reconnect, so a lost
		// broadcast heals itself.
		br.logger.Warn("read-state broadcast failed", zap.Error(err))
		return
	}

	br.mu.Lock()
	br.sent = cursors
	br.mu.Unlock()
}
