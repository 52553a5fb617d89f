// Package bus is the in-process publish/subscribe channel between the
// transport adapter, the sync engine, and whatever renders the snapshot.
// Kinds are dot-separated and subscribers filter by namespace prefix:
// "server." carries decoded server events, "transport." carries
// connection lifecycle changes, and "state." announces new snapshots.
package bus

import (
	"strings"
	"sync"
	"time"
)

// Event is one domain event published on the bus.
type Event struct {
	Kind    string
	At      time.Time
	Payload any
}

// Bus fans events out to prefix-matched subscribers. Ordinary
// subscribers are drop-on-full: one that falls behind loses events
// rather than stalling the publisher. Blocking subscribers exert
// backpressure instead; they are for consumers that must see every
// event, like the reducer feed.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

type subscription struct {
	prefix string
	ch     chan Event
	block  bool
	// done releases publishers blocked on ch once the subscription is
	// cancelled.
	done chan struct{}
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]*subscription)}
}

// Publish delivers evt to every subscriber whose prefix matches
// evt.Kind. Stamps At if the publisher left it zero. Blocking
// subscribers can stall the caller until they drain or unsubscribe.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	// Snapshot the targets so a blocking send is never made while
	// holding the bus lock; Unsubscribe needs that lock to release us.
	b.mu.RLock()
	targets := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Kind, sub.prefix) {
			targets = append(targets, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		if sub.block {
			select {
			case sub.ch <- evt:
			case <-sub.done:
			}
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribe returns a channel receiving events whose Kind starts with
// prefix, and a function that cancels the subscription. Delivery is
// drop-on-full.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	return b.subscribe(prefix, bufSize, false)
}

// SubscribeBlocking is Subscribe with lossless delivery: once the
// buffer fills, publishers wait instead of dropping. The subscriber
// must keep draining until it unsubscribes.
func (b *Bus) SubscribeBlocking(prefix string, bufSize int) (<-chan Event, func()) {
	return b.subscribe(prefix, bufSize, true)
}

func (b *Bus) subscribe(prefix string, bufSize int, block bool) (<-chan Event, func()) {
	sub := &subscription{
		prefix: prefix,
		ch:     make(chan Event, bufSize),
		block:  block,
		done:   make(chan struct{}),
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	return sub.ch, func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.done)
		}
		b.mu.Unlock()
	}
}
