// Package transport is the real-time channel to the chat server: a
// websocket carrying JSON envelopes. It correlates requests with their
// single acknowledgement, decodes pushes into reducer events published
// on the bus, and owns the bounded reconnect loop — the engine only
// ever observes connected/disconnected.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/WinstonKong/bubble-chat/internal/bus"
	"github.com/WinstonKong/bubble-chat/internal/state"
	"github.com/WinstonKong/bubble-chat/internal/status"
)

var (
	// ErrNotConnected is returned by Request while no connection is up.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrConnectionLost is returned for requests in flight when the
	// connection drops; their acknowledgements will never arrive.
	ErrConnectionLost = errors.New("transport: connection lost")
)

// Conn is the narrow websocket surface the adapter needs. Tests swap in
// a scripted implementation.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Dialer establishes a Conn to the given URL.
type Dialer func(ctx context.Context, url string) (Conn, error)

// DialWebsocket is the production Dialer.
func DialWebsocket(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Config holds the adapter settings.
type Config struct {
	URL    string
	UserID string
	// ReconnectAttempts bounds the automatic reconnect loop after a
	// drop. Once exhausted only a user-triggered Connect retries.
	ReconnectAttempts int
}

// Adapter is the websocket client. All state mutation it causes flows
// through bus events; it never touches the snapshot directly.
type Adapter struct {
	cfg     Config
	bus     *bus.Bus
	machine *status.Machine
	logger  *zap.Logger
	dial    Dialer

	readInfo map[string]int64

	mu      sync.Mutex
	conn    Conn
	seq     uint64
	pending map[uint64]chan Ack

	cancel context.CancelFunc
}

// New creates an adapter using the production websocket dialer.
func New(cfg Config, b *bus.Bus, m *status.Machine, logger *zap.Logger) *Adapter {
	return NewWithDialer(cfg, b, m, logger, DialWebsocket)
}

// NewWithDialer creates an adapter with a custom dialer.
func NewWithDialer(cfg Config, b *bus.Bus, m *status.Machine, logger *zap.Logger, dial Dialer) *Adapter {
	return &Adapter{
		cfg:     cfg,
		bus:     b,
		machine: m,
		logger:  logger,
		dial:    dial,
		pending: make(map[uint64]chan Ack),
	}
}

// Connect dials the server and performs the join handshake, announcing
// the user and their device-local read positions. Valid both for the
// first connection and for a user-triggered reconnect.
func (a *Adapter) Connect(ctx context.Context, readInfo map[string]int64) error {
	ctx, a.cancel = context.WithCancel(ctx)
	a.readInfo = readInfo

	if err := a.machine.Transition(status.Connecting); err != nil {
		return err
	}
	if err := a.establish(ctx); err != nil {
		_ = a.machine.Transition(status.Disconnected)
		a.publishConn(state.ConnDisconnected)
		return err
	}
	return nil
}

// Close tears the connection down and stops any reconnect loop.
func (a *Adapter) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Notify sends one typed payload without waiting for an answer. Used
// for broadcasts the server never acknowledges, like read-state
// updates for sibling devices.
func (a *Adapter) Notify(typ string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.conn == nil {
		return ErrNotConnected
	}
	if err := a.conn.WriteJSON(Envelope{Type: typ, Data: data}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// Request sends one typed payload and blocks for its acknowledgement.
func (a *Adapter) Request(ctx context.Context, typ string, payload any) (Ack, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Ack{}, fmt.Errorf("encode %s: %w", typ, err)
	}

	a.mu.Lock()
	if a.conn == nil {
		a.mu.Unlock()
		return Ack{}, ErrNotConnected
	}
	a.seq++
	seq := a.seq
	ch := make(chan Ack, 1)
	a.pending[seq] = ch
	err = a.conn.WriteJSON(Envelope{Type: typ, Seq: seq, Data: data})
	a.mu.Unlock()

	if err != nil {
		a.forget(seq)
		return Ack{}, fmt.Errorf("send %s: %w", typ, err)
	}

	select {
	case ack, ok := <-ch:
		if !ok {
			return Ack{}, ErrConnectionLost
		}
		return ack, nil
	case <-ctx.Done():
		a.forget(seq)
		return Ack{}, ctx.Err()
	}
}

func (a *Adapter) establish(ctx context.Context) error {
	conn, err := a.dial(ctx, a.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", a.cfg.URL, err)
	}

	join, err := json.Marshal(joinPayload{UID: a.cfg.UserID, ReadInfo: a.readInfo})
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("encode join: %w", err)
	}
	if err := conn.WriteJSON(Envelope{Type: "join", Data: join}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("join handshake: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()

	_ = a.machine.Transition(status.Connected)
	a.publishConn(state.ConnConnected)
	a.logger.Info("connected", zap.String("url", a.cfg.URL))

	go a.readLoop(ctx, conn)
	return nil
}

func (a *Adapter) readLoop(ctx context.Context, conn Conn) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() == nil {
				a.logger.Warn("connection lost", zap.Error(err))
				a.handleDisconnect(ctx)
			}
			return
		}

		if env.Ack != 0 {
			a.deliverAck(env)
			continue
		}

		evt, err := DecodeEvent(env)
		if err != nil {
			a.logger.Warn("dropping server push", zap.String("type", env.Type), zap.Error(err))
			continue
		}
		a.bus.Publish(bus.Event{Kind: "server." + env.Type, Payload: evt})
	}
}

// handleDisconnect fails in-flight requests, reports the drop, and
// retries within the reconnect budget. Exhaustion parks the adapter in
// Disconnected until the user reconnects.
func (a *Adapter) handleDisconnect(ctx context.Context) {
	a.failPending()
	_ = a.machine.Transition(status.Reconnecting)
	a.publishConn(state.ConnDisconnected)

	for attempt := 1; attempt <= a.cfg.ReconnectAttempts; attempt++ {
		select {
		case <-time.After(time.Duration(attempt) * time.Second):
		case <-ctx.Done():
			return
		}

		a.logger.Info("reconnecting", zap.Int("attempt", attempt))
		_ = a.machine.Transition(status.Connecting)
		err := a.establish(ctx)
		if err == nil {
			return
		}
		a.logger.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
		_ = a.machine.Transition(status.Reconnecting)
	}

	a.logger.Warn("reconnect budget exhausted", zap.Int("attempts", a.cfg.ReconnectAttempts))
	_ = a.machine.Transition(status.Disconnected)
}

func (a *Adapter) deliverAck(env Envelope) {
	a.mu.Lock()
	ch, ok := a.pending[env.Ack]
	delete(a.pending, env.Ack)
	a.mu.Unlock()
	if ok {
		ch <- Ack{OK: env.OK, Data: env.Data}
	}
}

func (a *Adapter) failPending() {
	a.mu.Lock()
	for seq, ch := range a.pending {
		close(ch)
		delete(a.pending, seq)
	}
	a.conn = nil
	a.mu.Unlock()
}

func (a *Adapter) forget(seq uint64) {
	a.mu.Lock()
	delete(a.pending, seq)
	a.mu.Unlock()
}

func (a *Adapter) publishConn(s state.ConnStatus) {
	kind := "server.connect"
	if s == state.ConnDisconnected {
		kind = "server.disconnect"
	}
	a.bus.Publish(bus.Event{Kind: kind, Payload: state.ConnectionChanged{Status: s}})
}
