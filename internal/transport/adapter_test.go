package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/WinstonKong/bubble-chat/internal/bus"
	"github.com/WinstonKong/bubble-chat/internal/state"
	"github.com/WinstonKong/bubble-chat/internal/status"
)

// fakeConn is a scripted Conn: the test feeds server frames into in and
// observes client frames on writes.
type fakeConn struct {
	in     chan Envelope
	writes chan Envelope

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan Envelope, 16),
		writes: make(chan Envelope, 16),
	}
}

func (c *fakeConn) ReadJSON(v any) error {
	env, ok := <-c.in
	if !ok {
		return io.EOF
	}
	*(v.(*Envelope)) = env
	return nil
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("write on closed conn")
	}
	c.writes <- v.(Envelope)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.in)
	}
	return nil
}

func (c *fakeConn) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.in)
	}
}

func recvFrame(t *testing.T, c *fakeConn) Envelope {
	t.Helper()
	select {
	case env := <-c.writes:
		return env
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for client frame")
		return Envelope{}
	}
}

func testAdapter(t *testing.T, attempts int, dial Dialer) (*Adapter, *bus.Bus) {
	t.Helper()
	b := bus.New()
	a := NewWithDialer(
		Config{URL: "ws://test", UserID: "me", ReconnectAttempts: attempts},
		b, status.NewMachine(b), zap.NewNop(), dial,
	)
	t.Cleanup(a.Close)
	return a, b
}

func TestConnectSendsJoinHandshake(t *testing.T) {
	fc := newFakeConn()
	a, _ := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })

	if err := a.Connect(context.Background(), map[string]int64{"c1": 4}); err != nil {
		t.Fatal(err)
	}

	join := recvFrame(t, fc)
	if join.Type != "join" {
		t.Fatalf("first frame type = %q, want join", join.Type)
	}
	var payload joinPayload
	if err := json.Unmarshal(join.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.UID != "me" || payload.ReadInfo["c1"] != 4 {
		t.Errorf("join payload = %+v, want uid me with cursor c1:4", payload)
	}
}

func TestRequestAckCorrelation(t *testing.T) {
	fc := newFakeConn()
	a, _ := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })
	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	recvFrame(t, fc) // join

	go func() {
		req := <-fc.writes
		fc.in <- Envelope{Ack: req.Seq, OK: true, Data: json.RawMessage(`{"id":"u2"}`)}
	}()

	ack, err := a.Request(context.Background(), "fetchUser", map[string]string{"uid": "u2"})
	if err != nil {
		t.Fatal(err)
	}
	if !ack.OK {
		t.Error("ack.OK = false, want true")
	}
	if string(ack.Data) != `{"id":"u2"}` {
		t.Errorf("ack data = %s", ack.Data)
	}
}

func TestNotifySendsUnsequencedFrame(t *testing.T) {
	fc := newFakeConn()
	a, _ := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })
	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	recvFrame(t, fc) // join

	if err := a.Notify("channelUnread", map[string]int64{"c1": 9}); err != nil {
		t.Fatal(err)
	}
	env := recvFrame(t, fc)
	if env.Type != "channelUnread" {
		t.Fatalf("frame type = %q, want channelUnread", env.Type)
	}
	if env.Seq != 0 {
		t.Error("broadcast carried a sequence number, expects no ack")
	}

	a.Close()
	if err := a.Notify("channelUnread", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestRequestWhileDisconnected(t *testing.T) {
	a, _ := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return newFakeConn(), nil })

	if _, err := a.Request(context.Background(), "fetchUser", nil); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestPushPublishedOnBus(t *testing.T) {
	fc := newFakeConn()
	a, b := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })

	ch, unsub := b.Subscribe("server.newMessage", 4)
	defer unsub()

	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	fc.in <- Envelope{
		Type: "newMessage",
		Data: json.RawMessage(`{"id": "m1", "channelID": "c1", "userID": "other"}`),
	}

	select {
	case evt := <-ch:
		push, ok := evt.Payload.(state.MessagePushed)
		if !ok {
			t.Fatalf("payload type = %T, want MessagePushed", evt.Payload)
		}
		if push.Message.ID != "m1" {
			t.Errorf("message id = %q, want m1", push.Message.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for push on bus")
	}
}

func TestUnknownPushDroppedAtBoundary(t *testing.T) {
	fc := newFakeConn()
	a, b := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })

	ch, unsub := b.Subscribe("server.", 4)
	defer unsub()

	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	// The connect event itself arrives first.
	<-ch

	fc.in <- Envelope{Type: "presenceBlast", Data: json.RawMessage(`{}`)}
	fc.in <- Envelope{Type: "self", Data: json.RawMessage(`{"id": "me", "bio": "hi"}`)}

	select {
	case evt := <-ch:
		if evt.Kind != "server.self" {
			t.Errorf("kind = %q, want server.self (unknown push must be dropped)", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event after dropped push")
	}
}

func TestDisconnectFailsInFlightRequests(t *testing.T) {
	fc := newFakeConn()
	a, _ := testAdapter(t, 0, func(context.Context, string) (Conn, error) { return fc, nil })
	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	recvFrame(t, fc) // join

	errCh := make(chan error, 1)
	go func() {
		_, err := a.Request(context.Background(), "fetchMessages", nil)
		errCh <- err
	}()
	recvFrame(t, fc) // wait until the request is in flight
	fc.drop()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrConnectionLost) {
			t.Errorf("err = %v, want ErrConnectionLost", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for in-flight request to fail")
	}
}

func TestReconnectWithinBudget(t *testing.T) {
	first := newFakeConn()
	second := newFakeConn()
	var mu sync.Mutex
	dials := 0
	dial := func(context.Context, string) (Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		dials++
		if dials == 1 {
			return first, nil
		}
		return second, nil
	}

	a, b := testAdapter(t, 1, dial)
	ch, unsub := b.Subscribe("server.", 8)
	defer unsub()

	if err := a.Connect(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	recvFrame(t, first) // join
	first.drop()

	// Expect connect, disconnect, then connect again after the retry.
	want := []state.ConnStatus{state.ConnConnected, state.ConnDisconnected, state.ConnConnected}
	for _, wantStatus := range want {
		select {
		case evt := <-ch:
			change := evt.Payload.(state.ConnectionChanged)
			if change.Status != wantStatus {
				t.Fatalf("connection status = %q, want %q", change.Status, wantStatus)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for %q", wantStatus)
		}
	}

	join := recvFrame(t, second)
	if join.Type != "join" {
		t.Errorf("reconnect frame type = %q, want join", join.Type)
	}
}
