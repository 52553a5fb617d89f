package bus

import (
	"testing"
	"time"
)

func TestPublishReachesMatchingPrefix(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("server.", 4)
	defer unsub()

	b.Publish(Event{Kind: "server.newMessage", Payload: "hi"})

	select {
	case evt := <-ch:
		if evt.Kind != "server.newMessage" {
			t.Errorf("kind = %q, want server.newMessage", evt.Kind)
		}
		if evt.At.IsZero() {
			t.Error("At not stamped")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPublishSkipsOtherPrefixes(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("state.", 4)
	defer unsub()

	b.Publish(Event{Kind: "server.newMessage"})

	select {
	case evt := <-ch:
		t.Errorf("unexpected event %q on state. subscription", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("server.", 4)
	unsub()

	b.Publish(Event{Kind: "server.newMessage"})

	select {
	case evt := <-ch:
		t.Errorf("unexpected event %q after unsubscribe", evt.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBlockingSubscriberLosesNothing(t *testing.T) {
	b := New()
	ch, unsub := b.SubscribeBlocking("server.", 1)
	defer unsub()

	const n = 20
	go func() {
		for i := 0; i < n; i++ {
			b.Publish(Event{Kind: "server.newMessage", Payload: i})
		}
	}()

	// Drain slowly; the tiny buffer forces the publisher to wait
	// instead of dropping.
	for i := 0; i < n; i++ {
		select {
		case evt := <-ch:
			if evt.Payload.(int) != i {
				t.Fatalf("event %d carried payload %v, want %d (lost or reordered)", i, evt.Payload, i)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for event %d of %d", i, n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestUnsubscribeReleasesBlockedPublisher(t *testing.T) {
	b := New()
	_, unsub := b.SubscribeBlocking("server.", 1)

	released := make(chan struct{})
	go func() {
		// Second publish blocks on the full, undrained buffer.
		b.Publish(Event{Kind: "server.newMessage"})
		b.Publish(Event{Kind: "server.newMessage"})
		close(released)
	}()

	time.Sleep(20 * time.Millisecond)
	unsub()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after unsubscribe")
	}
}

func TestFullSubscriberDoesNotBlockPublish(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe("server.", 1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(Event{Kind: "server.newMessage"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
