package events

import (
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe("t1")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe("t1")
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "note.created", Tenant: "t1", Path: "a.md", URI: "note://a.md"})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: note.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"a.md"`) {
			t.Errorf("missing path in %q", s)
		}
		if !strings.Contains(s, `"uri":"note://a.md"`) {
			t.Errorf("missing uri in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestEventsAreTenantScoped(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	mine := b.Subscribe("t1")
	other := b.Subscribe("t2")
	defer b.Unsubscribe(mine)
	defer b.Unsubscribe(other)

	b.Publish(Event{Type: "note.created", Tenant: "t1", Path: "x.md", URI: "note://x.md"})

	select {
	case <-mine:
	case <-time.After(time.Second):
		t.Fatal("t1 client did not receive its event")
	}

	select {
	case msg := <-other:
		t.Fatalf("t2 client received t1's event: %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("t1")
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after broker shutdown")
	}
	if got := b.ClientCount(); got != 0 {
		t.Errorf("ClientCount after close = %d", got)
	}
	// Publishing after close must not panic or block.
	b.Publish(Event{Type: "note.created", Tenant: "t1"})
}
