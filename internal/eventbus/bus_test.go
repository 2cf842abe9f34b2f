package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	Emit(b, TopicAlarmTriggered, AlarmTriggered{ActionID: "a1", Title: "Lembrete"})

	select {
	case e := <-ch:
		if e.Type != TopicAlarmTriggered {
			t.Fatalf("Type = %q, want %q", e.Type, TopicAlarmTriggered)
		}
		got, ok := e.Data.(AlarmTriggered)
		if !ok {
			t.Fatalf("Data has type %T", e.Data)
		}
		if got.ActionID != "a1" || got.Title != "Lembrete" {
			t.Fatalf("unexpected payload: %+v", got)
		}
		if e.Time.IsZero() {
			t.Fatal("Publish did not stamp Time")
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	// Second publish must not block even though the buffer is full.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: "x"})
		b.Publish(Event{Type: "y"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if e := <-ch; e.Type != "x" {
		t.Fatalf("first delivered event = %q, want x", e.Type)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()
	b := New()
	_, unsub := b.Subscribe(1)
	unsub()
	unsub() // must not panic

	// Publishing after unsubscribe must not panic either.
	b.Publish(Event{Type: "after"})
}
