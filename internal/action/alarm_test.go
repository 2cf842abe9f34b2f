package action

import (
	"context"
	"testing"
	"time"

	"clocked/internal/eventbus"
	"clocked/internal/sound"
	logx "clocked/pkg/logx"
)

func newTestAlarm(t *testing.T) (*Alarm, <-chan eventbus.Event) {
	t.Helper()
	bus := eventbus.New()
	ch, unsub := bus.Subscribe(8)
	t.Cleanup(unsub)
	a := NewAlarm(bus, sound.NewResolver(logx.Nop(), "/tmp/alarm.mp3"), Policy{}, logx.Nop())
	return a, ch
}

func waitFor(t *testing.T, ch <-chan eventbus.Event, topic string) eventbus.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case e := <-ch:
			if e.Type == topic {
				return e
			}
		case <-deadline:
			t.Fatalf("no %s event", topic)
		}
	}
}

func TestAlarmImmediateWhenDue(t *testing.T) {
	t.Parallel()
	a, ch := newTestAlarm(t)

	cfg := Config{ID: "a1", Type: "alarm"}.WithTitle("Lembrete")
	res := a.Execute(context.Background(), cfg, time.Now().Add(-time.Second))
	if !res.Success {
		t.Fatalf("execute failed: %s", res.Message)
	}

	e := waitFor(t, ch, eventbus.TopicAlarmTriggered)
	got := e.Data.(eventbus.AlarmTriggered)
	if got.ActionID != "a1" || got.Title != "Lembrete" || got.AlarmPath == "" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if !a.Ringing("a1") {
		t.Fatal("alarm not tracked as ringing")
	}
}

func TestAlarmStopConverges(t *testing.T) {
	t.Parallel()
	a, ch := newTestAlarm(t)

	cfg := Config{ID: "a1", Type: "alarm"}
	a.Execute(context.Background(), cfg, time.Now().Add(-time.Second))
	waitFor(t, ch, eventbus.TopicAlarmTriggered)

	if !a.Stop("a1") {
		t.Fatal("Stop reported not ringing")
	}
	waitFor(t, ch, eventbus.TopicAlarmStopped)

	if a.Stop("a1") {
		t.Fatal("second Stop reported ringing")
	}
	// After an explicit stop there is nothing left to cancel.
	res := a.Cancel(context.Background(), cfg)
	if res.Success {
		t.Fatalf("cancel after stop succeeded: %+v", res)
	}
}

func TestAlarmScheduledThenCancelled(t *testing.T) {
	t.Parallel()
	a, ch := newTestAlarm(t)

	cfg := Config{ID: "a1", Type: "alarm"}
	res := a.Execute(context.Background(), cfg, time.Now().Add(time.Hour))
	if !res.Success {
		t.Fatalf("execute failed: %s", res.Message)
	}

	res = a.Cancel(context.Background(), cfg)
	if !res.Success {
		t.Fatalf("cancel failed: %s", res.Message)
	}

	// Nothing should ever ring.
	select {
	case e := <-ch:
		if e.Type == eventbus.TopicAlarmTriggered {
			t.Fatal("cancelled alarm rang")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAlarmDefaultTitle(t *testing.T) {
	t.Parallel()
	a, ch := newTestAlarm(t)

	a.Execute(context.Background(), Config{ID: "a2", Type: "alarm"}, time.Now())
	e := waitFor(t, ch, eventbus.TopicAlarmTriggered)
	if got := e.Data.(eventbus.AlarmTriggered).Title; got != "Alarme" {
		t.Fatalf("Title = %q, want Alarme", got)
	}
}
