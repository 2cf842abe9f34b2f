package history

import (
	"context"
	"strings"
	"time"

	"clocked/internal/eventbus"
	"clocked/pkg/logx"
)

// Recorder drains scheduling outcomes off the bus into the journal. It is
// a passive observer; journal failures are logged and dropped so they can
// never stall the scheduler.
type Recorder struct {
	journal *Journal
	log     logx.Logger

	unsub func()
	done  chan struct{}
}

func NewRecorder(journal *Journal, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{journal: journal, log: log}
}

// Start subscribes to bus and consumes until Stop.
func (r *Recorder) Start(bus eventbus.Bus) {
	ch, unsub := bus.Subscribe(64)
	r.unsub = unsub
	r.done = make(chan struct{})
	go r.loop(ch)
}

// Stop unsubscribes and waits for the drain goroutine to exit.
func (r *Recorder) Stop() {
	if r.unsub == nil {
		return
	}
	r.unsub()
	<-r.done
}

func (r *Recorder) loop(ch <-chan eventbus.Event) {
	defer close(r.done)
	for e := range ch {
		entry, ok := entryFor(e)
		if !ok {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := r.journal.Append(ctx, entry)
		cancel()
		if err != nil {
			r.log.Warn("history append failed",
				logx.String("event_id", entry.EventID),
				logx.String("kind", entry.Kind),
				logx.Err(err))
		}
	}
}

func entryFor(e eventbus.Event) (Entry, bool) {
	switch e.Type {
	case eventbus.TopicEventFired:
		p, ok := e.Data.(eventbus.EventFired)
		if !ok {
			return Entry{}, false
		}
		return Entry{
			At:      e.Time,
			EventID: p.EventID,
			Kind:    KindFired,
			Title:   p.Title,
			Detail:  strings.Join(p.Results, "; "),
		}, true
	case eventbus.TopicEventRetired:
		p, ok := e.Data.(eventbus.EventRetired)
		if !ok {
			return Entry{}, false
		}
		kind := KindCompleted
		switch p.Reason {
		case "cancelled":
			kind = KindCancelled
		case "deleted":
			kind = KindDeleted
		}
		return Entry{At: e.Time, EventID: p.EventID, Kind: kind}, true
	default:
		return Entry{}, false
	}
}
