package action

import (
	"sync"
	"time"
)

// TimerStore tracks outstanding one-shot triggers keyed by id. Each owner
// (an action variant, or the event manager) holds its own store; no two
// owners ever share one.
//
// Invariants:
//   - at most one live trigger per id (Arm replaces any prior trigger)
//   - a cancelled trigger's callback never runs, even if the underlying
//     timer already expired and its callback is waiting on the lock
//     (per-id version counters reject stale callbacks)
type TimerStore struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	ver    map[string]uint64
}

func NewTimerStore() *TimerStore {
	return &TimerStore{
		timers: map[string]*time.Timer{},
		ver:    map[string]uint64{},
	}
}

// Arm schedules fn to run after delay, replacing any outstanding trigger
// for id. fn runs on a timer goroutine with no locks held.
func (s *TimerStore) Arm(id string, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if t, exists := s.timers[id]; exists {
		_ = t.Stop()
	}
	ver := s.ver[id] + 1
	s.ver[id] = ver

	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.ver[id] != ver {
			// Replaced or cancelled after this timer expired; drop it.
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		delete(s.ver, id)
		s.mu.Unlock()

		fn()
	})
	s.mu.Unlock()
}

// Cancel stops and removes the trigger for id. It reports whether a live
// trigger existed.
func (s *TimerStore) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.timers[id]
	if !exists {
		return false
	}
	_ = t.Stop()
	delete(s.timers, id)
	// Bump so an already-expired callback blocked on the lock is rejected.
	s.ver[id]++
	return true
}

// Active reports whether id has a live trigger.
func (s *TimerStore) Active(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.timers[id]
	return exists
}

// Len returns the number of live triggers.
func (s *TimerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// CancelAll stops every live trigger.
func (s *TimerStore) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		_ = t.Stop()
		delete(s.timers, id)
		s.ver[id]++
	}
}
