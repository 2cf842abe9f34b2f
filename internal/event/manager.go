package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"clocked/internal/action"
	"clocked/internal/eventbus"
	"clocked/pkg/logx"
)

// Options configures a Manager. Zero fields fall back to sane defaults
// so tests can override only what they need.
type Options struct {
	Log      logx.Logger
	Bus      eventbus.Bus
	Registry *action.Registry

	// Now overrides the clock, Location the timezone used to resolve
	// "HH:MM" and "YYYY-MM-DD" into instants.
	Now      func() time.Time
	Location *time.Location

	// Horizon caps how far in the future a target may land. Defaults to
	// 24 hours.
	Horizon time.Duration
}

// Manager owns the live schedule. All operations are safe for concurrent
// use; action execution happens outside the manager lock so overlapping
// fires never serialize behind each other.
type Manager struct {
	log     logx.Logger
	bus     eventbus.Bus
	reg     *action.Registry
	now     func() time.Time
	loc     *time.Location
	horizon time.Duration
	timers  *action.TimerStore
	ctx     context.Context

	mu     sync.Mutex
	events map[string]*Event
}

func NewManager(opt Options) *Manager {
	m := &Manager{
		log:     opt.Log,
		bus:     opt.Bus,
		reg:     opt.Registry,
		now:     opt.Now,
		loc:     opt.Location,
		horizon: opt.Horizon,
		timers:  action.NewTimerStore(),
		ctx:     context.Background(),
		events:  make(map[string]*Event),
	}
	if m.log.IsZero() {
		m.log = logx.Nop()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.horizon <= 0 {
		m.horizon = 24 * time.Hour
	}
	return m
}

// CreateEvent validates def, arms its timer and registers it. Any
// validation failure leaves the manager untouched.
func (m *Manager) CreateEvent(def Def) Result {
	now := m.now()
	target, msg := m.validate(def, now)
	if msg != "" {
		return failure(msg)
	}

	ev := &Event{
		ID:             uuid.NewString(),
		Title:          def.Title,
		Time:           def.Time,
		Date:           def.Date,
		Repeat:         def.Repeat,
		Cron:           def.Cron,
		Actions:        append([]action.Config(nil), def.Actions...),
		CreatedAt:      now,
		TargetDateTime: target,
	}

	m.mu.Lock()
	m.events[ev.ID] = ev
	m.armLocked(ev, now)
	m.mu.Unlock()

	m.log.Info("event scheduled",
		logx.String("event_id", ev.ID),
		logx.String("title", ev.Title),
		logx.Time("target", target),
		logx.Int("actions", len(ev.Actions)))
	return Result{Success: true, Event: ev.clone(), Message: MsgEventCreated}
}

// UpdateEvent replaces an event's definition in place. The new definition
// is validated before the old schedule is touched, so a bad update leaves
// the original event armed. The event keeps its ID and CreatedAt.
func (m *Manager) UpdateEvent(id string, def Def) Result {
	m.mu.Lock()
	old, ok := m.events[id]
	if !ok {
		m.mu.Unlock()
		return failure(MsgEventNotFound)
	}
	createdAt := old.CreatedAt
	oldActions := append([]action.Config(nil), old.Actions...)
	m.mu.Unlock()

	now := m.now()
	target, msg := m.validate(def, now)
	if msg != "" {
		return failure(msg)
	}

	m.timers.Cancel(id)
	m.cancelActions(oldActions)

	m.mu.Lock()
	if _, still := m.events[id]; !still {
		// Fired or was deleted between validation and re-arm.
		m.mu.Unlock()
		return failure(MsgEventNotFound)
	}
	ev := &Event{
		ID:             id,
		Title:          def.Title,
		Time:           def.Time,
		Date:           def.Date,
		Repeat:         def.Repeat,
		Cron:           def.Cron,
		Actions:        append([]action.Config(nil), def.Actions...),
		CreatedAt:      createdAt,
		TargetDateTime: target,
	}
	m.events[id] = ev
	m.armLocked(ev, now)
	m.mu.Unlock()

	m.log.Info("event updated",
		logx.String("event_id", id),
		logx.Time("target", target))
	return Result{Success: true, Event: ev.clone(), Message: MsgEventUpdated}
}

// CancelEvent disarms an event and asks each of its actions to undo any
// pending side effect (native shutdown countdowns, ringing alarms).
func (m *Manager) CancelEvent(id string) Result {
	ev, ok := m.remove(id)
	if !ok {
		return failure(MsgEventNotFound)
	}
	m.cancelActions(ev.Actions)
	eventbus.Emit(m.bus, eventbus.TopicEventRetired, eventbus.EventRetired{
		EventID: id,
		Reason:  "cancelled",
	})
	m.log.Info("event cancelled", logx.String("event_id", id))
	return Result{Success: true, Message: MsgEventCancelled}
}

// DeleteEvent removes an event entirely. Like CancelEvent it tears the
// pending action side effects down first; a delete that leaves a native
// shutdown counting down would be a loaded gun.
func (m *Manager) DeleteEvent(id string) Result {
	ev, ok := m.remove(id)
	if !ok {
		return failure(MsgEventNotFound)
	}
	m.cancelActions(ev.Actions)
	eventbus.Emit(m.bus, eventbus.TopicEventRetired, eventbus.EventRetired{
		EventID: id,
		Reason:  "deleted",
	})
	m.log.Info("event deleted", logx.String("event_id", id))
	return Result{Success: true, Message: MsgEventDeleted}
}

// GetEvent returns a snapshot of one event.
func (m *Manager) GetEvent(id string) (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return Event{}, false
	}
	return *ev.clone(), true
}

// GetAllEvents returns snapshots of every live event ordered by target
// time, soonest first.
func (m *Manager) GetAllEvents() []Event {
	m.mu.Lock()
	out := make([]Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, *ev.clone())
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].TargetDateTime.Before(out[j].TargetDateTime)
	})
	return out
}

// StopAlarm silences one ringing alarm by its action id.
func (m *Manager) StopAlarm(actionID string) Result {
	a, ok := m.reg.Get(action.TypeAlarm)
	if !ok {
		return failure(msgNoAlarmRinging)
	}
	al, ok := a.(*action.Alarm)
	if !ok {
		return failure(msgNoAlarmRinging)
	}
	if !al.Stop(actionID) {
		return failure(msgNoAlarmRinging)
	}
	return Result{Success: true, Message: msgAlarmStopped}
}

// ScheduleShutdown is the legacy single-shutdown entry point: it wraps
// the target instant in a one-off event carrying a single shutdown
// action.
func (m *Manager) ScheduleShutdown(at time.Time) Result {
	at = at.In(m.loc)
	return m.CreateEvent(Def{
		Title: "Desligar",
		Time:  at.Format("15:04"),
		Date:  at.Format("2006-01-02"),
		Actions: []action.Config{{
			ID:   fmt.Sprintf("shutdown-%d", m.now().UnixNano()),
			Type: action.TypeShutdown,
		}},
	})
}

// CancelShutdown cancels the soonest event carrying a shutdown action.
func (m *Manager) CancelShutdown() Result {
	id, ok := m.findShutdown()
	if !ok {
		return failure(msgNoShutdown)
	}
	return m.CancelEvent(id)
}

// ScheduledShutdownActive reports whether any live event will shut the
// machine down.
func (m *Manager) ScheduledShutdownActive() bool {
	_, ok := m.findShutdown()
	return ok
}

// Stop disarms every timer. Events stay registered so a caller can still
// inspect them, but nothing fires after Stop returns.
func (m *Manager) Stop() {
	m.timers.CancelAll()
}

func (m *Manager) findShutdown() (string, bool) {
	for _, ev := range m.GetAllEvents() {
		for _, cfg := range ev.Actions {
			if cfg.Type == action.TypeShutdown {
				return ev.ID, true
			}
		}
	}
	return "", false
}

func (m *Manager) remove(id string) (*Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return nil, false
	}
	m.timers.Cancel(id)
	delete(m.events, id)
	return ev, true
}

// armLocked arms the fire timer for ev. Callers hold m.mu.
func (m *Manager) armLocked(ev *Event, now time.Time) {
	id := ev.ID
	m.timers.Arm(id, ev.TargetDateTime.Sub(now), func() { m.fire(id) })
}

// fire runs every action of the event in definition order, publishes the
// outcome and either re-arms (repeat or cron) or retires the event.
func (m *Manager) fire(id string) {
	m.mu.Lock()
	ev, ok := m.events[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	title := ev.Title
	target := ev.TargetDateTime
	cfgs := append([]action.Config(nil), ev.Actions...)
	m.mu.Unlock()

	m.log.Info("event firing",
		logx.String("event_id", id),
		logx.String("title", title))

	results := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		a, ok := m.reg.Get(cfg.Type)
		if !ok {
			results = append(results, cfg.Type+": ação desconhecida")
			m.log.Warn("unknown action type at fire time",
				logx.String("event_id", id),
				logx.String("type", cfg.Type))
			continue
		}
		res := a.Execute(m.ctx, cfg.WithTitle(title), target)
		if res.Success {
			results = append(results, cfg.Type+": "+res.Message)
		} else {
			results = append(results, cfg.Type+": "+res.Message)
			m.log.Warn("action failed",
				logx.String("event_id", id),
				logx.String("type", cfg.Type),
				logx.String("message", res.Message))
		}
	}
	eventbus.Emit(m.bus, eventbus.TopicEventFired, eventbus.EventFired{
		EventID: id,
		Title:   title,
		Results: results,
	})

	m.mu.Lock()
	ev, ok = m.events[id]
	if !ok {
		// Cancelled or deleted while the actions ran.
		m.mu.Unlock()
		return
	}
	now := m.now()
	if next, repeats := m.nextOccurrence(ev, target, now); repeats {
		ev.TargetDateTime = next
		m.armLocked(ev, now)
		m.mu.Unlock()
		m.log.Info("event rescheduled",
			logx.String("event_id", id),
			logx.Time("next", next))
		return
	}
	ev.Completed = true
	delete(m.events, id)
	m.mu.Unlock()

	eventbus.Emit(m.bus, eventbus.TopicEventRetired, eventbus.EventRetired{
		EventID: id,
		Reason:  "completed",
	})
	m.log.Info("event completed", logx.String("event_id", id))
}

// nextOccurrence returns the next target after a fire at "from". Missed
// repeat slots are skipped rather than replayed.
func (m *Manager) nextOccurrence(ev *Event, from, now time.Time) (time.Time, bool) {
	if ev.Cron != "" {
		sched, err := cron.ParseStandard(ev.Cron)
		if err != nil {
			// Validated at create time; a parse failure here means the
			// expression was mutated, so stop repeating.
			m.log.Error("cron expression no longer parses",
				logx.String("event_id", ev.ID),
				logx.Err(err))
			return time.Time{}, false
		}
		base := from
		if now.After(base) {
			base = now
		}
		return sched.Next(base.In(m.loc)), true
	}
	if ev.Repeat > 0 {
		step := time.Duration(ev.Repeat) * time.Minute
		next := from.Add(step)
		for !next.After(now) {
			next = next.Add(step)
		}
		return next, true
	}
	return time.Time{}, false
}

// cancelActions gives each action a chance to undo pending side effects.
// "Nothing to cancel" is the normal case for most of them and only worth
// a debug line.
func (m *Manager) cancelActions(cfgs []action.Config) {
	for _, cfg := range cfgs {
		a, ok := m.reg.Get(cfg.Type)
		if !ok {
			continue
		}
		res, supported := action.Cancel(m.ctx, a, cfg)
		if supported && !res.Success {
			m.log.Debug("action cancel reported nothing pending",
				logx.String("type", cfg.Type),
				logx.String("message", res.Message))
		}
	}
}

// validate resolves def into a target instant or a user-facing message.
func (m *Manager) validate(def Def, now time.Time) (time.Time, string) {
	if len(def.Actions) == 0 {
		return time.Time{}, msgNoActions
	}
	if def.Repeat < 0 || time.Duration(def.Repeat)*time.Minute > m.horizon {
		return time.Time{}, msgInvalidRepeat
	}
	if def.Repeat > 0 && def.Cron != "" {
		return time.Time{}, msgRepeatAndCron
	}
	if def.Cron != "" {
		if _, err := cron.ParseStandard(def.Cron); err != nil {
			return time.Time{}, msgInvalidCron
		}
	}

	target, err := m.resolveTarget(def, now)
	if err != nil {
		return time.Time{}, err.Error()
	}
	if !target.After(now) {
		return time.Time{}, action.MsgAlreadyPassed
	}
	if target.Sub(now) > m.horizon {
		return time.Time{}, action.MsgTooFarInFuture
	}

	for _, cfg := range def.Actions {
		a, ok := m.reg.Get(cfg.Type)
		if !ok {
			return time.Time{}, fmt.Sprintf("Ação desconhecida: %s", cfg.Type)
		}
		if err := action.Validate(a, cfg); err != nil {
			return time.Time{}, err.Error()
		}
	}
	return target, ""
}

// resolveTarget combines def.Date and def.Time in the manager's timezone.
// Without a date the target is today's occurrence of the time, rolled to
// tomorrow when it already passed.
func (m *Manager) resolveTarget(def Def, now time.Time) (time.Time, error) {
	hh, mm, err := parseHHMM(def.Time)
	if err != nil {
		return time.Time{}, errors.New(msgInvalidTime)
	}
	now = now.In(m.loc)
	if def.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", def.Date, m.loc)
		if err != nil {
			return time.Time{}, errors.New(msgInvalidDate)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, m.loc), nil
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, m.loc)
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target, nil
}

func parseHHMM(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	return hh, mm, nil
}
