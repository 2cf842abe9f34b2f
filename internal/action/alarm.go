package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clocked/internal/eventbus"
	"clocked/internal/sound"
	logx "clocked/pkg/logx"
)

// Alarm announces that an event's time arrived. The core only emits the
// triggered/stopped notifications and tracks which action ids are ringing;
// playback looping belongs to the observer that receives alarm-triggered.
type Alarm struct {
	bus    eventbus.Bus
	sounds *sound.Resolver
	pol    Policy
	log    logx.Logger
	timers *TimerStore

	mu      sync.Mutex
	ringing map[string]string // action id -> title
}

func NewAlarm(bus eventbus.Bus, sounds *sound.Resolver, pol Policy, log logx.Logger) *Alarm {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Alarm{
		bus:     bus,
		sounds:  sounds,
		pol:     pol.withDefaults(),
		log:     log.With(logx.String("action", "alarm")),
		timers:  NewTimerStore(),
		ringing: map[string]string{},
	}
}

func (a *Alarm) Type() string { return TypeAlarm }
func (a *Alarm) Name() string { return "Alarme" }
func (a *Alarm) Icon() string { return "ph-bell" }

func (a *Alarm) Execute(_ context.Context, cfg Config, target time.Time) Result {
	delay, v := a.pol.classify(target, false)
	switch v {
	case tooFar:
		return fail(MsgTooFarInFuture)
	case runNow:
		a.trigger(cfg)
		return ok("Alarme disparado")
	}

	a.timers.Arm(cfg.ID, delay, func() { a.trigger(cfg) })
	a.log.Info("alarm armed", logx.String("id", cfg.ID), logx.Time("target", target))
	return ok(fmt.Sprintf("Alarme agendado para %s", formatTarget(target)))
}

func (a *Alarm) trigger(cfg Config) {
	title := cfg.Title()
	if title == "" {
		title = "Alarme"
	}
	path := a.sounds.AlarmPath()

	a.mu.Lock()
	a.ringing[cfg.ID] = title
	a.mu.Unlock()

	a.log.Info("alarm ringing", logx.String("id", cfg.ID), logx.String("title", title), logx.String("sound", path))
	eventbus.Emit(a.bus, eventbus.TopicAlarmTriggered, eventbus.AlarmTriggered{
		ActionID:  cfg.ID,
		Title:     title,
		AlarmPath: path,
	})
}

// Stop ends a ringing alarm and notifies observers. It reports whether the
// alarm was actually ringing; stopping twice converges on the same state.
func (a *Alarm) Stop(actionID string) bool {
	a.mu.Lock()
	_, wasRinging := a.ringing[actionID]
	delete(a.ringing, actionID)
	a.mu.Unlock()

	if !wasRinging {
		return false
	}
	a.log.Info("alarm stopped", logx.String("id", actionID))
	eventbus.Emit(a.bus, eventbus.TopicAlarmStopped, eventbus.AlarmStopped{ActionID: actionID})
	return true
}

// Ringing reports whether actionID is currently ringing.
func (a *Alarm) Ringing(actionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, r := a.ringing[actionID]
	return r
}

func (a *Alarm) Cancel(_ context.Context, cfg Config) Result {
	hadTimer := a.timers.Cancel(cfg.ID)
	wasRinging := a.Stop(cfg.ID)

	if !hadTimer && !wasRinging {
		return fail("Nenhum alarme agendado para cancelar")
	}
	return ok("Alarme cancelado com sucesso")
}
