// Package action implements the executable effects a scheduled event can
// carry: power transitions, screen lock, do-not-disturb, alarms and URL
// opening. Each variant owns its own timer bookkeeping and converts every
// internal failure into a Result; errors never escape to callers.
package action

import (
	"context"
	"time"
)

// Wire identifiers of the built-in action variants.
const (
	TypeShutdown     = "shutdown"
	TypeRestart      = "restart"
	TypeHibernate    = "hibernate"
	TypeAlarm        = "alarm"
	TypeLockScreen   = "lock-screen"
	TypeDoNotDisturb = "do-not-disturb"
	TypeOpenURL      = "open-url"
)

// Config is the per-event parameterization of one action.
type Config struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// StringParam returns params[key] when it is a string, else "".
func (c Config) StringParam(key string) string {
	if c.Params == nil {
		return ""
	}
	s, _ := c.Params[key].(string)
	return s
}

// Title returns the event title injected by the manager at fire time.
func (c Config) Title() string { return c.StringParam("title") }

// WithTitle returns a copy of the config with the event title added to the
// params, leaving the original untouched.
func (c Config) WithTitle(title string) Config {
	params := make(map[string]any, len(c.Params)+1)
	for k, v := range c.Params {
		params[k] = v
	}
	params["title"] = title
	c.Params = params
	return c
}

// Result is the structured outcome of Execute/Cancel. Data is diagnostic
// only and must never be used for cross-action coordination.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(msg string) Result          { return Result{Success: true, Message: msg} }
func fail(msg string) Result        { return Result{Success: false, Message: msg} }
func okData(msg string, d any) Result { return Result{Success: true, Message: msg, Data: d} }

// Action is the mandatory capability set of every variant.
//
// Execute either performs the effect immediately (when target is already
// due) or arms a delayed trigger keyed by cfg.ID and returns promptly.
// A second Execute for the same cfg.ID replaces the previous trigger.
type Action interface {
	Type() string
	Name() string
	Icon() string
	Execute(ctx context.Context, cfg Config, target time.Time) Result
}

// Canceler is the optional cancel capability. Cancel is idempotent: with no
// outstanding trigger or active effect it returns a "nothing to cancel"
// failure Result, never an error.
type Canceler interface {
	Cancel(ctx context.Context, cfg Config) Result
}

// Validator is the optional pre-scheduling validation capability.
type Validator interface {
	Validate(cfg Config) error
}

// Cancel invokes a's cancel capability if it has one.
func Cancel(ctx context.Context, a Action, cfg Config) (Result, bool) {
	c, okC := a.(Canceler)
	if !okC {
		return Result{}, false
	}
	return c.Cancel(ctx, cfg), true
}

// Validate invokes a's validate capability if it has one.
func Validate(a Action, cfg Config) error {
	v, okV := a.(Validator)
	if !okV {
		return nil
	}
	return v.Validate(cfg)
}

// Policy bounds when an action may arm or run. The zero value resolves to
// a 24h horizon, 30s fire slack and the wall clock.
type Policy struct {
	Now       func() time.Time
	Horizon   time.Duration
	FireSlack time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Horizon <= 0 {
		p.Horizon = 24 * time.Hour
	}
	if p.FireSlack <= 0 {
		p.FireSlack = 30 * time.Second
	}
	return p
}

type verdict int

const (
	runNow verdict = iota
	armLater
	tooLate
	tooFar
)

// classify decides what Execute should do for the given target time.
//
// Destructive actions never degrade a stale target into an immediate
// effect: anything older than the fire slack is rejected. Soft actions run
// immediately for any due target.
func (p Policy) classify(target time.Time, destructive bool) (time.Duration, verdict) {
	delay := target.Sub(p.Now())
	switch {
	case delay > p.Horizon:
		return delay, tooFar
	case delay > 0:
		return delay, armLater
	case !destructive:
		return delay, runNow
	case delay > -p.FireSlack:
		return delay, runNow
	default:
		return delay, tooLate
	}
}

// formatTarget renders a target time the way results show it to users.
func formatTarget(t time.Time) string {
	return t.Format("02/01/2006 15:04:05")
}
