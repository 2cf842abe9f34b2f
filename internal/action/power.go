package action

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clocked/internal/oscmd"
	logx "clocked/pkg/logx"
)

// PowerKind selects which power transition a Power action performs.
type PowerKind int

const (
	KindShutdown PowerKind = iota
	KindRestart
	KindHibernate
)

// Power is the destructive action family: shutdown, restart and hibernate.
// A stale target time is rejected rather than executed, because the effect
// is hard to reverse.
type Power struct {
	kind       PowerKind
	actionType string
	name       string
	icon       string

	exec   oscmd.Executor
	pol    Policy
	log    logx.Logger
	timers *TimerStore
}

func NewShutdown(exec oscmd.Executor, pol Policy, log logx.Logger) *Power {
	return newPower(KindShutdown, TypeShutdown, "Desligar", "ph-power", exec, pol, log)
}

func NewRestart(exec oscmd.Executor, pol Policy, log logx.Logger) *Power {
	return newPower(KindRestart, TypeRestart, "Reiniciar", "ph-arrow-clockwise", exec, pol, log)
}

func NewHibernate(exec oscmd.Executor, pol Policy, log logx.Logger) *Power {
	return newPower(KindHibernate, TypeHibernate, "Hibernar", "ph-bed", exec, pol, log)
}

func newPower(kind PowerKind, actionType, name, icon string, exec oscmd.Executor, pol Policy, log logx.Logger) *Power {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Power{
		kind:       kind,
		actionType: actionType,
		name:       name,
		icon:       icon,
		exec:       exec,
		pol:        pol.withDefaults(),
		log:        log.With(logx.String("action", actionType)),
		timers:     NewTimerStore(),
	}
}

func (p *Power) Type() string { return p.actionType }
func (p *Power) Name() string { return p.name }
func (p *Power) Icon() string { return p.icon }

func (p *Power) Execute(ctx context.Context, cfg Config, target time.Time) Result {
	delay, v := p.pol.classify(target, true)
	switch v {
	case tooLate:
		return fail(MsgAlreadyPassed)
	case tooFar:
		return fail(MsgTooFarInFuture)
	case runNow:
		return p.run(ctx)
	}

	p.timers.Arm(cfg.ID, delay, func() {
		res := p.run(context.Background())
		if !res.Success {
			p.log.Error("power action failed at fire time", logx.String("id", cfg.ID), logx.String("msg", res.Message))
		}
	})
	p.log.Info("power action armed", logx.String("id", cfg.ID), logx.Time("target", target), logx.Duration("delay", delay))

	return okData(fmt.Sprintf("%s agendado para %s", p.name, formatTarget(target)), map[string]any{"armed": true})
}

func (p *Power) run(ctx context.Context) Result {
	var err error
	switch p.kind {
	case KindShutdown:
		err = p.exec.Shutdown(ctx)
	case KindRestart:
		err = p.exec.Reboot(ctx)
	case KindHibernate:
		err = p.exec.Hibernate(ctx)
	}
	if err != nil {
		p.log.Error("power command failed", logx.Err(err))
		return fail(fmt.Sprintf("Erro ao executar %s", lowerFirst(p.name)))
	}
	return ok(fmt.Sprintf("%s executado com sucesso", p.name))
}

func (p *Power) Cancel(ctx context.Context, cfg Config) Result {
	cancelled := p.timers.Cancel(cfg.ID)

	// Best-effort: also abort a native scheduled shutdown when the platform
	// tracks one. Failure to abort is logged, never fatal.
	if p.kind == KindShutdown {
		if err := p.exec.CancelScheduledShutdown(ctx); err != nil && !errors.Is(err, oscmd.ErrNothingScheduled) {
			p.log.Warn("could not abort native scheduled shutdown", logx.Err(err))
		}
	}

	if !cancelled {
		return fail(fmt.Sprintf("Nenhum %s agendado para cancelar", lowerFirst(p.name)))
	}
	p.log.Info("power action cancelled", logx.String("id", cfg.ID))
	return ok(fmt.Sprintf("%s cancelado com sucesso", p.name))
}

// Pending reports whether cfg id has an armed trigger. Diagnostic only.
func (p *Power) Pending(id string) bool { return p.timers.Active(id) }

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}
