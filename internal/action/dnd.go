package action

import (
	"context"
	"fmt"
	"time"

	"clocked/internal/eventbus"
	"clocked/internal/oscmd"
	logx "clocked/pkg/logx"
)

// DoNotDisturb enables notification suppression and tells observers about
// the new state.
type DoNotDisturb struct {
	exec   oscmd.Executor
	bus    eventbus.Bus
	pol    Policy
	log    logx.Logger
	timers *TimerStore
}

func NewDoNotDisturb(exec oscmd.Executor, bus eventbus.Bus, pol Policy, log logx.Logger) *DoNotDisturb {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &DoNotDisturb{
		exec:   exec,
		bus:    bus,
		pol:    pol.withDefaults(),
		log:    log.With(logx.String("action", "do-not-disturb")),
		timers: NewTimerStore(),
	}
}

func (d *DoNotDisturb) Type() string { return TypeDoNotDisturb }
func (d *DoNotDisturb) Name() string { return "Modo Não Perturbe" }
func (d *DoNotDisturb) Icon() string { return "ph-moon" }

func (d *DoNotDisturb) Execute(ctx context.Context, cfg Config, target time.Time) Result {
	delay, v := d.pol.classify(target, false)
	switch v {
	case tooFar:
		return fail(MsgTooFarInFuture)
	case runNow:
		return d.set(ctx, true)
	}

	d.timers.Arm(cfg.ID, delay, func() {
		if res := d.set(context.Background(), true); !res.Success {
			d.log.Error("dnd failed at fire time", logx.String("id", cfg.ID), logx.String("msg", res.Message))
		}
	})
	d.log.Info("dnd armed", logx.String("id", cfg.ID), logx.Time("target", target))
	return ok(fmt.Sprintf("Modo não perturbe agendado para %s", formatTarget(target)))
}

func (d *DoNotDisturb) set(ctx context.Context, enabled bool) Result {
	if err := d.exec.SetDoNotDisturb(ctx, enabled); err != nil {
		d.log.Error("dnd command failed", logx.Err(err))
		return fail("Erro ao ativar o modo não perturbe")
	}
	eventbus.Emit(d.bus, eventbus.TopicDNDTriggered, eventbus.DNDTriggered{Enabled: enabled})

	state := "desativado"
	if enabled {
		state = "ativado"
	}
	return ok(fmt.Sprintf("Modo não perturbe %s com sucesso", state))
}

func (d *DoNotDisturb) Cancel(_ context.Context, cfg Config) Result {
	if !d.timers.Cancel(cfg.ID) {
		return fail("Nenhum modo não perturbe agendado para cancelar")
	}
	return ok("Modo não perturbe cancelado com sucesso")
}
