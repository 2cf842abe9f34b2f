package action

import (
	"context"
	"fmt"
	"time"

	"clocked/internal/oscmd"
	logx "clocked/pkg/logx"
)

// LockScreen locks the session, immediately when due or after a delay.
type LockScreen struct {
	exec   oscmd.Executor
	pol    Policy
	log    logx.Logger
	timers *TimerStore
}

func NewLockScreen(exec oscmd.Executor, pol Policy, log logx.Logger) *LockScreen {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LockScreen{
		exec:   exec,
		pol:    pol.withDefaults(),
		log:    log.With(logx.String("action", "lock-screen")),
		timers: NewTimerStore(),
	}
}

func (l *LockScreen) Type() string { return TypeLockScreen }
func (l *LockScreen) Name() string { return "Bloquear Tela" }
func (l *LockScreen) Icon() string { return "ph-lock" }

func (l *LockScreen) Execute(ctx context.Context, cfg Config, target time.Time) Result {
	delay, v := l.pol.classify(target, false)
	switch v {
	case tooFar:
		return fail(MsgTooFarInFuture)
	case runNow:
		return l.lock(ctx)
	}

	l.timers.Arm(cfg.ID, delay, func() {
		if res := l.lock(context.Background()); !res.Success {
			l.log.Error("lock failed at fire time", logx.String("id", cfg.ID), logx.String("msg", res.Message))
		}
	})
	l.log.Info("lock armed", logx.String("id", cfg.ID), logx.Time("target", target))
	return ok(fmt.Sprintf("Bloquear tela agendado para %s", formatTarget(target)))
}

func (l *LockScreen) lock(ctx context.Context) Result {
	if err := l.exec.Lock(ctx); err != nil {
		l.log.Error("lock command failed", logx.Err(err))
		return fail("Erro ao bloquear a tela")
	}
	return ok("Tela bloqueada com sucesso")
}

func (l *LockScreen) Cancel(_ context.Context, cfg Config) Result {
	if !l.timers.Cancel(cfg.ID) {
		return fail("Nenhum bloqueio de tela agendado para cancelar")
	}
	return ok("Bloqueio de tela cancelado com sucesso")
}
