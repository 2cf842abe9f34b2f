package action

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"clocked/internal/oscmd"
	logx "clocked/pkg/logx"
)

// OpenURL hands params.url to the OS default handler at the target time.
type OpenURL struct {
	opener oscmd.Opener
	pol    Policy
	log    logx.Logger
	timers *TimerStore
}

func NewOpenURL(opener oscmd.Opener, pol Policy, log logx.Logger) *OpenURL {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &OpenURL{
		opener: opener,
		pol:    pol.withDefaults(),
		log:    log.With(logx.String("action", "open-url")),
		timers: NewTimerStore(),
	}
}

func (o *OpenURL) Type() string { return TypeOpenURL }
func (o *OpenURL) Name() string { return "Abrir URL" }
func (o *OpenURL) Icon() string { return "ph-globe" }

// Validate rejects missing or non-absolute URLs before scheduling.
func (o *OpenURL) Validate(cfg Config) error {
	raw := cfg.StringParam("url")
	if raw == "" {
		return errors.New(msgURLMissing)
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New(msgURLInvalid)
	}
	return nil
}

func (o *OpenURL) Execute(ctx context.Context, cfg Config, target time.Time) Result {
	// Re-validate at execute time: the config may not have gone through the
	// manager's validation path.
	if err := o.Validate(cfg); err != nil {
		return fail(err.Error())
	}
	raw := cfg.StringParam("url")

	delay, v := o.pol.classify(target, false)
	switch v {
	case tooFar:
		return fail(MsgTooFarInFuture)
	case runNow:
		return o.open(ctx, raw)
	}

	o.timers.Arm(cfg.ID, delay, func() {
		if res := o.open(context.Background(), raw); !res.Success {
			o.log.Error("url open failed at fire time", logx.String("id", cfg.ID), logx.String("msg", res.Message))
		}
	})
	o.log.Info("url open armed", logx.String("id", cfg.ID), logx.Time("target", target))
	return okData(fmt.Sprintf("Abertura de URL agendada para %s", formatTarget(target)), map[string]any{"url": raw})
}

func (o *OpenURL) open(ctx context.Context, raw string) Result {
	if err := o.opener.Open(ctx, raw); err != nil {
		o.log.Error("url open failed", logx.String("url", raw), logx.Err(err))
		return fail("Erro ao abrir a URL")
	}
	return ok(fmt.Sprintf("URL aberta: %s", raw))
}

func (o *OpenURL) Cancel(_ context.Context, cfg Config) Result {
	if !o.timers.Cancel(cfg.ID) {
		return fail("Nenhuma abertura de URL agendada para cancelar")
	}
	return ok("Abertura de URL cancelada com sucesso")
}
