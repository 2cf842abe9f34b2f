//go:build linux

package oscmd

import (
	"context"

	"github.com/coreos/go-systemd/v22/login1"

	logx "clocked/pkg/logx"
)

// logindExecutor drives power/session primitives through systemd-logind,
// which works without root for locally active sessions. Primitives logind
// does not cover fall through to the shell executor.
type logindExecutor struct {
	conn  *login1.Conn
	shell *shellExecutor
}

// NewExecutor returns the platform Executor. It prefers systemd-logind and
// falls back to spawning commands when D-Bus is unavailable.
func NewExecutor(log logx.Logger, runner Runner) Executor {
	shell := newShellExecutor(log, runner, "linux")
	conn, err := login1.New()
	if err != nil {
		log.Warn("logind unavailable; using shell commands", logx.Err(err))
		return shell
	}
	log.Debug("using systemd-logind executor")
	return &logindExecutor{conn: conn, shell: shell}
}

func (e *logindExecutor) Shutdown(ctx context.Context) error {
	return e.conn.PowerOffWithContext(ctx, false)
}

func (e *logindExecutor) Reboot(ctx context.Context) error {
	return e.conn.RebootWithContext(ctx, false)
}

func (e *logindExecutor) Hibernate(ctx context.Context) error {
	return e.conn.HibernateWithContext(ctx, false)
}

func (e *logindExecutor) Lock(ctx context.Context) error {
	return e.conn.LockSessionsWithContext(ctx)
}

func (e *logindExecutor) SetDoNotDisturb(ctx context.Context, enabled bool) error {
	return e.shell.SetDoNotDisturb(ctx, enabled)
}

func (e *logindExecutor) CancelScheduledShutdown(ctx context.Context) error {
	return e.shell.CancelScheduledShutdown(ctx)
}
