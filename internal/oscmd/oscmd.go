// Package oscmd invokes the machine-level effects behind scheduled actions.
//
// The scheduling core talks to two small interfaces:
//   - Executor: one method per power/session primitive
//   - Opener: hand a URL to the OS default handler
//
// Implementations shell out with short context timeouts so a hung command
// can never wedge a timer callback. On Linux the executor prefers
// systemd-logind over spawning commands.
package oscmd

import (
	"context"
	"errors"
)

// ErrNothingScheduled reports that a best-effort cancel found no native
// scheduled shutdown to abort (e.g. Windows `shutdown /a` exit code 1116).
var ErrNothingScheduled = errors.New("no scheduled shutdown")

// Executor runs the platform primitives the action variants need.
// Commands must return promptly; implementations apply their own timeout.
type Executor interface {
	Shutdown(ctx context.Context) error
	Reboot(ctx context.Context) error
	Hibernate(ctx context.Context) error
	Lock(ctx context.Context) error
	SetDoNotDisturb(ctx context.Context, enabled bool) error

	// CancelScheduledShutdown aborts an OS-level scheduled shutdown if the
	// platform supports querying one. Returns ErrNothingScheduled when
	// there was nothing to abort.
	CancelScheduledShutdown(ctx context.Context) error
}

// Opener opens a URL with the OS default handler.
type Opener interface {
	Open(ctx context.Context, url string) error
}
