package oscmd

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	logx "clocked/pkg/logx"
)

// Runner executes a single external command and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct {
	log     logx.Logger
	timeout time.Duration
}

// NewRunner returns an exec-backed Runner. Every command gets at most
// timeout (default 5s) on top of the caller's context.
func NewRunner(log logx.Logger, timeout time.Duration) Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &execRunner{log: log, timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) error {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(cctx, name, args...)
	out, err := cmd.CombinedOutput()
	took := time.Since(start)

	if err != nil {
		r.log.Debug("command failed",
			logx.String("cmd", name),
			logx.String("args", strings.Join(args, " ")),
			logx.Duration("took", took),
			logx.Err(err),
		)
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("%s: %w (%s)", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}

	r.log.Debug("command ok", logx.String("cmd", name), logx.Duration("took", took))
	return nil
}

// ExitCode unwraps the process exit code from a Runner error, or -1.
func ExitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
