//go:build !linux

package oscmd

import logx "clocked/pkg/logx"

// NewExecutor returns the platform Executor. Outside Linux there is no
// logind, so commands are always spawned.
func NewExecutor(log logx.Logger, runner Runner) Executor {
	return NewShellExecutor(log, runner)
}
