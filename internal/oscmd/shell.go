package oscmd

import (
	"context"
	"fmt"
	"net/url"
	"runtime"

	logx "clocked/pkg/logx"
)

// shellExecutor implements Executor by spawning the platform command for
// each primitive.
type shellExecutor struct {
	log    logx.Logger
	runner Runner
	goos   string
}

// NewShellExecutor returns the exec-backed Executor for the current platform.
func NewShellExecutor(log logx.Logger, runner Runner) Executor {
	return newShellExecutor(log, runner, runtime.GOOS)
}

func newShellExecutor(log logx.Logger, runner Runner, goos string) *shellExecutor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &shellExecutor{log: log, runner: runner, goos: goos}
}

func (e *shellExecutor) Shutdown(ctx context.Context) error {
	switch e.goos {
	case "windows":
		return e.runner.Run(ctx, "shutdown", "/s", "/t", "0")
	case "darwin":
		return e.runner.Run(ctx, "osascript", "-e", `tell app "System Events" to shut down`)
	default:
		return e.runner.Run(ctx, "systemctl", "poweroff")
	}
}

func (e *shellExecutor) Reboot(ctx context.Context) error {
	switch e.goos {
	case "windows":
		return e.runner.Run(ctx, "shutdown", "/r", "/t", "0")
	case "darwin":
		return e.runner.Run(ctx, "osascript", "-e", `tell app "System Events" to restart`)
	default:
		return e.runner.Run(ctx, "systemctl", "reboot")
	}
}

func (e *shellExecutor) Hibernate(ctx context.Context) error {
	switch e.goos {
	case "windows":
		return e.runner.Run(ctx, "shutdown", "/h")
	case "darwin":
		return e.runner.Run(ctx, "pmset", "sleepnow")
	default:
		return e.runner.Run(ctx, "systemctl", "hibernate")
	}
}

func (e *shellExecutor) Lock(ctx context.Context) error {
	switch e.goos {
	case "windows":
		return e.runner.Run(ctx, "rundll32.exe", "user32.dll,LockWorkStation")
	case "darwin":
		return e.runner.Run(ctx, "/System/Library/CoreServices/Menu Extras/User.menu/Contents/Resources/CGSession", "-suspend")
	default:
		return e.runner.Run(ctx, "loginctl", "lock-session")
	}
}

func (e *shellExecutor) SetDoNotDisturb(ctx context.Context, enabled bool) error {
	switch e.goos {
	case "darwin":
		v := "false"
		if enabled {
			v = "true"
		}
		return e.runner.Run(ctx, "defaults",
			"-currentHost", "write",
			"~/Library/Preferences/ByHost/com.apple.notificationcenterui",
			"doNotDisturb", "-boolean", v)
	case "linux":
		v := "true"
		if enabled {
			v = "false"
		}
		// GNOME notification banners; other desktops are best-effort no-ops.
		return e.runner.Run(ctx, "gsettings", "set",
			"org.gnome.desktop.notifications", "show-banners", v)
	default:
		// Windows Focus Assist has no supported CLI toggle.
		e.log.Info("do-not-disturb toggled (no-op on this platform)", logx.Bool("enabled", enabled))
		return nil
	}
}

func (e *shellExecutor) CancelScheduledShutdown(ctx context.Context) error {
	switch e.goos {
	case "windows":
		err := e.runner.Run(ctx, "shutdown", "/a")
		if err != nil {
			// Exit code 1116: no shutdown was in progress.
			if ExitCode(err) == 1116 {
				return ErrNothingScheduled
			}
			return err
		}
		return nil
	default:
		// Unix shutdown scheduling is not used by this executor, so there
		// is never a native schedule to abort.
		return ErrNothingScheduled
	}
}

// shellOpener implements Opener via the platform URL handler command.
type shellOpener struct {
	runner Runner
	goos   string
}

// NewOpener returns the default-handler Opener for the current platform.
func NewOpener(runner Runner) Opener {
	return &shellOpener{runner: runner, goos: runtime.GOOS}
}

func (o *shellOpener) Open(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("invalid url %q", raw)
	}
	switch o.goos {
	case "windows":
		return o.runner.Run(ctx, "rundll32", "url.dll,FileProtocolHandler", raw)
	case "darwin":
		return o.runner.Run(ctx, "open", raw)
	default:
		return o.runner.Run(ctx, "xdg-open", raw)
	}
}
