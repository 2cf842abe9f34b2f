package oscmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	logx "clocked/pkg/logx"
)

type fakeRunner struct {
	calls [][]string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.err
}

func (f *fakeRunner) last() string {
	if len(f.calls) == 0 {
		return ""
	}
	return strings.Join(f.calls[len(f.calls)-1], " ")
}

func TestShellExecutorCommands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		goos string
		call func(Executor) error
		want string
	}{
		{"windows", func(e Executor) error { return e.Shutdown(context.Background()) }, "shutdown /s /t 0"},
		{"windows", func(e Executor) error { return e.Reboot(context.Background()) }, "shutdown /r /t 0"},
		{"windows", func(e Executor) error { return e.Hibernate(context.Background()) }, "shutdown /h"},
		{"windows", func(e Executor) error { return e.Lock(context.Background()) }, "rundll32.exe user32.dll,LockWorkStation"},
		{"linux", func(e Executor) error { return e.Shutdown(context.Background()) }, "systemctl poweroff"},
		{"linux", func(e Executor) error { return e.Reboot(context.Background()) }, "systemctl reboot"},
		{"linux", func(e Executor) error { return e.Lock(context.Background()) }, "loginctl lock-session"},
		{"darwin", func(e Executor) error { return e.Hibernate(context.Background()) }, "pmset sleepnow"},
	}

	for _, tt := range tests {
		fr := &fakeRunner{}
		e := newShellExecutor(logx.Nop(), fr, tt.goos)
		if err := tt.call(e); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.want, err)
		}
		if got := fr.last(); got != tt.want {
			t.Fatalf("command = %q, want %q", got, tt.want)
		}
	}
}

func TestCancelScheduledShutdownUnix(t *testing.T) {
	t.Parallel()
	fr := &fakeRunner{}
	e := newShellExecutor(logx.Nop(), fr, "linux")
	if err := e.CancelScheduledShutdown(context.Background()); !errors.Is(err, ErrNothingScheduled) {
		t.Fatalf("err = %v, want ErrNothingScheduled", err)
	}
	if len(fr.calls) != 0 {
		t.Fatalf("unexpected command spawn: %v", fr.calls)
	}
}

func TestOpenerRejectsRelativeURL(t *testing.T) {
	t.Parallel()
	fr := &fakeRunner{}
	o := &shellOpener{runner: fr, goos: "linux"}
	if err := o.Open(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for relative url")
	}
	if err := o.Open(context.Background(), "https://example.com"); err != nil {
		t.Fatalf("absolute url rejected: %v", err)
	}
	if got := fr.last(); got != "xdg-open https://example.com" {
		t.Fatalf("command = %q", got)
	}
}
