package action

import (
	"context"
	"sync"
	"testing"
	"time"

	"clocked/internal/oscmd"
	logx "clocked/pkg/logx"
)

// fakeExecutor records primitive invocations for assertions.
type fakeExecutor struct {
	mu        sync.Mutex
	calls     []string
	err       error
	cancelErr error
}

func (f *fakeExecutor) record(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	return f.err
}

func (f *fakeExecutor) Shutdown(context.Context) error  { return f.record("shutdown") }
func (f *fakeExecutor) Reboot(context.Context) error    { return f.record("reboot") }
func (f *fakeExecutor) Hibernate(context.Context) error { return f.record("hibernate") }
func (f *fakeExecutor) Lock(context.Context) error      { return f.record("lock") }
func (f *fakeExecutor) SetDoNotDisturb(_ context.Context, enabled bool) error {
	if enabled {
		return f.record("dnd-on")
	}
	return f.record("dnd-off")
}
func (f *fakeExecutor) CancelScheduledShutdown(context.Context) error {
	_ = f.record("cancel-native")
	if f.cancelErr != nil {
		return f.cancelErr
	}
	return oscmd.ErrNothingScheduled
}

func (f *fakeExecutor) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func fixedPolicy(now time.Time) Policy {
	return Policy{Now: func() time.Time { return now }}
}

func TestPowerRejectsStaleTarget(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := NewShutdown(&fakeExecutor{}, fixedPolicy(now), logx.Nop())

	res := p.Execute(context.Background(), Config{ID: "s1", Type: "shutdown"}, now.Add(-time.Hour))
	if res.Success {
		t.Fatal("stale target accepted")
	}
	if res.Message != MsgAlreadyPassed {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestPowerRejectsBeyondHorizon(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := NewRestart(&fakeExecutor{}, fixedPolicy(now), logx.Nop())

	res := p.Execute(context.Background(), Config{ID: "r1", Type: "restart"}, now.Add(25*time.Hour))
	if res.Success || res.Message != MsgTooFarInFuture {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestPowerRunsWithinFireSlack(t *testing.T) {
	t.Parallel()
	now := time.Now()
	fe := &fakeExecutor{}
	p := NewShutdown(fe, fixedPolicy(now), logx.Nop())

	// Just fired: target a second in the past is inside the slack window.
	res := p.Execute(context.Background(), Config{ID: "s1", Type: "shutdown"}, now.Add(-time.Second))
	if !res.Success {
		t.Fatalf("execute failed: %s", res.Message)
	}
	if calls := fe.snapshot(); len(calls) != 1 || calls[0] != "shutdown" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestPowerArmsAndFires(t *testing.T) {
	t.Parallel()
	fe := &fakeExecutor{}
	p := NewHibernate(fe, Policy{}, logx.Nop())

	res := p.Execute(context.Background(), Config{ID: "h1", Type: "hibernate"}, time.Now().Add(20*time.Millisecond))
	if !res.Success {
		t.Fatalf("execute failed: %s", res.Message)
	}
	if !p.Pending("h1") {
		t.Fatal("no pending trigger after arm")
	}

	deadline := time.After(time.Second)
	for {
		if calls := fe.snapshot(); len(calls) == 1 && calls[0] == "hibernate" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("hibernate never ran; calls = %v", fe.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPowerCancel(t *testing.T) {
	t.Parallel()
	fe := &fakeExecutor{}
	p := NewShutdown(fe, Policy{}, logx.Nop())
	cfg := Config{ID: "s1", Type: "shutdown"}

	p.Execute(context.Background(), cfg, time.Now().Add(time.Hour))
	res := p.Cancel(context.Background(), cfg)
	if !res.Success {
		t.Fatalf("cancel failed: %s", res.Message)
	}
	if p.Pending("s1") {
		t.Fatal("trigger survived cancel")
	}

	// Idempotence: nothing left to cancel => failure result, not a panic.
	res = p.Cancel(context.Background(), cfg)
	if res.Success {
		t.Fatal("second cancel reported success")
	}
}
