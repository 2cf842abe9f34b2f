package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clocked/internal/eventbus"
	"clocked/pkg/logx"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, Entry{EventID: "ev-1", Kind: KindFired, Title: "Dormir", Detail: "shutdown: ok"}))
	require.NoError(t, j.Append(ctx, Entry{EventID: "ev-1", Kind: KindCompleted}))

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	require.Equal(t, KindCompleted, got[0].Kind)
	require.Equal(t, KindFired, got[1].Kind)
	require.Equal(t, "Dormir", got[1].Title)
	require.False(t, got[0].At.IsZero())
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(ctx, Entry{EventID: "ev", Kind: KindFired}))
	}
	got, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestClosedJournalIsDisabled(t *testing.T) {
	var j *Journal
	require.ErrorIs(t, j.Append(context.Background(), Entry{}), ErrDisabled)
	_, err := j.Recent(context.Background(), 1)
	require.ErrorIs(t, err, ErrDisabled)
}

func TestRecorderJournalsBusOutcomes(t *testing.T) {
	j := openTestJournal(t)
	bus := eventbus.New()

	r := NewRecorder(j, logx.Nop())
	r.Start(bus)

	eventbus.Emit(bus, eventbus.TopicEventFired, eventbus.EventFired{
		EventID: "ev-9",
		Title:   "Pausa",
		Results: []string{"lock-screen: Tela bloqueada com sucesso"},
	})
	eventbus.Emit(bus, eventbus.TopicEventRetired, eventbus.EventRetired{
		EventID: "ev-9",
		Reason:  "completed",
	})
	// Unrelated topics must be ignored.
	eventbus.Emit(bus, eventbus.TopicDNDTriggered, eventbus.DNDTriggered{Enabled: true})

	require.Eventually(t, func() bool {
		got, err := j.Recent(context.Background(), 10)
		return err == nil && len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	r.Stop()

	got, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, KindCompleted, got[0].Kind)
	require.Equal(t, KindFired, got[1].Kind)
	require.Equal(t, "lock-screen: Tela bloqueada com sucesso", got[1].Detail)
}
