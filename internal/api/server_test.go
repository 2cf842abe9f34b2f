package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"clocked/internal/action"
	"clocked/internal/event"
	"clocked/internal/eventbus"
	"clocked/pkg/logx"
)

type stubAction struct{ typ string }

func (s stubAction) Type() string { return s.typ }
func (s stubAction) Name() string { return "Stub " + s.typ }
func (s stubAction) Icon() string { return "ph-test" }
func (s stubAction) Execute(context.Context, action.Config, time.Time) action.Result {
	return action.Result{Success: true, Message: "ok"}
}

var apiBase = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (http.Handler, *event.Manager) {
	t.Helper()
	reg := action.NewRegistry()
	reg.Register(stubAction{typ: "fake"})
	m := event.NewManager(event.Options{
		Bus:      eventbus.New(),
		Registry: reg,
		Now:      func() time.Time { return apiBase },
		Location: time.UTC,
	})
	t.Cleanup(m.Stop)
	return NewServer(Config{}, m, reg, nil, logx.Nop()), m
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) event.Result {
	t.Helper()
	var res event.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func validDef() event.Def {
	return event.Def{
		Title:   "Dormir",
		Time:    "10:00",
		Date:    "2026-03-10",
		Actions: []action.Config{{ID: "fake-1", Type: "fake"}},
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetEvent(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/events", validDef())
	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	require.True(t, res.Success)
	require.Equal(t, event.MsgEventCreated, res.Message)
	require.NotNil(t, res.Event)

	rec = doJSON(t, h, http.MethodGet, "/api/events/"+res.Event.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got event.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Dormir", got.Title)

	rec = doJSON(t, h, http.MethodGet, "/api/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []event.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
}

func TestCreateRejectsInvalidDef(t *testing.T) {
	h, _ := newTestServer(t)

	def := validDef()
	def.Time = "07:00" // before the fake clock
	rec := doJSON(t, h, http.MethodPost, "/api/events", def)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decodeResult(t, rec)
	require.False(t, res.Success)
	require.Equal(t, action.MsgAlreadyPassed, res.Message)
}

func TestCreateRejectsBadJSON(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCancelDelete(t *testing.T) {
	h, _ := newTestServer(t)

	created := decodeResult(t, doJSON(t, h, http.MethodPost, "/api/events", validDef()))
	id := created.Event.ID

	upd := validDef()
	upd.Time = "11:30"
	rec := doJSON(t, h, http.MethodPut, "/api/events/"+id, upd)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, event.MsgEventUpdated, decodeResult(t, rec).Message)

	rec = doJSON(t, h, http.MethodPost, "/api/events/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, event.MsgEventCancelled, decodeResult(t, rec).Message)

	rec = doJSON(t, h, http.MethodDelete, "/api/events/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, event.MsgEventNotFound, decodeResult(t, rec).Message)
}

func TestUnknownEventIs404(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/events/missing", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListActions(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/actions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []actionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	require.Equal(t, "fake", infos[0].Type)
}

func TestHistoryDisabledIs404(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestThrottleAnswers429(t *testing.T) {
	reg := action.NewRegistry()
	m := event.NewManager(event.Options{Bus: eventbus.New(), Registry: reg})
	t.Cleanup(m.Stop)
	h := NewServer(Config{RatePerSec: 1, Burst: 1}, m, reg, nil, logx.Nop())

	first := doJSON(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, first.Code)

	limited := false
	for i := 0; i < 5; i++ {
		if doJSON(t, h, http.MethodGet, "/health", nil).Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	require.True(t, limited)
}
