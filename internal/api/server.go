// Package api exposes the scheduler over a local HTTP surface. The JSON
// bodies mirror the manager's Result shape, so desktop frontends can show
// the pt-BR messages verbatim.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"clocked/internal/action"
	"clocked/internal/event"
	"clocked/internal/history"
	"clocked/pkg/logx"
)

// Config tunes the HTTP surface.
type Config struct {
	// RatePerSec / Burst bound request throughput. Defaults: 20/s, burst 40.
	RatePerSec int
	Burst      int
}

type Server struct {
	r       *chi.Mux
	events  *event.Manager
	reg     *action.Registry
	journal *history.Journal
	log     logx.Logger
}

// NewServer wires the routes. journal may be nil when history is disabled;
// its route then answers 404.
func NewServer(cfg Config, events *event.Manager, reg *action.Registry, journal *history.Journal, log logx.Logger) http.Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(throttle(cfg))

	s := &Server{r: r, events: events, reg: reg, journal: journal, log: log}

	r.Get("/health", s.health)
	r.Get("/api/actions", s.listActions)
	r.Get("/api/history", s.recentHistory)

	r.Post("/api/events", s.createEvent)
	r.Get("/api/events", s.listEvents)
	r.Get("/api/events/{id}", s.getEvent)
	r.Put("/api/events/{id}", s.updateEvent)
	r.Post("/api/events/{id}/cancel", s.cancelEvent)
	r.Delete("/api/events/{id}", s.deleteEvent)

	r.Post("/api/alarms/{actionId}/stop", s.stopAlarm)

	return r
}

func throttle(cfg Config) func(http.Handler) http.Handler {
	per := cfg.RatePerSec
	if per <= 0 {
		per = 20
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 2 * per
	}
	lim := rate.NewLimiter(rate.Limit(per), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type actionInfo struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func (s *Server) listActions(w http.ResponseWriter, _ *http.Request) {
	all := s.reg.All()
	out := make([]actionInfo, 0, len(all))
	for _, a := range all {
		out = append(out, actionInfo{Type: a.Type(), Name: a.Name(), Icon: a.Icon()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) recentHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	entries, err := s.journal.Recent(r.Context(), 50)
	if err != nil {
		s.log.Error("history query failed", logx.Err(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var def event.Def
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.events.CreateEvent(def)
	writeResult(w, res, http.StatusCreated)
}

func (s *Server) listEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.events.GetAllEvents())
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.events.GetEvent(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, event.Result{Message: event.MsgEventNotFound})
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	var def event.Def
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.events.UpdateEvent(chi.URLParam(r, "id"), def)
	writeResult(w, res, http.StatusOK)
}

func (s *Server) cancelEvent(w http.ResponseWriter, r *http.Request) {
	res := s.events.CancelEvent(chi.URLParam(r, "id"))
	writeResult(w, res, http.StatusOK)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	res := s.events.DeleteEvent(chi.URLParam(r, "id"))
	writeResult(w, res, http.StatusOK)
}

func (s *Server) stopAlarm(w http.ResponseWriter, r *http.Request) {
	res := s.events.StopAlarm(chi.URLParam(r, "actionId"))
	writeResult(w, res, http.StatusOK)
}

// writeResult maps a manager Result onto a status code: success uses
// okCode, "not found" answers 404, any other failure 422 with the
// user-facing message intact.
func writeResult(w http.ResponseWriter, res event.Result, okCode int) {
	switch {
	case res.Success:
		writeJSON(w, okCode, res)
	case res.Message == event.MsgEventNotFound:
		writeJSON(w, http.StatusNotFound, res)
	default:
		writeJSON(w, http.StatusUnprocessableEntity, res)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
