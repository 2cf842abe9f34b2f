// Package event implements the scheduling state machine: it validates
// event definitions, arms timers, fires the configured actions in order,
// reschedules repeating events and tears schedules down on update, cancel
// and delete.
package event

import (
	"time"

	"clocked/internal/action"
)

// Def is the input shape for create and update.
type Def struct {
	Title string `json:"title"`

	// Time is the wall-clock time of day, "HH:MM".
	Time string `json:"time"`

	// Date is an optional calendar date, "YYYY-MM-DD". Absent means the
	// nearest future occurrence of Time (today or tomorrow).
	Date string `json:"date,omitempty"`

	// Repeat is the re-fire interval in minutes; 0 means fire once.
	Repeat int `json:"repeat,omitempty"`

	// Cron is an optional standard 5-field cron expression as an
	// alternative recurrence to Repeat. At most one of the two may be set.
	Cron string `json:"cron,omitempty"`

	Actions []action.Config `json:"actions"`
}

// Event is a scheduled unit of work tracked by the manager.
type Event struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Time    string          `json:"time"`
	Date    string          `json:"date,omitempty"`
	Repeat  int             `json:"repeat,omitempty"`
	Cron    string          `json:"cron,omitempty"`
	Actions []action.Config `json:"actions"`

	CreatedAt      time.Time `json:"createdAt"`
	TargetDateTime time.Time `json:"targetDateTime"`
	Completed      bool      `json:"completed"`
}

// clone detaches a snapshot from live manager state, including each
// action's params map; callers may mutate the copy freely.
func (e *Event) clone() *Event {
	cp := *e
	cp.Actions = make([]action.Config, len(e.Actions))
	for i, a := range e.Actions {
		if a.Params != nil {
			params := make(map[string]any, len(a.Params))
			for k, v := range a.Params {
				params[k] = v
			}
			a.Params = params
		}
		cp.Actions[i] = a
	}
	return &cp
}

// Result is the structured outcome of every manager operation. Nothing
// below the manager ever surfaces as an error to callers.
type Result struct {
	Success bool   `json:"success"`
	Event   *Event `json:"event,omitempty"`
	Message string `json:"message"`
}

func failure(msg string) Result { return Result{Success: false, Message: msg} }

// User-facing manager messages (pt-BR, carried over from the desktop app).
const (
	MsgEventCreated   = "Evento criado com sucesso"
	MsgEventUpdated   = "Evento modificado com sucesso"
	MsgEventCancelled = "Evento cancelado com sucesso"
	MsgEventDeleted   = "Evento deletado"
	MsgEventNotFound  = "Evento não encontrado"

	msgNoActions      = "O evento precisa de pelo menos uma action"
	msgInvalidTime    = "Horário inválido"
	msgInvalidDate    = "Data inválida"
	msgInvalidRepeat  = "Intervalo de repetição inválido"
	msgInvalidCron    = "Expressão cron inválida"
	msgRepeatAndCron  = "Use repetição em minutos ou cron, não ambos"
	msgAlarmStopped   = "Alarme parado"
	msgNoAlarmRinging = "Nenhum alarme tocando"
	msgNoShutdown     = "Nenhum desligamento agendado"
)
