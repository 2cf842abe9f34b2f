package eventbus

// Topics published by the scheduling core. Observers subscribe to the bus
// and filter on Event.Type; delivery is fire-and-forget (at-least-once is
// acceptable, no acknowledgment).
const (
	// TopicAlarmTriggered carries AlarmTriggered: an alarm reached its
	// target time and is now ringing. Playback is the observer's job.
	TopicAlarmTriggered = "alarm-triggered"

	// TopicAlarmStopped carries AlarmStopped: ringing ended, either by an
	// explicit stop request or by the owning event being cancelled.
	TopicAlarmStopped = "alarm-stopped"

	// TopicDNDTriggered carries DNDTriggered with the new suppression state.
	TopicDNDTriggered = "dnd-triggered"

	// TopicEventFired is emitted after all actions of an event ran,
	// successfully or not. Used by the history journal.
	TopicEventFired = "event-fired"

	// TopicEventRetired is emitted when a non-repeating event is removed
	// after firing, or when an event is cancelled or deleted.
	TopicEventRetired = "event-retired"
)

// AlarmTriggered is the payload for TopicAlarmTriggered.
type AlarmTriggered struct {
	ActionID  string `json:"actionId"`
	Title     string `json:"title"`
	AlarmPath string `json:"alarmPath"`
}

// AlarmStopped is the payload for TopicAlarmStopped.
type AlarmStopped struct {
	ActionID string `json:"actionId"`
}

// DNDTriggered is the payload for TopicDNDTriggered.
type DNDTriggered struct {
	Enabled bool `json:"enabled"`
}

// EventFired is the payload for TopicEventFired.
type EventFired struct {
	EventID string `json:"eventId"`
	Title   string `json:"title"`
	// Results holds one entry per action, in execution order, as
	// "<type>: <result message>".
	Results []string `json:"results"`
}

// EventRetired is the payload for TopicEventRetired.
type EventRetired struct {
	EventID string `json:"eventId"`
	Reason  string `json:"reason"` // "completed", "cancelled" or "deleted"
}

// Emit publishes a typed payload under the given topic.
func Emit(b Bus, topic string, data any) {
	if b == nil {
		return
	}
	b.Publish(Event{Type: topic, Data: data})
}
