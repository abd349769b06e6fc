package events

import "time"

// Envelope is the shared event shape carried on the in-process bus. Poll and
// session lifecycle events use it; the dashboard game log is built from it.
type Envelope struct {
	EventID       string         `json:"event_id"`
	EventType     string         `json:"event_type"`
	SourceService string         `json:"source_service"`
	OccurredAtUTC time.Time      `json:"occurred_at_utc"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id"`
	SessionID     string         `json:"session_id,omitempty"`
	Payload       map[string]any `json:"payload"`
}
