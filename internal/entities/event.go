package entities

import "time"

// Audit event types written by the pipeline.
const (
	EventWebhookIn         = "webhook_in"
	EventWebhookOut        = "webhook_out"
	EventIntentDetected    = "intent_detected"
	EventModuleCalled      = "module_called"
	EventModuleResult      = "module_result"
	EventResponseGenerated = "response_generated"
)

// Event is an append-only audit record. Payload may contain message text,
// so it is never echoed to the general-purpose log stream.
type Event struct {
	ID         int64          `json:"id"`
	TS         time.Time      `json:"ts"`
	CompaniaID *int           `json:"compania_id"`
	SessionID  *string        `json:"session_id"`
	Tipo       string         `json:"tipo"`
	Payload    map[string]any `json:"payload"`
}
