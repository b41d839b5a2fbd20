package models

import "time"

// Audit event types written by the auth workflow.
const (
	EventSignUp       = "SIGN_UP"
	EventVerify       = "VERIFY"
	EventLogin        = "LOGIN"
	EventLoginFailed  = "LOGIN_FAILED"
	EventNotifyFailed = "NOTIFY_FAILED"
)

// AuthEvent is a single audit log entry.
type AuthEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // SIGN_UP | VERIFY | LOGIN | LOGIN_FAILED | NOTIFY_FAILED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// KnownEventType reports whether t is one of the audit event types above.
func KnownEventType(t string) bool {
	switch t {
	case EventSignUp, EventVerify, EventLogin, EventLoginFailed, EventNotifyFailed:
		return true
	}
	return false
}
