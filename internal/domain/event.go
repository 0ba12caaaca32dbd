package domain

import "time"

const (
	EventUserRegistered = "user.registered"
	EventUserLogin      = "user.login"
)

// UserEvent is the lifecycle message published to Kafka and fanned out to
// connected clients. Publishing is fire-and-forget; failures are logged,
// never surfaced to the request.
type UserEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	Channel    string    `json:"channel,omitempty"` // sms, email or password
	OccurredAt time.Time `json:"occurred_at"`
	RetryCount int       `json:"retry_count,omitempty"`
}
