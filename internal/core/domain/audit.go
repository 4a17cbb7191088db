package domain

import "time"

// AuthEventType classifies audit trail entries.
type AuthEventType string

const (
	EventLoginSucceeded  AuthEventType = "login_succeeded"
	EventLoginFailed     AuthEventType = "login_failed"
	EventLogout          AuthEventType = "logout"
	EventTokenRefreshed  AuthEventType = "token_refreshed"
	EventRefreshRejected AuthEventType = "refresh_rejected"
	EventPasswordChanged AuthEventType = "password_changed"
	EventRegistered      AuthEventType = "registered"
)

// AuthEvent is one entry of the authentication audit trail.
type AuthEvent struct {
	ID         string        `bson:"_id"`
	Type       AuthEventType `bson:"type"`
	Username   string        `bson:"username"`
	UserID     string        `bson:"user_id,omitempty"`
	Reason     string        `bson:"reason,omitempty"`
	OccurredAt time.Time     `bson:"occurred_at"`
}
