package service

import (
	"context"
	"time"
)

// AuthEventType names an audited authentication action.
type AuthEventType string

const (
	AuthEventRegistered     AuthEventType = "account.registered"
	AuthEventLoginSucceeded AuthEventType = "login.succeeded"
	AuthEventLoginFailed    AuthEventType = "login.failed"
	AuthEventAccountLocked  AuthEventType = "account.locked"
	AuthEventLoggedOut      AuthEventType = "account.logged_out"
	AuthEventUnlocked       AuthEventType = "account.unlocked"
)

// AuthEvent is an audit record emitted by the auth use cases.
type AuthEvent struct {
	RequestID  string        `json:"request_id,omitempty"` // For distributed tracing
	EventID    string        `json:"event_id"`
	Type       AuthEventType `json:"type"`
	AccountID  string        `json:"account_id,omitempty"`
	Email      string        `json:"email,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes an audit event
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
