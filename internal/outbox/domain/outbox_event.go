// Package domain defines the core outbox domain entities and types.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/errors"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// Event types written by the user module.
const (
	EventTypeRegistrationTokenIssued  = "user.registration_token_issued"
	EventTypePasswordResetTokenIssued = "user.password_reset_token_issued"
)

// ErrInvalidPayload indicates an event payload that cannot be decoded.
var ErrInvalidPayload = errors.Wrap(errors.ErrInvalidInput, "invalid outbox event payload")

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TokenIssuedPayload is the payload of token issued events. Token carries the clear
// value because it has to reach the user; it must never be logged.
type TokenIssuedPayload struct {
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewTokenIssuedEvent builds a pending event of eventType carrying payload.
func NewTokenIssuedEvent(eventType string, payload TokenIssuedPayload) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal event payload")
	}

	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: eventType,
		Payload:   string(data),
		Status:    OutboxEventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DecodeTokenIssued parses the payload of a token issued event.
func (e *OutboxEvent) DecodeTokenIssued() (*TokenIssuedPayload, error) {
	var payload TokenIssuedPayload
	if err := json.Unmarshal([]byte(e.Payload), &payload); err != nil {
		return nil, errors.Wrap(ErrInvalidPayload, err.Error())
	}
	return &payload, nil
}

// RedactToken clears the token value from a token issued payload once the event no
// longer needs delivering. Other payloads are left untouched.
func (e *OutboxEvent) RedactToken() {
	if e.EventType != EventTypeRegistrationTokenIssued && e.EventType != EventTypePasswordResetTokenIssued {
		return
	}

	payload, err := e.DecodeTokenIssued()
	if err != nil || payload.Token == "" {
		return
	}

	payload.Token = ""
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	e.Payload = string(data)
}
