package dto

import (
	"time"

	"github.com/google/uuid"
)

// UserResponse represents the API response for a user. The password hash is never exposed.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptedResponse acknowledges a request whose effect is delivered out of band.
type AcceptedResponse struct {
	Message string `json:"message"`
}
