// Package domain defines the user token records issued for account confirmation
// and password recovery.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what a token can be used for.
type Kind string

const (
	// KindMailRegistration tokens confirm the e-mail address of a new account.
	KindMailRegistration Kind = "mail_registration"

	// KindForgotPassword tokens authorize a password reset.
	KindForgotPassword Kind = "forgot_password"
)

// Token is the persisted association between an opaque token value and the user
// it was issued to. Specialized kinds embed Token.
type Token struct {
	ID        uuid.UUID
	Kind      Kind
	Value     string
	UserID    uuid.UUID
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Base returns the token itself so any struct embedding Token satisfies Record.
func (t *Token) Base() *Token {
	return t
}

// IsExpired reports whether the token has an expiration at or before now.
func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Record is implemented by every token kind. Stores and the token use case only
// touch the embedded Token, so kinds differ in construction, never in validation.
type Record interface {
	Base() *Token
}

// MailRegistrationToken confirms the e-mail address used to register an account.
type MailRegistrationToken struct {
	Token
}

// NewMailRegistrationToken returns an empty mail registration token.
func NewMailRegistrationToken() *MailRegistrationToken {
	return &MailRegistrationToken{Token: Token{Kind: KindMailRegistration}}
}

// ForgotPasswordToken authorizes a single password reset.
type ForgotPasswordToken struct {
	Token
}

// NewForgotPasswordToken returns an empty forgot password token.
func NewForgotPasswordToken() *ForgotPasswordToken {
	return &ForgotPasswordToken{Token: Token{Kind: KindForgotPassword}}
}

// HashValue returns the hex SHA-256 digest stores use as the lookup key, so token
// values are never persisted in clear.
func HashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
