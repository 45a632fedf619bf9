// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	appValidation "github.com/allisson/usertokens/internal/validation"
)

// RegisterUserRequest represents the API request for user registration
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields only. Format and password strength are enforced by the
// use case so every entry point applies the same rules.
func (r *RegisterUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required.Error("name is required")),
		validation.Field(&r.Email, validation.Required.Error("email is required")),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
	return appValidation.WrapValidationError(err)
}

// ConfirmRegistrationRequest carries the mail registration token sent to the user.
type ConfirmRegistrationRequest struct {
	Token string `json:"token"`
}

// Validate validates the ConfirmRegistrationRequest.
func (r *ConfirmRegistrationRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Token,
			validation.Required.Error("token is required"),
			appValidation.TokenValue,
			appValidation.NoWhitespace,
		),
	)
	return appValidation.WrapValidationError(err)
}

// ForgotPasswordRequest starts the password recovery flow.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate validates the ForgotPasswordRequest.
func (r *ForgotPasswordRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Email, validation.Required.Error("email is required")),
	)
	return appValidation.WrapValidationError(err)
}

// ResetPasswordRequest completes the password recovery flow.
type ResetPasswordRequest struct {
	UserID   string `json:"user_id"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate validates the ResetPasswordRequest.
func (r *ResetPasswordRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required.Error("user_id is required")),
		validation.Field(&r.Token,
			validation.Required.Error("token is required"),
			appValidation.TokenValue,
			appValidation.NoWhitespace,
		),
		validation.Field(&r.Password, validation.Required.Error("password is required")),
	)
	return appValidation.WrapValidationError(err)
}
