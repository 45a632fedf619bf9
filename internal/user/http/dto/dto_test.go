package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/usertokens/internal/errors"
	"github.com/allisson/usertokens/internal/user/domain"
)

func TestRegisterUserRequest_Validate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		req := RegisterUserRequest{Name: "John", Email: "john@example.com", Password: "SecurePass123!"}
		assert.NoError(t, req.Validate())
	})

	t.Run("Error_MissingFields", func(t *testing.T) {
		req := RegisterUserRequest{}
		err := req.Validate()
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "name is required")
		assert.Contains(t, err.Error(), "email is required")
		assert.Contains(t, err.Error(), "password is required")
	})
}

func TestConfirmRegistrationRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ConfirmRegistrationRequest{Token: "tok-123"}).Validate())
	assert.ErrorIs(t, (&ConfirmRegistrationRequest{}).Validate(), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, (&ConfirmRegistrationRequest{Token: "   "}).Validate(), apperrors.ErrInvalidInput)

	err := (&ConfirmRegistrationRequest{Token: "tok-123\n"}).Validate()
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "must not contain leading or trailing whitespace")
}

func TestForgotPasswordRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ForgotPasswordRequest{Email: "john@example.com"}).Validate())
	assert.ErrorIs(t, (&ForgotPasswordRequest{}).Validate(), apperrors.ErrInvalidInput)
}

func TestResetPasswordRequest(t *testing.T) {
	userID := uuid.Must(uuid.NewV7())

	t.Run("Success_Mapping", func(t *testing.T) {
		req := ResetPasswordRequest{UserID: userID.String(), Token: "tok", Password: "NewSecure456!"}
		require.NoError(t, req.Validate())

		input, err := ToResetPasswordInput(req)

		require.NoError(t, err)
		assert.Equal(t, userID, input.UserID)
		assert.Equal(t, "tok", input.Token)
		assert.Equal(t, "NewSecure456!", input.Password)
	})

	t.Run("Error_InvalidUserID", func(t *testing.T) {
		_, err := ToResetPasswordInput(ResetPasswordRequest{UserID: "not-a-uuid"})
		assert.EqualError(t, err, "invalid user_id: must be a valid UUID")
	})

	t.Run("Error_PaddedToken", func(t *testing.T) {
		req := ResetPasswordRequest{UserID: userID.String(), Token: " tok", Password: "NewSecure456!"}
		err := req.Validate()
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "token")
	})

	t.Run("Error_MissingFields", func(t *testing.T) {
		err := (&ResetPasswordRequest{}).Validate()
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "user_id is required")
	})
}

func TestToUserResponse(t *testing.T) {
	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      "John",
		Email:     "john@example.com",
		Password:  "hash",
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	response := ToUserResponse(user)

	assert.Equal(t, user.ID, response.ID)
	assert.Equal(t, "John", response.Name)
	assert.Equal(t, "john@example.com", response.Email)
	assert.True(t, response.Enabled)
	assert.Equal(t, now, response.CreatedAt)
}
