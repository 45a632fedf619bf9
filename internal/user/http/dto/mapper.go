package dto

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/user/domain"
	"github.com/allisson/usertokens/internal/user/usecase"
)

// ToRegisterUserInput converts a RegisterUserRequest DTO to a RegisterUserInput use case input
func ToRegisterUserInput(req RegisterUserRequest) usecase.RegisterUserInput {
	return usecase.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
}

// ToResetPasswordInput converts a ResetPasswordRequest DTO, parsing the user id.
func ToResetPasswordInput(req ResetPasswordRequest) (usecase.ResetPasswordInput, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return usecase.ResetPasswordInput{}, fmt.Errorf("invalid user_id: must be a valid UUID")
	}
	return usecase.ResetPasswordInput{
		UserID:   userID,
		Token:    req.Token,
		Password: req.Password,
	}, nil
}

// ToUserResponse converts a domain User model to a UserResponse DTO
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Enabled:   user.Enabled,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
