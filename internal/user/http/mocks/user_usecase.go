// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/usertokens/internal/user/domain"
	"github.com/allisson/usertokens/internal/user/usecase"
)

// MockUserUseCase is a mock implementation of usecase.UseCase for testing.
type MockUserUseCase struct {
	mock.Mock
}

// RegisterUser mocks the RegisterUser method of UseCase.
func (m *MockUserUseCase) RegisterUser(ctx context.Context, input usecase.RegisterUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// GetUserByEmail mocks the GetUserByEmail method of UseCase.
func (m *MockUserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// GetUserByID mocks the GetUserByID method of UseCase.
func (m *MockUserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// ConfirmRegistration mocks the ConfirmRegistration method of UseCase.
func (m *MockUserUseCase) ConfirmRegistration(ctx context.Context, id uuid.UUID, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

// ResendRegistrationToken mocks the ResendRegistrationToken method of UseCase.
func (m *MockUserUseCase) ResendRegistrationToken(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ForgotPassword mocks the ForgotPassword method of UseCase.
func (m *MockUserUseCase) ForgotPassword(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// ResetPassword mocks the ResetPassword method of UseCase.
func (m *MockUserUseCase) ResetPassword(ctx context.Context, input usecase.ResetPasswordInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}
