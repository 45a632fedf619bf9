// Package usecase implements the user business logic and orchestrates user domain operations.
package usecase

import (
	"context"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/allisson/go-pwdhash"
	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/database"
	apperrors "github.com/allisson/usertokens/internal/errors"
	outboxDomain "github.com/allisson/usertokens/internal/outbox/domain"
	tokenDomain "github.com/allisson/usertokens/internal/token/domain"
	tokenUseCase "github.com/allisson/usertokens/internal/token/usecase"
	"github.com/allisson/usertokens/internal/user/domain"
	appValidation "github.com/allisson/usertokens/internal/validation"
)

// RegisterUserInput contains the input data for user registration
type RegisterUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPasswordInput contains the input data for a password reset
type ResetPasswordInput struct {
	UserID   uuid.UUID `json:"user_id"`
	Token    string    `json:"token"`
	Password string    `json:"password"`
}

// UseCase defines the interface for user business logic operations
type UseCase interface {
	RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ConfirmRegistration(ctx context.Context, id uuid.UUID, token string) error
	ResendRegistrationToken(ctx context.Context, id uuid.UUID) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, input ResetPasswordInput) error
}

// UserRepository interface defines user repository operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// OutboxEventRepository interface defines the outbox operation used to enqueue
// token notifications
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// MailRegistrationTokens issues and checks e-mail confirmation tokens.
type MailRegistrationTokens = tokenUseCase.TokenUseCase[*tokenDomain.MailRegistrationToken]

// ForgotPasswordTokens issues and checks password reset tokens.
type ForgotPasswordTokens = tokenUseCase.TokenUseCase[*tokenDomain.ForgotPasswordToken]

// UserUseCase handles user-related business logic
type UserUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	outboxRepo     OutboxEventRepository
	mailTokens     MailRegistrationTokens
	passwordTokens ForgotPasswordTokens
	passwordHasher *pwdhash.PasswordHasher
}

// NewUserUseCase creates a new UserUseCase
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	mailTokens MailRegistrationTokens,
	passwordTokens ForgotPasswordTokens,
) (UseCase, error) {
	// Initialize password hasher with interactive policy for user passwords
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create password hasher")
	}

	return &UserUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		outboxRepo:     outboxRepo,
		mailTokens:     mailTokens,
		passwordTokens: passwordTokens,
		passwordHasher: hasher,
	}, nil
}

var passwordRules = []validation.Rule{
	validation.Required.Error("password is required"),
	validation.Length(8, 128).Error("password must be between 8 and 128 characters"),
	appValidation.PasswordStrength{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	},
}

var emailRules = []validation.Rule{
	validation.Required.Error("email is required"),
	appValidation.NotBlank,
	appValidation.Email,
	validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
}

// validateRegisterUserInput validates the registration input using jellydator/validation
func (uc *UserUseCase) validateRegisterUserInput(input RegisterUserInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
		validation.Field(&input.Email, emailRules...),
		validation.Field(&input.Password, passwordRules...),
	)
	return appValidation.WrapValidationError(err)
}

// RegisterUser registers a disabled user, issues a mail registration token and
// enqueues its notification in the same transaction
func (uc *UserUseCase) RegisterUser(ctx context.Context, input RegisterUserInput) (*domain.User, error) {
	if err := uc.validateRegisterUserInput(input); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      strings.TrimSpace(input.Name),
		Email:     normalizeEmail(input.Email),
		Password:  hashedPassword,
		Enabled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var issued string
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.userRepo.Create(ctx, user); err != nil {
			return err
		}
		value, err := uc.issueRegistrationToken(ctx, user)
		issued = value
		return err
	})
	if err != nil {
		discardIssued(ctx, uc.mailTokens, issued)
		return nil, err
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (uc *UserUseCase) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
}

// GetUserByID retrieves a user by ID
func (uc *UserUseCase) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}

// ConfirmRegistration enables the user when token is a mail registration token issued
// to them. The token is consumed; of two concurrent confirmations only one succeeds.
func (uc *UserUseCase) ConfirmRegistration(ctx context.Context, id uuid.UUID, token string) error {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Enabled {
		return domain.ErrUserAlreadyEnabled
	}

	var consumed *tokenDomain.MailRegistrationToken
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.mailTokens.ConsumeTokenForUser(ctx, user, token)
		if err != nil {
			return err
		}
		consumed = record

		user.Enabled = true
		user.UpdatedAt = time.Now().UTC()
		return uc.userRepo.Update(ctx, user)
	})
	if err != nil {
		user.Enabled = false
		if consumed != nil {
			restoreConsumed(ctx, uc.mailTokens, consumed)
		}
		return err
	}
	return nil
}

// ResendRegistrationToken issues a fresh mail registration token for a user that has
// not confirmed yet. Earlier tokens stay valid until they expire.
func (uc *UserUseCase) ResendRegistrationToken(ctx context.Context, id uuid.UUID) error {
	user, err := uc.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Enabled {
		return domain.ErrUserAlreadyEnabled
	}

	var issued string
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		value, err := uc.issueRegistrationToken(ctx, user)
		issued = value
		return err
	})
	if err != nil {
		discardIssued(ctx, uc.mailTokens, issued)
		return err
	}
	return nil
}

// ForgotPassword issues a password reset token for the enabled user owning email.
// Unknown and disabled accounts succeed silently so callers cannot enumerate e-mails.
func (uc *UserUseCase) ForgotPassword(ctx context.Context, email string) error {
	if err := validation.Validate(email, emailRules...); err != nil {
		return appValidation.WrapValidationError(err)
	}

	user, err := uc.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if !user.Enabled {
		return nil
	}

	var issued string
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.passwordTokens.GenerateTokenForUser(ctx, user)
		if err != nil {
			return err
		}
		issued = record.Value
		return uc.enqueueTokenIssued(ctx, outboxDomain.EventTypePasswordResetTokenIssued, user, record.Base())
	})
	if err != nil {
		discardIssued(ctx, uc.passwordTokens, issued)
		return err
	}
	return nil
}

// ResetPassword replaces the user's password when token is a password reset token
// issued to them. The token is consumed. Disabled accounts get ErrUserDisabled.
func (uc *UserUseCase) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.UserID, appValidation.RequiredUUID("user_id is required")),
		validation.Field(&input.Token,
			validation.Required.Error("token is required"),
			appValidation.TokenValue,
			appValidation.NoWhitespace,
		),
		validation.Field(&input.Password, passwordRules...),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}

	user, err := uc.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if apperrors.Is(err, domain.ErrUserNotFound) {
			return tokenDomain.ErrTokenUnknown
		}
		return err
	}

	// Rejects bad tokens before hashing. Consumption inside the transaction is the
	// single-use check.
	if err := uc.passwordTokens.ValidateTokenForUser(ctx, user, input.Token); err != nil {
		return err
	}
	if !user.Enabled {
		return domain.ErrUserDisabled
	}

	hashedPassword, err := uc.passwordHasher.Hash([]byte(input.Password))
	if err != nil {
		return apperrors.Wrap(err, "failed to hash password")
	}

	previousPassword := user.Password
	var consumed *tokenDomain.ForgotPasswordToken
	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		record, err := uc.passwordTokens.ConsumeTokenForUser(ctx, user, input.Token)
		if err != nil {
			return err
		}
		consumed = record

		user.Password = hashedPassword
		user.UpdatedAt = time.Now().UTC()
		return uc.userRepo.Update(ctx, user)
	})
	if err != nil {
		user.Password = previousPassword
		if consumed != nil {
			restoreConsumed(ctx, uc.passwordTokens, consumed)
		}
		return err
	}
	return nil
}

// issueRegistrationToken returns the issued value even when enqueueing fails, so the
// caller can discard it.
func (uc *UserUseCase) issueRegistrationToken(ctx context.Context, user *domain.User) (string, error) {
	record, err := uc.mailTokens.GenerateTokenForUser(ctx, user)
	if err != nil {
		return "", err
	}
	return record.Value, uc.enqueueTokenIssued(ctx, outboxDomain.EventTypeRegistrationTokenIssued, user, record.Base())
}

// discardIssued removes a token written during a transaction that failed. SQL stores
// already rolled it back and see an unknown token; Redis keeps writes made inside the
// transaction and needs the delete. Failures leave the token to expire on its own.
func discardIssued[T tokenDomain.Record](
	ctx context.Context,
	tokens tokenUseCase.TokenUseCase[T],
	value string,
) {
	if value == "" {
		return
	}
	_ = tokens.InvalidateToken(context.WithoutCancel(ctx), value)
}

// restoreConsumed puts back a token consumed during a transaction that failed, so the
// user can retry with the same token.
func restoreConsumed[T tokenDomain.Record](
	ctx context.Context,
	tokens tokenUseCase.TokenUseCase[T],
	record T,
) {
	_ = tokens.RestoreToken(context.WithoutCancel(ctx), record)
}

func (uc *UserUseCase) enqueueTokenIssued(
	ctx context.Context,
	eventType string,
	user *domain.User,
	token *tokenDomain.Token,
) error {
	event, err := outboxDomain.NewTokenIssuedEvent(eventType, outboxDomain.TokenIssuedPayload{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return err
	}

	if err := uc.outboxRepo.Create(ctx, event); err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
