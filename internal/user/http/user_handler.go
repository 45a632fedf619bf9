// Package http provides HTTP handlers for user registration, e-mail confirmation and
// password recovery. Every flow that consumes a token goes through the token use cases.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/allisson/usertokens/internal/httputil"
	"github.com/allisson/usertokens/internal/user/http/dto"
	"github.com/allisson/usertokens/internal/user/usecase"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// RegisterHandler registers a disabled user and sends a mail registration token.
// POST /v1/users - Returns 201 Created with the user.
func (h *UserHandler) RegisterHandler(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	user, err := h.userUseCase.RegisterUser(c.Request.Context(), dto.ToRegisterUserInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// GetHandler returns a user by id.
// GET /v1/users/:id - Returns 200 OK with the user.
func (h *UserHandler) GetHandler(c *gin.Context) {
	id, ok := h.parseUserID(c)
	if !ok {
		return
	}

	user, err := h.userUseCase.GetUserByID(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// ConfirmHandler enables the user with the token from the registration e-mail.
// POST /v1/users/:id/confirm - Returns 204 No Content.
func (h *UserHandler) ConfirmHandler(c *gin.Context) {
	id, ok := h.parseUserID(c)
	if !ok {
		return
	}

	var req dto.ConfirmRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.ConfirmRegistration(c.Request.Context(), id, req.Token); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// ResendConfirmationHandler issues a new mail registration token.
// POST /v1/users/:id/confirm/resend - Returns 202 Accepted.
func (h *UserHandler) ResendConfirmationHandler(c *gin.Context) {
	id, ok := h.parseUserID(c)
	if !ok {
		return
	}

	if err := h.userUseCase.ResendRegistrationToken(c.Request.Context(), id); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.AcceptedResponse{Message: "confirmation token sent"})
}

// ForgotPasswordHandler sends a password reset token when the e-mail belongs to an
// enabled user. The response is the same either way.
// POST /v1/password/forgot - Returns 202 Accepted.
func (h *UserHandler) ForgotPasswordHandler(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.AcceptedResponse{
		Message: "if the account exists a password reset token was sent",
	})
}

// ResetPasswordHandler replaces the password using a password reset token.
// POST /v1/password/reset - Returns 204 No Content.
func (h *UserHandler) ResetPasswordHandler(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	input, err := dto.ToResetPasswordInput(req)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.ResetPassword(c.Request.Context(), input); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *UserHandler) parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid user id: must be a valid UUID"), h.logger)
		return uuid.Nil, false
	}
	return id, true
}
