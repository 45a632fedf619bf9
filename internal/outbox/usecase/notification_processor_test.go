package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/usertokens/internal/outbox/domain"
)

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func newTokenEvent(t *testing.T, eventType string) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewTokenIssuedEvent(eventType, domain.TokenIssuedPayload{
		UserID: uuid.Must(uuid.NewV7()),
		Name:   "John Doe",
		Email:  "john@example.com",
		Token:  "tok-123",
	})
	require.NoError(t, err)
	return event
}

func TestNotificationProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RegistrationToken", func(t *testing.T) {
		notifier := &MockNotifier{}
		event := newTokenEvent(t, domain.EventTypeRegistrationTokenIssued)
		notifier.On("Notify", ctx, mock.MatchedBy(func(n Notification) bool {
			return n.EventType == domain.EventTypeRegistrationTokenIssued && n.Payload.Token == "tok-123"
		})).Return(nil)

		err := NewNotificationProcessor(notifier, nil).Process(ctx, event)

		require.NoError(t, err)
		notifier.AssertExpectations(t)
	})

	t.Run("Success_UnknownEventType", func(t *testing.T) {
		notifier := &MockNotifier{}
		event := &domain.OutboxEvent{EventType: "unknown.event", Payload: `{}`}

		err := NewNotificationProcessor(notifier, nil).Process(ctx, event)

		assert.NoError(t, err)
		notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		notifier := &MockNotifier{}
		event := &domain.OutboxEvent{EventType: domain.EventTypePasswordResetTokenIssued, Payload: "invalid json"}

		err := NewNotificationProcessor(notifier, nil).Process(ctx, event)

		assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	})

	t.Run("Error_NotifierFailure", func(t *testing.T) {
		notifier := &MockNotifier{}
		notifyErr := errors.New("smtp unavailable")
		notifier.On("Notify", ctx, mock.Anything).Return(notifyErr)

		err := NewNotificationProcessor(notifier, nil).
			Process(ctx, newTokenEvent(t, domain.EventTypePasswordResetTokenIssued))

		assert.Equal(t, notifyErr, err)
	})
}

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	event := newTokenEvent(t, domain.EventTypeRegistrationTokenIssued)
	payload, err := event.DecodeTokenIssued()
	require.NoError(t, err)

	err = NewLogNotifier(logger).Notify(context.Background(), Notification{
		EventType: event.EventType,
		Payload:   payload,
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "john@example.com")
	assert.Contains(t, buf.String(), payload.UserID.String())
	assert.NotContains(t, buf.String(), "tok-123")
}
