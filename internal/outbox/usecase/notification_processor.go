package usecase

import (
	"context"
	"log/slog"

	"github.com/allisson/usertokens/internal/outbox/domain"
)

// Notification is a token delivery request addressed to a user.
type Notification struct {
	EventType string
	Payload   *domain.TokenIssuedPayload
}

// Notifier delivers token notifications, e.g. by e-mail.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// NotificationProcessor turns token issued events into notifications.
type NotificationProcessor struct {
	notifier Notifier
	logger   *slog.Logger
}

// NewNotificationProcessor creates a new NotificationProcessor
func NewNotificationProcessor(notifier Notifier, logger *slog.Logger) *NotificationProcessor {
	return &NotificationProcessor{
		notifier: notifier,
		logger:   logger,
	}
}

// Process decodes the event payload and hands it to the notifier. Unknown event types
// are logged and acknowledged.
func (p *NotificationProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	switch event.EventType {
	case domain.EventTypeRegistrationTokenIssued, domain.EventTypePasswordResetTokenIssued:
		payload, err := event.DecodeTokenIssued()
		if err != nil {
			return err
		}
		return p.notifier.Notify(ctx, Notification{EventType: event.EventType, Payload: payload})
	default:
		if p.logger != nil {
			p.logger.Warn("unknown event type", slog.String("event_type", event.EventType))
		}
		return nil
	}
}

// LogNotifier writes notifications to the log instead of sending them. The token value
// is never logged.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the recipient of the notification.
func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	attrs := []any{
		slog.String("event_type", notification.EventType),
		slog.String("user_id", notification.Payload.UserID.String()),
		slog.String("email", notification.Payload.Email),
	}
	if notification.Payload.ExpiresAt != nil {
		attrs = append(attrs, slog.Time("expires_at", *notification.Payload.ExpiresAt))
	}
	n.logger.InfoContext(ctx, "token notification", attrs...)
	return nil
}
