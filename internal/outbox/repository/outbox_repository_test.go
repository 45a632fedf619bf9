package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/usertokens/internal/outbox/domain"
)

var eventColumns = []string{
	"id", "event_type", "payload", "status", "retries", "last_error", "processed_at", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newTestEvent() *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: domain.EventTypeRegistrationTokenIssued,
		Payload:   `{"user_id":"x"}`,
		Status:    domain.OutboxEventStatusPending,
	}
}

func TestPostgreSQLOutboxEventRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		event := newTestEvent()

		mock.ExpectExec("INSERT INTO outbox_events").
			WithArgs(event.ID, event.EventType, event.Payload, "pending", 0, nil, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewPostgreSQLOutboxEventRepository(db).Create(ctx, event))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("INSERT INTO outbox_events").WillReturnError(errors.New("boom"))

		err := NewPostgreSQLOutboxEventRepository(db).Create(ctx, newTestEvent())

		assert.ErrorContains(t, err, "failed to create outbox event")
	})
}

func TestPostgreSQLOutboxEventRepository_GetPendingEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		id1 := uuid.Must(uuid.NewV7())
		id2 := uuid.Must(uuid.NewV7())

		rows := sqlmock.NewRows(eventColumns).
			AddRow(id1.String(), domain.EventTypeRegistrationTokenIssued, "{}", "pending", 0, nil, nil, now, now).
			AddRow(id2.String(), domain.EventTypePasswordResetTokenIssued, "{}", "pending", 1, "timeout", nil, now, now)
		mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs("pending", 10).WillReturnRows(rows)

		events, err := NewPostgreSQLOutboxEventRepository(db).GetPendingEvents(ctx, 10)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, id1, events[0].ID)
		assert.Nil(t, events[0].LastError)
		require.NotNil(t, events[1].LastError)
		assert.Equal(t, "timeout", *events[1].LastError)
		assert.Equal(t, 1, events[1].Retries)
	})

	t.Run("Error_Query", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectQuery("FROM outbox_events").WillReturnError(errors.New("boom"))

		_, err := NewPostgreSQLOutboxEventRepository(db).GetPendingEvents(ctx, 10)

		assert.ErrorContains(t, err, "failed to get pending outbox events")
	})
}

func TestPostgreSQLOutboxEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	event := newTestEvent()
	event.Status = domain.OutboxEventStatusProcessed

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs(event.EventType, event.Payload, "processed", 0, nil, nil, event.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPostgreSQLOutboxEventRepository(db).Update(ctx, event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxEventRepository_Create(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	event := newTestEvent()
	idBytes, err := event.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(idBytes, event.EventType, event.Payload, "pending", 0, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewMySQLOutboxEventRepository(db).Create(ctx, event))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxEventRepository_GetPendingEvents(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	db, mock := newMockDB(t)
	id := uuid.Must(uuid.NewV7())
	idBytes, err := id.MarshalBinary()
	require.NoError(t, err)

	rows := sqlmock.NewRows(eventColumns).
		AddRow(idBytes, domain.EventTypeRegistrationTokenIssued, "{}", "pending", 0, nil, nil, now, now)
	mock.ExpectQuery("FOR UPDATE SKIP LOCKED").WithArgs("pending", 5).WillReturnRows(rows)

	events, err := NewMySQLOutboxEventRepository(db).GetPendingEvents(ctx, 5)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
}

func TestMySQLOutboxEventRepository_Update(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	event := newTestEvent()
	idBytes, err := event.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs(event.EventType, event.Payload, "pending", 0, nil, nil, idBytes).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewMySQLOutboxEventRepository(db).Update(ctx, event))
	assert.NoError(t, mock.ExpectationsWereMet())
}
