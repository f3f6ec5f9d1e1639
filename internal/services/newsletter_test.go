package services

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subscriberCols = []string{"id", "email", "status", "created_at", "updated_at"}

func TestSubscribeNewEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM newsletter_subscribers WHERE email = \$1`).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO newsletter_subscribers`).
		WithArgs(sqlmock.AnyArg(), "new@example.com", "subscribed").
		WillReturnRows(sqlmock.NewRows(subscriberCols).AddRow("id-1", "new@example.com", "subscribed", now, now))

	sub, err := repo.Subscribe(context.Background(), " New@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.Subscribed, sub.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeReactivates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM newsletter_subscribers WHERE email`).
		WithArgs("back@example.com").
		WillReturnRows(sqlmock.NewRows(subscriberCols).AddRow("id-2", "back@example.com", "unsubscribed", now, now))
	mock.ExpectQuery(`UPDATE newsletter_subscribers SET status = \$1`).
		WithArgs("subscribed", "id-2").
		WillReturnRows(sqlmock.NewRows(subscriberCols).AddRow("id-2", "back@example.com", "subscribed", now, now))

	sub, err := repo.Subscribe(context.Background(), "back@example.com")
	require.NoError(t, err)
	assert.Equal(t, "id-2", sub.ID)
	assert.Equal(t, models.Subscribed, sub.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeAlreadySubscribed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM newsletter_subscribers WHERE email`).
		WillReturnRows(sqlmock.NewRows(subscriberCols).AddRow("id-3", "on@example.com", "subscribed", now, now))

	_, err := repo.Subscribe(context.Background(), "on@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.True(t, IsKind(err, KindConflict))
	var serr ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusConflict, serr.Status)
	// No write was attempted.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribeRejectsBadEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)

	_, err := repo.Subscribe(context.Background(), "nope")
	assert.True(t, IsKind(err, KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsubscribe(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)

	mock.ExpectExec(`UPDATE newsletter_subscribers SET status = \$1`).
		WithArgs("unsubscribed", "a@example.com", "subscribed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Unsubscribe(context.Background(), "A@example.com"))

	mock.ExpectExec(`UPDATE newsletter_subscribers`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Unsubscribe(context.Background(), "ghost@example.com")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestNewsletterListAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNewsletterRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT count\(\*\) FROM newsletter_subscribers WHERE status = \$1`).
		WithArgs("subscribed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("subscribed", 10, 0).
		WillReturnRows(sqlmock.NewRows(subscriberCols).AddRow("id-1", "a@example.com", "subscribed", now, now))

	page, err := repo.List(context.Background(), 1, 10, models.Subscribed, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.TotalPages)

	id := "4b3c2f4e-8a63-4d0e-9a57-8d7c56a1d001"
	mock.ExpectExec(`DELETE FROM newsletter_subscribers WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Delete(context.Background(), id)
	assert.True(t, IsKind(err, KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
