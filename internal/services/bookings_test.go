package services

import (
	"bytes"
	"context"
	"database/sql"
	"regexp"
	"strconv"
	"testing"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var bookingCols = []string{"id", "name", "email", "phone", "guests", "package_slug", "travel_date", "message", "status", "admin_notes", "created_at", "updated_at"}

func bookingRow(rows *sqlmock.Rows, id, name string, created time.Time) *sqlmock.Rows {
	return rows.AddRow(id, name, name+"@example.com", "9801234567", 2, "ebc", created, "", "pending", "", created, created)
}

func TestBookingCreateIsPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(sqlmock.AnyArg(), "Ana", "ana@example.com", "+9779801234567", 3, "ebc", sqlmock.AnyArg(), "Vegetarian meals", "pending", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	date := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	inquiry, err := repo.Create(context.Background(), BookingRequest{
		Name: " Ana ", Email: "ANA@example.com", Phone: "+977 980-123-4567", Guests: 3, PackageSlug: "ebc", Message: "Vegetarian meals",
	}, date)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, inquiry.Status)
	assert.NotEmpty(t, inquiry.ID)
	assert.Equal(t, date, inquiry.TravelDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListSecondPage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM bookings`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingCols)
	// Rows 11-20 by recency: created 15 down to 6 hours after base.
	for i := 15; i >= 6; i-- {
		rows = bookingRow(rows, "id-"+strconv.Itoa(i), "guest", base.Add(time.Duration(i)*time.Hour))
	}
	mock.ExpectQuery(`SELECT .* FROM bookings\s+ORDER BY created_at DESC, id DESC\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 10).
		WillReturnRows(rows)

	page, err := repo.List(context.Background(), BookingFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	for i := 1; i < len(page.Items); i++ {
		assert.True(t, page.Items[i-1].CreatedAt.After(page.Items[i].CreatedAt))
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM bookings WHERE status = $1 AND (lower(name) LIKE $2 OR lower(email) LIKE $2)`)).
		WithArgs("confirmed", "%ana s%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("confirmed", "%ana s%", 100, 0).
		WillReturnRows(sqlmock.NewRows(bookingCols))

	page, err := repo.List(context.Background(), BookingFilter{Page: 0, PageSize: 500, Status: models.BookingConfirmed, Search: "  Ana   S "})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 0, page.TotalPages)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	id := "4b3c2f4e-8a63-4d0e-9a57-8d7c56a1d001"

	_, err := repo.UpdateStatus(context.Background(), id, "archived", "")
	assert.True(t, IsKind(err, KindValidation))

	now := time.Now()
	mock.ExpectQuery(`UPDATE bookings SET status = \$1, admin_notes = \$2`).
		WithArgs("confirmed", "Deposit received", id).
		WillReturnRows(bookingRow(sqlmock.NewRows(bookingCols), id, "ana", now))

	_, err = repo.UpdateStatus(context.Background(), id, models.BookingConfirmed, " Deposit received ")
	require.NoError(t, err)

	mock.ExpectQuery(`UPDATE bookings`).WillReturnError(sql.ErrNoRows)
	_, err = repo.UpdateStatus(context.Background(), id, models.BookingCancelled, "")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = repo.UpdateStatus(context.Background(), "not-a-uuid", models.BookingCancelled, "")
	assert.True(t, IsKind(err, KindNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingCountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	mock.ExpectQuery(`GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 4).AddRow("completed", 1))

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.BookingPending])
	assert.Equal(t, 0, counts[models.BookingConfirmed])
	assert.Equal(t, 1, counts[models.BookingCompleted])
}

func TestWriteBookingsXLSX(t *testing.T) {
	created := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	bookings := []models.BookingInquiry{
		{Name: "Ana", Email: "ana@example.com", Phone: "9801234567", Guests: 2, PackageSlug: "ebc",
			TravelDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), Status: models.BookingConfirmed, CreatedAt: created},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteBookingsXLSX(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Bookings", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Created", header)
	name, _ := f.GetCellValue("Bookings", "B2")
	assert.Equal(t, "Ana", name)
	travel, _ := f.GetCellValue("Bookings", "G2")
	assert.Equal(t, "2026-04-01", travel)
	status, _ := f.GetCellValue("Bookings", "H2")
	assert.Equal(t, "confirmed", status)
}
