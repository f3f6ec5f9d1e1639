package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, name, email, phone, guests, package_slug, travel_date, message, status, admin_notes, created_at, updated_at`

type BookingRepository struct {
	DB *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

type BookingFilter struct {
	Page     int
	PageSize int
	Status   models.BookingStatus
	Search   string
}

// Create appends a pending inquiry. Input is validated by ValidateBooking.
func (r *BookingRepository) Create(ctx context.Context, req BookingRequest, travelDate time.Time) (models.BookingInquiry, error) {
	now := time.Now().UTC()
	inquiry := models.BookingInquiry{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Email:       NormalizeEmail(req.Email),
		Phone:       NormalizePhone(req.Phone),
		Guests:      req.Guests,
		PackageSlug: strings.TrimSpace(req.PackageSlug),
		TravelDate:  travelDate,
		Message:     strings.TrimSpace(req.Message),
		Status:      models.BookingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.DB.NamedExecContext(ctx, `
INSERT INTO bookings (`+bookingColumns+`)
VALUES (:id, :name, :email, :phone, :guests, :package_slug, :travel_date, :message, :status, :admin_notes, :created_at, :updated_at)
`, inquiry)
	if err != nil {
		return models.BookingInquiry{}, ErrStorage(err)
	}
	return inquiry, nil
}

// List returns newest first. The count and the page are separate queries.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter) (Page[models.BookingInquiry], error) {
	page, pageSize := NormalizePaging(filter.Page, filter.PageSize)
	conditions := []string{}
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if search := CleanSearchTerm(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(lower(name) LIKE $%d OR lower(email) LIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, "SELECT count(*) FROM bookings "+where, args...); err != nil {
		return Page[models.BookingInquiry]{}, ErrStorage(err)
	}
	args = append(args, pageSize, pageOffset(page, pageSize))
	query := fmt.Sprintf(`SELECT `+bookingColumns+` FROM bookings `+where+`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows := []models.BookingInquiry{}
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return Page[models.BookingInquiry]{}, ErrStorage(err)
	}
	return NewPage(rows, total, page, pageSize), nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (models.BookingInquiry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.BookingInquiry{}, ErrNotFound("Booking not found")
	}
	var inquiry models.BookingInquiry
	err := r.DB.GetContext(ctx, &inquiry, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookingInquiry{}, ErrNotFound("Booking not found")
	}
	if err != nil {
		return models.BookingInquiry{}, ErrStorage(err)
	}
	return inquiry, nil
}

// UpdateStatus replaces status and notes together; no history is kept.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, status models.BookingStatus, notes string) (models.BookingInquiry, error) {
	if !status.Valid() {
		return models.BookingInquiry{}, ErrValidation([]FieldError{{Field: "status", Message: "must be one of pending, confirmed, cancelled, completed"}})
	}
	if _, err := uuid.Parse(id); err != nil {
		return models.BookingInquiry{}, ErrNotFound("Booking not found")
	}
	var inquiry models.BookingInquiry
	err := r.DB.GetContext(ctx, &inquiry, `
UPDATE bookings SET status = $1, admin_notes = $2, updated_at = now()
WHERE id = $3
RETURNING `+bookingColumns, string(status), strings.TrimSpace(notes), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BookingInquiry{}, ErrNotFound("Booking not found")
	}
	if err != nil {
		return models.BookingInquiry{}, ErrStorage(err)
	}
	return inquiry, nil
}

// All streams every inquiry, oldest first, for exports.
func (r *BookingRepository) All(ctx context.Context, status models.BookingStatus) ([]models.BookingInquiry, error) {
	rows := []models.BookingInquiry{}
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, ErrStorage(err)
	}
	return rows, nil
}

// CountByStatus feeds the dashboard.
func (r *BookingRepository) CountByStatus(ctx context.Context) (map[models.BookingStatus]int, error) {
	rows := []struct {
		Status models.BookingStatus `db:"status"`
		Count  int                  `db:"count"`
	}{}
	if err := r.DB.SelectContext(ctx, &rows, `SELECT status, count(*) AS count FROM bookings GROUP BY status`); err != nil {
		return nil, ErrStorage(err)
	}
	counts := map[models.BookingStatus]int{
		models.BookingPending:   0,
		models.BookingConfirmed: 0,
		models.BookingCancelled: 0,
		models.BookingCompleted: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
