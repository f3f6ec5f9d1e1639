package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"toursite-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const subscriberColumns = `id, email, status, created_at, updated_at`

type NewsletterRepository struct {
	DB *sqlx.DB
}

func NewNewsletterRepository(db *sqlx.DB) *NewsletterRepository {
	return &NewsletterRepository{DB: db}
}

// Subscribe inserts a new address, reactivates an unsubscribed one and
// rejects an address that is already subscribed.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (models.NewsletterSubscriber, error) {
	if err := ValidateNewsletterEmail(email); err != nil {
		return models.NewsletterSubscriber{}, err
	}
	email = NormalizeEmail(email)

	var subscriber models.NewsletterSubscriber
	err := r.DB.GetContext(ctx, &subscriber, `SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email = $1`, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = r.DB.GetContext(ctx, &subscriber, `
INSERT INTO newsletter_subscribers (id, email, status, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (email) DO NOTHING
RETURNING `+subscriberColumns, uuid.NewString(), email, string(models.Subscribed))
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with a concurrent insert of the same address.
			return models.NewsletterSubscriber{}, alreadySubscribed()
		}
		if err != nil {
			return models.NewsletterSubscriber{}, ErrStorage(err)
		}
		return subscriber, nil
	case err != nil:
		return models.NewsletterSubscriber{}, ErrStorage(err)
	}

	if subscriber.Status == models.Subscribed {
		return models.NewsletterSubscriber{}, alreadySubscribed()
	}
	err = r.DB.GetContext(ctx, &subscriber, `
UPDATE newsletter_subscribers SET status = $1, updated_at = now()
WHERE id = $2
RETURNING `+subscriberColumns, string(models.Subscribed), subscriber.ID)
	if err != nil {
		return models.NewsletterSubscriber{}, ErrStorage(err)
	}
	return subscriber, nil
}

func alreadySubscribed() error {
	return ErrConflict("Email is already subscribed", ErrAlreadySubscribed)
}

func (r *NewsletterRepository) Unsubscribe(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE newsletter_subscribers SET status = $1, updated_at = now()
WHERE email = $2 AND status = $3
`, string(models.Unsubscribed), NormalizeEmail(email), string(models.Subscribed))
	if err != nil {
		return ErrStorage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Subscriber not found")
	}
	return nil
}

func (r *NewsletterRepository) List(ctx context.Context, page, pageSize int, status models.SubscriberStatus, search string) (Page[models.NewsletterSubscriber], error) {
	page, pageSize = NormalizePaging(page, pageSize)
	conditions := []string{}
	args := []interface{}{}
	if status != "" {
		args = append(args, string(status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if term := CleanSearchTerm(search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		conditions = append(conditions, fmt.Sprintf("email LIKE $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := r.DB.GetContext(ctx, &total, "SELECT count(*) FROM newsletter_subscribers "+where, args...); err != nil {
		return Page[models.NewsletterSubscriber]{}, ErrStorage(err)
	}
	args = append(args, pageSize, pageOffset(page, pageSize))
	query := fmt.Sprintf(`SELECT `+subscriberColumns+` FROM newsletter_subscribers `+where+`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows := []models.NewsletterSubscriber{}
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return Page[models.NewsletterSubscriber]{}, ErrStorage(err)
	}
	return NewPage(rows, total, page, pageSize), nil
}

func (r *NewsletterRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound("Subscriber not found")
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM newsletter_subscribers WHERE id = $1`, id)
	if err != nil {
		return ErrStorage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Subscriber not found")
	}
	return nil
}

func (r *NewsletterRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM newsletter_subscribers WHERE status = $1`, string(models.Subscribed)); err != nil {
		return 0, ErrStorage(err)
	}
	return count, nil
}
