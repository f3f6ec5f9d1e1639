package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"toursite-backend-go/internal/db"
	"toursite-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const blogColumns = `id, title, slug, description, image, content, published, is_featured, author, created_at, updated_at`

type BlogInput struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Content     string `json:"content"`
	Published   bool   `json:"published"`
	IsFeatured  bool   `json:"isFeatured"`
	Author      string `json:"author"`
}

type BlogService struct {
	DB          *sqlx.DB
	images      InlineUploader
	invalidator Invalidator
	logger      zerolog.Logger
}

func NewBlogService(db *sqlx.DB, images InlineUploader, invalidator Invalidator, logger zerolog.Logger) *BlogService {
	return &BlogService{DB: db, images: images, invalidator: invalidator, logger: logger.With().Str("component", "blog").Logger()}
}

func (s *BlogService) List(ctx context.Context, page, pageSize int, publishedOnly bool, search string) (Page[models.BlogPost], error) {
	page, pageSize = NormalizePaging(page, pageSize)
	conditions := []string{}
	args := []interface{}{}
	if publishedOnly {
		conditions = append(conditions, "published = true")
	}
	if term := CleanSearchTerm(search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		conditions = append(conditions, fmt.Sprintf("(lower(title) LIKE $%d OR lower(description) LIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, "SELECT count(*) FROM blog "+where, args...); err != nil {
		return Page[models.BlogPost]{}, ErrStorage(err)
	}
	args = append(args, pageSize, pageOffset(page, pageSize))
	query := fmt.Sprintf(`SELECT `+blogColumns+` FROM blog `+where+`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows := []models.BlogPost{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return Page[models.BlogPost]{}, ErrStorage(err)
	}
	return NewPage(rows, total, page, pageSize), nil
}

func (s *BlogService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (models.BlogPost, error) {
	query := `SELECT ` + blogColumns + ` FROM blog WHERE slug = $1`
	if publishedOnly {
		query += ` AND published = true`
	}
	return s.getOne(ctx, query, slug)
}

func (s *BlogService) Get(ctx context.Context, id string) (models.BlogPost, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.BlogPost{}, ErrNotFound("Post not found")
	}
	return s.getOne(ctx, `SELECT `+blogColumns+` FROM blog WHERE id = $1`, id)
}

// Featured picks the most recently updated featured post.
func (s *BlogService) Featured(ctx context.Context) (models.BlogPost, error) {
	return s.getOne(ctx, `SELECT `+blogColumns+` FROM blog
WHERE is_featured = true AND published = true
ORDER BY updated_at DESC, id DESC
LIMIT 1`)
}

func (s *BlogService) getOne(ctx context.Context, query string, args ...interface{}) (models.BlogPost, error) {
	var post models.BlogPost
	err := s.DB.GetContext(ctx, &post, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BlogPost{}, ErrNotFound("Post not found")
	}
	if err != nil {
		return models.BlogPost{}, ErrStorage(err)
	}
	return post, nil
}

func (s *BlogService) Create(ctx context.Context, input BlogInput) (models.BlogPost, error) {
	post := input.toPost()
	post.ID = uuid.NewString()
	return s.save(ctx, post, input.Slug, true)
}

func (s *BlogService) Update(ctx context.Context, id string, input BlogInput) (models.BlogPost, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.BlogPost{}, err
	}
	post := input.toPost()
	post.ID = existing.ID
	post.Slug = existing.Slug
	post.CreatedAt = existing.CreatedAt
	updated, err := s.save(ctx, post, input.Slug, false)
	if err != nil {
		return models.BlogPost{}, err
	}
	if existing.Slug != updated.Slug {
		s.invalidate(ctx, "/blog/"+existing.Slug)
	}
	return updated, nil
}

func (in BlogInput) toPost() models.BlogPost {
	return models.BlogPost{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Image:       strings.TrimSpace(in.Image),
		Content:     in.Content,
		Published:   in.Published,
		IsFeatured:  in.IsFeatured,
		Author:      strings.TrimSpace(in.Author),
	}
}

// save uploads an inline cover image, then writes the row. Featuring a post
// clears the flag on every other post in the same transaction.
func (s *BlogService) save(ctx context.Context, post models.BlogPost, requestedSlug string, create bool) (models.BlogPost, error) {
	image, uploaded, err := resolveInline(ctx, s.images, post.Image, Slugify(post.Title), "blog")
	if err != nil {
		return models.BlogPost{}, err
	}
	post.Image = image
	if err := ValidateBlogPost(post); err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		return models.BlogPost{}, err
	}

	var saved models.BlogPost
	err = db.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if create || strings.TrimSpace(requestedSlug) != "" {
			source := requestedSlug
			if strings.TrimSpace(source) == "" {
				source = post.Title
			}
			exclude := ""
			if !create {
				exclude = post.ID
			}
			slug, err := ResolveSlug(ctx, tx, "blog", source, exclude)
			if err != nil {
				return err
			}
			post.Slug = slug
		}
		if post.IsFeatured {
			if _, err := tx.ExecContext(ctx, `UPDATE blog SET is_featured = false WHERE is_featured = true AND id <> $1`, post.ID); err != nil {
				return err
			}
		}
		if create {
			return tx.GetContext(ctx, &saved, `
INSERT INTO blog (id, title, slug, description, image, content, published, is_featured, author, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
RETURNING `+blogColumns,
				post.ID, post.Title, post.Slug, post.Description, post.Image, post.Content, post.Published, post.IsFeatured, post.Author, time.Now().UTC())
		}
		return tx.GetContext(ctx, &saved, `
UPDATE blog SET title = $2, slug = $3, description = $4, image = $5, content = $6,
  published = $7, is_featured = $8, author = $9, updated_at = $10
WHERE id = $1
RETURNING `+blogColumns,
			post.ID, post.Title, post.Slug, post.Description, post.Image, post.Content, post.Published, post.IsFeatured, post.Author, time.Now().UTC())
	})
	if err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		if errors.Is(err, sql.ErrNoRows) {
			return models.BlogPost{}, ErrNotFound("Post not found")
		}
		return models.BlogPost{}, ErrStorage(err)
	}
	s.invalidate(ctx, "/", "/blog", "/blog/"+saved.Slug)
	return saved, nil
}

func (s *BlogService) Delete(ctx context.Context, id string) error {
	post, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM blog WHERE id = $1`, post.ID); err != nil {
		return ErrStorage(err)
	}
	s.invalidate(ctx, "/", "/blog", "/blog/"+post.Slug)
	return nil
}

func (s *BlogService) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT count(*) FROM blog`); err != nil {
		return 0, ErrStorage(err)
	}
	return count, nil
}

func (s *BlogService) invalidate(ctx context.Context, routes ...string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, routes...); err != nil {
		s.logger.Warn().Err(err).Strs("routes", routes).Msg("invalidation failed")
	}
}
