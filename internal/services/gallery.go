package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const galleryColumns = `id, url, file_id, title, category, created_at, updated_at`

// DefaultGalleryCategories are always offered by the UI and never returned
// by Categories.
var DefaultGalleryCategories = []string{"all", "nature", "culture", "adventure", "wildlife"}

type GalleryInput struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

type GalleryService struct {
	DB          *sqlx.DB
	images      ImageUploader
	invalidator Invalidator
	logger      zerolog.Logger
}

func NewGalleryService(db *sqlx.DB, images ImageUploader, invalidator Invalidator, logger zerolog.Logger) *GalleryService {
	return &GalleryService{DB: db, images: images, invalidator: invalidator, logger: logger.With().Str("component", "gallery").Logger()}
}

func (s *GalleryService) List(ctx context.Context, page, pageSize int, category string) (Page[models.GalleryItem], error) {
	page, pageSize = NormalizePaging(page, pageSize)
	where := ""
	args := []interface{}{}
	category = normalizeCategory(category)
	if category != "" && category != "all" {
		args = append(args, category)
		where = "WHERE category = $1"
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, "SELECT count(*) FROM gallery "+where, args...); err != nil {
		return Page[models.GalleryItem]{}, ErrStorage(err)
	}
	args = append(args, pageSize, pageOffset(page, pageSize))
	query := fmt.Sprintf(`SELECT `+galleryColumns+` FROM gallery `+where+`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows := []models.GalleryItem{}
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return Page[models.GalleryItem]{}, ErrStorage(err)
	}
	return NewPage(rows, total, page, pageSize), nil
}

// Categories lists custom categories in use, without the defaults.
func (s *GalleryService) Categories(ctx context.Context) ([]string, error) {
	rows := []string{}
	if err := s.DB.SelectContext(ctx, &rows, `SELECT DISTINCT category FROM gallery WHERE category <> ''`); err != nil {
		return nil, ErrStorage(err)
	}
	reserved := map[string]bool{}
	for _, c := range DefaultGalleryCategories {
		reserved[c] = true
	}
	seen := map[string]bool{}
	out := []string{}
	for _, c := range rows {
		key := normalizeCategory(c)
		if key == "" || reserved[key] || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// Upload stores raw image bytes and records them. The hosted file is
// deleted again if the row cannot be written.
func (s *GalleryService) Upload(ctx context.Context, data []byte, filename string, input GalleryInput) (models.GalleryItem, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(filename, fileExt(filename))
	}
	input.Title = title
	if err := ValidateGalleryItem(models.GalleryItem{URL: "/pending", Title: title, Category: normalizeCategory(input.Category)}); err != nil {
		return models.GalleryItem{}, err
	}
	uploaded, err := s.images.Upload(ctx, data, Slugify(title), "gallery")
	if err != nil {
		return models.GalleryItem{}, err
	}
	return s.insert(ctx, uploaded, input)
}

// Create accepts an inline payload or an already hosted URL.
func (s *GalleryService) Create(ctx context.Context, input GalleryInput) (models.GalleryItem, error) {
	if !IsInlineImage(input.Image) {
		item := models.GalleryItem{URL: strings.TrimSpace(input.Image), Title: strings.TrimSpace(input.Title), Category: normalizeCategory(input.Category)}
		if err := ValidateGalleryItem(item); err != nil {
			return models.GalleryItem{}, err
		}
		return s.insert(ctx, UploadedImage{URL: item.URL}, input)
	}
	data, err := DecodeInlineImage(input.Image)
	if err != nil {
		return models.GalleryItem{}, err
	}
	return s.Upload(ctx, data, "", input)
}

func (s *GalleryService) insert(ctx context.Context, uploaded UploadedImage, input GalleryInput) (models.GalleryItem, error) {
	item := models.GalleryItem{
		ID:       uuid.NewString(),
		URL:      uploaded.URL,
		FileID:   uploaded.FileID,
		Title:    strings.TrimSpace(input.Title),
		Category: normalizeCategory(input.Category),
	}
	if err := ValidateGalleryItem(item); err != nil {
		discardUploads(ctx, s.images, s.logger, fileOnly(uploaded))
		return models.GalleryItem{}, err
	}
	now := time.Now().UTC()
	var saved models.GalleryItem
	err := s.DB.GetContext(ctx, &saved, `
INSERT INTO gallery (id, url, file_id, title, category, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
RETURNING `+galleryColumns, item.ID, item.URL, item.FileID, item.Title, item.Category, now)
	if err != nil {
		discardUploads(ctx, s.images, s.logger, fileOnly(uploaded))
		return models.GalleryItem{}, ErrStorage(err)
	}
	s.invalidate(ctx)
	return saved, nil
}

func (s *GalleryService) Update(ctx context.Context, id string, input GalleryInput) (models.GalleryItem, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.GalleryItem{}, err
	}
	existing.Title = strings.TrimSpace(input.Title)
	existing.Category = normalizeCategory(input.Category)
	if err := ValidateGalleryItem(existing); err != nil {
		return models.GalleryItem{}, err
	}
	var saved models.GalleryItem
	err = s.DB.GetContext(ctx, &saved, `
UPDATE gallery SET title = $2, category = $3, updated_at = now()
WHERE id = $1
RETURNING `+galleryColumns, existing.ID, existing.Title, existing.Category)
	if err != nil {
		return models.GalleryItem{}, ErrStorage(err)
	}
	s.invalidate(ctx)
	return saved, nil
}

func (s *GalleryService) Get(ctx context.Context, id string) (models.GalleryItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.GalleryItem{}, ErrNotFound("Gallery item not found")
	}
	var item models.GalleryItem
	err := s.DB.GetContext(ctx, &item, `SELECT `+galleryColumns+` FROM gallery WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GalleryItem{}, ErrNotFound("Gallery item not found")
	}
	if err != nil {
		return models.GalleryItem{}, ErrStorage(err)
	}
	return item, nil
}

// Delete removes the row first; a failed asset delete is only logged.
func (s *GalleryService) Delete(ctx context.Context, id string) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM gallery WHERE id = $1`, item.ID); err != nil {
		return ErrStorage(err)
	}
	discardUploads(ctx, s.images, s.logger, fileOnly(UploadedImage{URL: item.URL, FileID: item.FileID}))
	s.invalidate(ctx)
	return nil
}

func (s *GalleryService) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT count(*) FROM gallery`); err != nil {
		return 0, ErrStorage(err)
	}
	return count, nil
}

func (s *GalleryService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, "/gallery"); err != nil {
		s.logger.Warn().Err(err).Msg("invalidation failed")
	}
}

func normalizeCategory(value string) string {
	return strings.ToLower(CleanSearchTerm(value))
}

func fileOnly(img UploadedImage) []UploadedImage {
	if img.FileID == "" {
		return nil
	}
	return []UploadedImage{img}
}

func fileExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[i:]
	}
	return ""
}
