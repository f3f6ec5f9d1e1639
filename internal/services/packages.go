package services

import (
	"context"
	"database/sql"
	"encoding/json"
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

const packageColumns = `id, slug, title, summary, duration_days, price_from, image, highlights, timeline, published, created_at, updated_at`

// packageRow mirrors the packages table; the JSONB columns stay raw until
// toModel decodes them.
type packageRow struct {
	ID           string    `db:"id"`
	Slug         string    `db:"slug"`
	Title        string    `db:"title"`
	Summary      string    `db:"summary"`
	DurationDays int       `db:"duration_days"`
	PriceFrom    float64   `db:"price_from"`
	Image        string    `db:"image"`
	Highlights   []byte    `db:"highlights"`
	Timeline     []byte    `db:"timeline"`
	Published    bool      `db:"published"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r packageRow) toModel() (models.TourPackage, error) {
	pkg := models.TourPackage{
		ID:           r.ID,
		Slug:         r.Slug,
		Title:        r.Title,
		Summary:      r.Summary,
		DurationDays: r.DurationDays,
		PriceFrom:    r.PriceFrom,
		Image:        r.Image,
		Published:    r.Published,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Highlights:   []string{},
		Timeline:     []models.TimelineDay{},
	}
	if len(r.Highlights) > 0 {
		if err := json.Unmarshal(r.Highlights, &pkg.Highlights); err != nil {
			return models.TourPackage{}, fmt.Errorf("package %s highlights: %w", r.ID, err)
		}
	}
	if len(r.Timeline) > 0 {
		if err := json.Unmarshal(r.Timeline, &pkg.Timeline); err != nil {
			return models.TourPackage{}, fmt.Errorf("package %s timeline: %w", r.ID, err)
		}
	}
	return pkg, nil
}

type PackageInput struct {
	Title        string               `json:"title"`
	Slug         string               `json:"slug"`
	Summary      string               `json:"summary"`
	DurationDays int                  `json:"durationDays"`
	PriceFrom    float64              `json:"priceFrom"`
	Image        string               `json:"image"`
	Highlights   []string             `json:"highlights"`
	Timeline     []models.TimelineDay `json:"timeline"`
	Published    bool                 `json:"published"`
}

func (in PackageInput) toPackage() models.TourPackage {
	highlights := make([]string, 0, len(in.Highlights))
	for _, h := range in.Highlights {
		highlights = append(highlights, strings.TrimSpace(h))
	}
	timeline := in.Timeline
	if timeline == nil {
		timeline = []models.TimelineDay{}
	}
	return models.TourPackage{
		Title:        strings.TrimSpace(in.Title),
		Summary:      strings.TrimSpace(in.Summary),
		DurationDays: in.DurationDays,
		PriceFrom:    in.PriceFrom,
		Image:        strings.TrimSpace(in.Image),
		Highlights:   highlights,
		Timeline:     timeline,
		Published:    in.Published,
	}
}

type PackageService struct {
	DB          *sqlx.DB
	images      InlineUploader
	invalidator Invalidator
	logger      zerolog.Logger
}

func NewPackageService(db *sqlx.DB, images InlineUploader, invalidator Invalidator, logger zerolog.Logger) *PackageService {
	return &PackageService{DB: db, images: images, invalidator: invalidator, logger: logger.With().Str("component", "packages").Logger()}
}

func (s *PackageService) List(ctx context.Context, page, pageSize int, publishedOnly bool) (Page[models.TourPackage], error) {
	page, pageSize = NormalizePaging(page, pageSize)
	where := ""
	if publishedOnly {
		where = "WHERE published = true"
	}
	var total int
	if err := s.DB.GetContext(ctx, &total, "SELECT count(*) FROM packages "+where); err != nil {
		return Page[models.TourPackage]{}, ErrStorage(err)
	}
	rows := []packageRow{}
	err := s.DB.SelectContext(ctx, &rows, `SELECT `+packageColumns+` FROM packages `+where+`
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return Page[models.TourPackage]{}, ErrStorage(err)
	}
	items := make([]models.TourPackage, 0, len(rows))
	for _, row := range rows {
		pkg, err := row.toModel()
		if err != nil {
			return Page[models.TourPackage]{}, ErrStorage(err)
		}
		items = append(items, pkg)
	}
	return NewPage(items, total, page, pageSize), nil
}

// BySlugs returns published packages in the order of slugs, skipping
// unknown ones. The home page uses it for its featured list.
func (s *PackageService) BySlugs(ctx context.Context, slugs []string) ([]models.TourPackage, error) {
	out := []models.TourPackage{}
	if len(slugs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+packageColumns+` FROM packages WHERE published = true AND slug IN (?)`, slugs)
	if err != nil {
		return nil, ErrStorage(err)
	}
	rows := []packageRow{}
	if err := s.DB.SelectContext(ctx, &rows, s.DB.Rebind(query), args...); err != nil {
		return nil, ErrStorage(err)
	}
	bySlug := map[string]models.TourPackage{}
	for _, row := range rows {
		pkg, err := row.toModel()
		if err != nil {
			return nil, ErrStorage(err)
		}
		bySlug[pkg.Slug] = pkg
	}
	for _, slug := range slugs {
		if pkg, ok := bySlug[slug]; ok {
			out = append(out, pkg)
		}
	}
	return out, nil
}

func (s *PackageService) GetBySlug(ctx context.Context, slug string, publishedOnly bool) (models.TourPackage, error) {
	query := `SELECT ` + packageColumns + ` FROM packages WHERE slug = $1`
	if publishedOnly {
		query += ` AND published = true`
	}
	return s.getOne(ctx, query, slug)
}

func (s *PackageService) Get(ctx context.Context, id string) (models.TourPackage, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.TourPackage{}, ErrNotFound("Package not found")
	}
	return s.getOne(ctx, `SELECT `+packageColumns+` FROM packages WHERE id = $1`, id)
}

func (s *PackageService) getOne(ctx context.Context, query string, args ...interface{}) (models.TourPackage, error) {
	var row packageRow
	err := s.DB.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TourPackage{}, ErrNotFound("Package not found")
	}
	if err != nil {
		return models.TourPackage{}, ErrStorage(err)
	}
	pkg, err := row.toModel()
	if err != nil {
		return models.TourPackage{}, ErrStorage(err)
	}
	return pkg, nil
}

func (s *PackageService) Create(ctx context.Context, input PackageInput) (models.TourPackage, error) {
	pkg := input.toPackage()
	pkg.ID = uuid.NewString()
	return s.save(ctx, pkg, input.Slug, true)
}

func (s *PackageService) Update(ctx context.Context, id string, input PackageInput) (models.TourPackage, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return models.TourPackage{}, err
	}
	pkg := input.toPackage()
	pkg.ID = existing.ID
	pkg.Slug = existing.Slug
	updated, err := s.save(ctx, pkg, input.Slug, false)
	if err != nil {
		return models.TourPackage{}, err
	}
	if existing.Slug != updated.Slug {
		s.invalidate(ctx, "/packages/"+existing.Slug)
	}
	return updated, nil
}

func (s *PackageService) save(ctx context.Context, pkg models.TourPackage, requestedSlug string, create bool) (models.TourPackage, error) {
	image, uploaded, err := resolveInline(ctx, s.images, pkg.Image, Slugify(pkg.Title), "packages")
	if err != nil {
		return models.TourPackage{}, err
	}
	pkg.Image = image
	if err := ValidatePackage(pkg); err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		return models.TourPackage{}, err
	}
	highlights, err := json.Marshal(pkg.Highlights)
	if err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		return models.TourPackage{}, ErrStorage(err)
	}
	timeline, err := json.Marshal(pkg.Timeline)
	if err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		return models.TourPackage{}, ErrStorage(err)
	}

	var row packageRow
	err = db.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if create || strings.TrimSpace(requestedSlug) != "" {
			source := requestedSlug
			if strings.TrimSpace(source) == "" {
				source = pkg.Title
			}
			exclude := ""
			if !create {
				exclude = pkg.ID
			}
			slug, err := ResolveSlug(ctx, tx, "packages", source, exclude)
			if err != nil {
				return err
			}
			pkg.Slug = slug
		}
		now := time.Now().UTC()
		if create {
			return tx.GetContext(ctx, &row, `
INSERT INTO packages (id, slug, title, summary, duration_days, price_from, image, highlights, timeline, published, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
RETURNING `+packageColumns,
				pkg.ID, pkg.Slug, pkg.Title, pkg.Summary, pkg.DurationDays, pkg.PriceFrom, pkg.Image, highlights, timeline, pkg.Published, now)
		}
		return tx.GetContext(ctx, &row, `
UPDATE packages SET slug = $2, title = $3, summary = $4, duration_days = $5, price_from = $6,
  image = $7, highlights = $8, timeline = $9, published = $10, updated_at = $11
WHERE id = $1
RETURNING `+packageColumns,
			pkg.ID, pkg.Slug, pkg.Title, pkg.Summary, pkg.DurationDays, pkg.PriceFrom, pkg.Image, highlights, timeline, pkg.Published, now)
	})
	if err != nil {
		discardUploads(ctx, s.images, s.logger, uploaded)
		if errors.Is(err, sql.ErrNoRows) {
			return models.TourPackage{}, ErrNotFound("Package not found")
		}
		return models.TourPackage{}, ErrStorage(err)
	}
	saved, err := row.toModel()
	if err != nil {
		return models.TourPackage{}, ErrStorage(err)
	}
	s.invalidate(ctx, "/", "/packages", "/packages/"+saved.Slug)
	return saved, nil
}

func (s *PackageService) Delete(ctx context.Context, id string) error {
	pkg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, pkg.ID); err != nil {
		return ErrStorage(err)
	}
	s.invalidate(ctx, "/", "/packages", "/packages/"+pkg.Slug)
	return nil
}

func (s *PackageService) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.GetContext(ctx, &count, `SELECT count(*) FROM packages`); err != nil {
		return 0, ErrStorage(err)
	}
	return count, nil
}

func (s *PackageService) invalidate(ctx context.Context, routes ...string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, routes...); err != nil {
		s.logger.Warn().Err(err).Strs("routes", routes).Msg("invalidation failed")
	}
}
