package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"toursite-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

// SettingsStore keeps one JSON document per key in site_settings.
type SettingsStore struct {
	DB *sqlx.DB
}

func NewSettingsStore(db *sqlx.DB) *SettingsStore {
	return &SettingsStore{DB: db}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (models.SettingsDocument, error) {
	var doc models.SettingsDocument
	err := s.DB.GetContext(ctx, &doc, `SELECT key, value, updated_at FROM site_settings WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SettingsDocument{}, ErrNotFound("Settings not found")
	}
	if err != nil {
		return models.SettingsDocument{}, ErrStorage(err)
	}
	return doc, nil
}

// Upsert replaces the whole document under key in a single statement.
func (s *SettingsStore) Upsert(ctx context.Context, key string, value json.RawMessage) (models.SettingsDocument, error) {
	var doc models.SettingsDocument
	err := s.DB.GetContext(ctx, &doc, `
INSERT INTO site_settings (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
RETURNING key, value, updated_at
`, key, []byte(value))
	if err != nil {
		return models.SettingsDocument{}, ErrStorage(err)
	}
	return doc, nil
}

func (s *SettingsStore) List(ctx context.Context) ([]models.SettingsDocument, error) {
	docs := []models.SettingsDocument{}
	if err := s.DB.SelectContext(ctx, &docs, `SELECT key, value, updated_at FROM site_settings ORDER BY key`); err != nil {
		return nil, ErrStorage(err)
	}
	return docs, nil
}
