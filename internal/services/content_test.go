package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"toursite-backend-go/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySettings behaves like site_settings: one row per key, whole value replaced.
type memorySettings struct {
	mu      sync.Mutex
	rows    map[string]json.RawMessage
	writes  int
	failErr error
}

func newMemorySettings() *memorySettings {
	return &memorySettings{rows: map[string]json.RawMessage{}}
}

func (m *memorySettings) Get(_ context.Context, key string) (models.SettingsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.rows[key]
	if !ok {
		return models.SettingsDocument{}, ErrNotFound("Settings not found")
	}
	return models.SettingsDocument{Key: key, Value: value, UpdatedAt: time.Now()}, nil
}

func (m *memorySettings) Upsert(_ context.Context, key string, value json.RawMessage) (models.SettingsDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return models.SettingsDocument{}, ErrStorage(m.failErr)
	}
	m.writes++
	m.rows[key] = append(json.RawMessage(nil), value...)
	return models.SettingsDocument{Key: key, Value: value, UpdatedAt: time.Now()}, nil
}

func newContent(store SettingsBackend, images *memoryImageStore, inv Invalidator) *ContentService {
	uploader := Uploader{Store: images, Processor: ImageProcessor{MaxWidth: 100}}
	return NewContentService(store, uploader, inv, zerolog.Nop())
}

func TestAboutPageRoundTrip(t *testing.T) {
	store := newMemorySettings()
	inv := &recordingInvalidator{}
	content := newContent(store, &memoryImageStore{}, inv)
	ctx := context.Background()

	_, err := content.About.Get(ctx)
	assert.True(t, IsKind(err, KindNotFound))

	candidate := validAbout()
	saved, err := content.About.Upsert(ctx, candidate)
	require.NoError(t, err)
	assert.Equal(t, candidate, saved)

	got, err := content.About.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, candidate, got)
	assert.Equal(t, [][]string{{"/about"}}, inv.routes)
}

func TestCorruptDocumentIsStorageError(t *testing.T) {
	store := newMemorySettings()
	store.rows[models.AboutPageKey] = json.RawMessage(`{"heroTitle": 42}`)
	content := newContent(store, &memoryImageStore{}, &recordingInvalidator{})

	_, err := content.About.Get(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStorage))
	assert.Contains(t, err.Error(), "decode "+models.AboutPageKey)
	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestUpsertSameKeyKeepsOneDocument(t *testing.T) {
	store := newMemorySettings()
	content := newContent(store, &memoryImageStore{}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		page := validAbout()
		page.HeroTitle = "About " + string(rune('A'+i))
		_, err := content.About.Upsert(ctx, page)
		require.NoError(t, err)
	}
	assert.Len(t, store.rows, 1)
	assert.Equal(t, 5, store.writes)
	got, err := content.About.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "About E", got.HeroTitle)
}

func TestInvalidCandidateLeavesPreviousValue(t *testing.T) {
	store := newMemorySettings()
	content := newContent(store, &memoryImageStore{}, nil)
	ctx := context.Background()

	_, err := content.About.Upsert(ctx, validAbout())
	require.NoError(t, err)

	bad := validAbout()
	bad.HeroTitle = ""
	_, err = content.About.Upsert(ctx, bad)
	assert.True(t, IsKind(err, KindValidation))

	got, err := content.About.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, validAbout(), got)

	_, err = content.Home.Upsert(ctx, models.HomePage{})
	assert.True(t, IsKind(err, KindValidation))
	_, err = content.Home.Get(ctx)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestInlineImagesAreUploadedPerSlot(t *testing.T) {
	store := newMemorySettings()
	images := &memoryImageStore{}
	content := newContent(store, images, nil)
	ctx := context.Background()

	page := validAbout()
	page.HeroImage = dataURI(pngBytes(t, 4, 4))
	page.Team = []models.TeamMember{
		{Name: "Pemba", Role: "Guide", Image: "https://cdn.example.com/pemba.jpg"},
		{Name: "Maya", Role: "Ops", Image: dataURI(pngBytes(t, 4, 4))},
	}

	saved, err := content.About.Upsert(ctx, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"about/about-hero.png", "about/about-team-1.png"}, images.uploads)
	assert.Equal(t, "https://cdn.example.com/about/about-hero.png", saved.HeroImage)
	assert.Equal(t, "https://cdn.example.com/pemba.jpg", saved.Team[0].Image)

	// Hosted URLs pass through, so resubmitting uploads nothing.
	_, err = content.About.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Len(t, images.uploads, 2)
}

func TestPersistFailureDeletesFreshUploads(t *testing.T) {
	store := newMemorySettings()
	store.failErr = errors.New("db offline")
	images := &memoryImageStore{}
	inv := &recordingInvalidator{}
	content := newContent(store, images, inv)

	slides := models.HomePage{HeroSlides: []models.HeroSlide{
		{Title: "One", Image: dataURI(pngBytes(t, 4, 4))},
		{Title: "Two", Image: dataURI(pngBytes(t, 4, 4))},
	}}
	_, err := content.Home.Upsert(context.Background(), slides)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindStorage))
	assert.ElementsMatch(t, []string{"file-home-hero-0.png", "file-home-hero-1.png"}, images.deleted)
	assert.Empty(t, inv.routes)
}

func TestUploadFailureDeletesEarlierSlots(t *testing.T) {
	images := &memoryImageStore{failNames: map[string]bool{"home-hero-1.png": true}}
	content := newContent(newMemorySettings(), images, nil)

	slides := models.HomePage{HeroSlides: []models.HeroSlide{
		{Title: "One", Image: dataURI(pngBytes(t, 4, 4))},
		{Title: "Two", Image: dataURI(pngBytes(t, 4, 4))},
	}}
	_, err := content.Home.Upsert(context.Background(), slides)
	assert.True(t, IsKind(err, KindUpload))
	assert.Equal(t, []string{"file-home-hero-0.png"}, images.deleted)
}

func TestContactInvalidatesPublicAndAdminRoutes(t *testing.T) {
	inv := &recordingInvalidator{}
	content := newContent(newMemorySettings(), &memoryImageStore{}, inv)

	_, err := content.Contact.Upsert(context.Background(), validContact())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"/contact", "/admin/contact"}}, inv.routes)
}

func TestInvalidationFailureDoesNotFailWrite(t *testing.T) {
	inv := &recordingInvalidator{err: errors.New("redis down")}
	content := newContent(newMemorySettings(), &memoryImageStore{}, inv)

	_, err := content.Contact.Upsert(context.Background(), validContact())
	require.NoError(t, err)
}

func TestConcurrentUpsertsLastWriteWins(t *testing.T) {
	store := newMemorySettings()
	content := newContent(store, &memoryImageStore{}, nil)

	a := validContact()
	a.Address = "Thamel"
	a.Emails = []string{"a@example.com", "a2@example.com"}
	b := validContact()
	b.Address = "Lakeside, Pokhara"
	b.Emails = []string{"b@example.com"}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); _, _ = content.Contact.Upsert(context.Background(), a) }()
		go func() { defer wg.Done(); _, _ = content.Contact.Upsert(context.Background(), b) }()
	}
	wg.Wait()

	got, err := content.Contact.Get(context.Background())
	require.NoError(t, err)
	if got.Address == a.Address {
		assert.Equal(t, a, got)
	} else {
		assert.Equal(t, b, got)
	}
}

func TestPageAccessorSave(t *testing.T) {
	content := newContent(newMemorySettings(), &memoryImageStore{}, nil)

	page, ok := content.Page("contact")
	require.True(t, ok)
	assert.Equal(t, models.ContactPageKey, page.Key())

	raw, err := json.Marshal(validContact())
	require.NoError(t, err)
	saved, err := page.Save(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, validContact(), saved)

	_, err = page.Save(context.Background(), json.RawMessage(`{"heroTitle":1}`))
	assert.True(t, IsKind(err, KindBadRequest))
	_, err = page.Save(context.Background(), json.RawMessage(`{"unknownField":"x"}`))
	assert.True(t, IsKind(err, KindBadRequest))

	_, ok = content.Page("pricing")
	assert.False(t, ok)
}
