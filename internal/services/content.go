package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"toursite-backend-go/internal/models"

	"github.com/rs/zerolog"
)

type SettingsBackend interface {
	Get(ctx context.Context, key string) (models.SettingsDocument, error)
	Upsert(ctx context.Context, key string, value json.RawMessage) (models.SettingsDocument, error)
}

type InlineUploader interface {
	UploadInline(ctx context.Context, value, name, folder string) (UploadedImage, error)
	Delete(ctx context.Context, fileID string) error
}

type imageSlot struct {
	name  string
	value *string
}

// PageDefinition binds a document type to its settings key, validator,
// image slots and the public routes that render it.
type PageDefinition[T any] struct {
	Key      string
	Folder   string
	Routes   []string
	Validate func(T) error
	Slots    func(*T) []imageSlot
}

type PageService[T any] struct {
	def         PageDefinition[T]
	store       SettingsBackend
	images      InlineUploader
	invalidator Invalidator
	logger      zerolog.Logger
}

func NewPageService[T any](def PageDefinition[T], store SettingsBackend, images InlineUploader, invalidator Invalidator, logger zerolog.Logger) *PageService[T] {
	return &PageService[T]{def: def, store: store, images: images, invalidator: invalidator, logger: logger}
}

func (s *PageService[T]) Key() string {
	return s.def.Key
}

func (s *PageService[T]) Get(ctx context.Context) (T, error) {
	var page T
	doc, err := s.store.Get(ctx, s.def.Key)
	if err != nil {
		return page, err
	}
	if err := json.Unmarshal(doc.Value, &page); err != nil {
		return page, ErrStorage(WrapError(err, "decode "+s.def.Key))
	}
	return page, nil
}

// Upsert uploads inline images, validates, persists and invalidates. Images
// uploaded by this call are deleted again when a later step fails.
func (s *PageService[T]) Upsert(ctx context.Context, candidate T) (T, error) {
	var zero T
	// Work on a copy so image slots never write through the caller's slices.
	candidate, err := clonePage(candidate)
	if err != nil {
		return zero, ErrBadRequest("Invalid page document")
	}
	uploaded, err := s.resolveImages(ctx, &candidate)
	if err != nil {
		s.compensate(ctx, uploaded)
		return zero, err
	}
	if err := s.def.Validate(candidate); err != nil {
		s.compensate(ctx, uploaded)
		return zero, err
	}
	value, err := json.Marshal(candidate)
	if err != nil {
		s.compensate(ctx, uploaded)
		return zero, ErrStorage(err)
	}
	if _, err := s.store.Upsert(ctx, s.def.Key, value); err != nil {
		s.compensate(ctx, uploaded)
		return zero, err
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, s.def.Routes...); err != nil {
			s.logger.Warn().Err(err).Str("key", s.def.Key).Strs("routes", s.def.Routes).Msg("invalidation failed")
		}
	}
	return candidate, nil
}

func clonePage[T any](page T) (T, error) {
	var out T
	raw, err := json.Marshal(page)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func (s *PageService[T]) resolveImages(ctx context.Context, page *T) ([]UploadedImage, error) {
	if s.def.Slots == nil {
		return nil, nil
	}
	var uploaded []UploadedImage
	for _, slot := range s.def.Slots(page) {
		url, fresh, err := resolveInline(ctx, s.images, *slot.value, slot.name, s.def.Folder)
		if err != nil {
			return uploaded, err
		}
		uploaded = append(uploaded, fresh...)
		*slot.value = url
	}
	return uploaded, nil
}

func (s *PageService[T]) compensate(ctx context.Context, uploaded []UploadedImage) {
	discardUploads(ctx, s.images, s.logger.With().Str("key", s.def.Key).Logger(), uploaded)
}

// Load and Save let handlers work with any page kind through JSON.
func (s *PageService[T]) Load(ctx context.Context) (interface{}, error) {
	return s.Get(ctx)
}

func (s *PageService[T]) Save(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var candidate T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&candidate); err != nil {
		return nil, ErrBadRequest("Invalid page document: " + err.Error())
	}
	return s.Upsert(ctx, candidate)
}

type PageAccessor interface {
	Key() string
	Load(ctx context.Context) (interface{}, error)
	Save(ctx context.Context, raw json.RawMessage) (interface{}, error)
}

var AboutPageDefinition = PageDefinition[models.AboutPage]{
	Key:      models.AboutPageKey,
	Folder:   "about",
	Routes:   []string{"/about"},
	Validate: ValidateAboutPage,
	Slots: func(p *models.AboutPage) []imageSlot {
		slots := []imageSlot{
			{name: "about-hero", value: &p.HeroImage},
			{name: "about-story", value: &p.StoryImage},
		}
		for i := range p.Team {
			slots = append(slots, imageSlot{name: fmt.Sprintf("about-team-%d", i), value: &p.Team[i].Image})
		}
		return slots
	},
}

var ContactPageDefinition = PageDefinition[models.ContactPage]{
	Key:      models.ContactPageKey,
	Folder:   "contact",
	Routes:   []string{"/contact", "/admin/contact"},
	Validate: ValidateContactPage,
	Slots: func(p *models.ContactPage) []imageSlot {
		return []imageSlot{{name: "contact-hero", value: &p.HeroImage}}
	},
}

var HomePageDefinition = PageDefinition[models.HomePage]{
	Key:      models.HomePageKey,
	Folder:   "home",
	Routes:   []string{"/"},
	Validate: ValidateHomePage,
	Slots: func(p *models.HomePage) []imageSlot {
		slots := make([]imageSlot, 0, len(p.HeroSlides))
		for i := range p.HeroSlides {
			slots = append(slots, imageSlot{name: fmt.Sprintf("home-hero-%d", i), value: &p.HeroSlides[i].Image})
		}
		return slots
	},
}

// ContentService groups the page façades.
type ContentService struct {
	About   *PageService[models.AboutPage]
	Contact *PageService[models.ContactPage]
	Home    *PageService[models.HomePage]
}

func NewContentService(store SettingsBackend, images InlineUploader, invalidator Invalidator, logger zerolog.Logger) *ContentService {
	logger = logger.With().Str("component", "content").Logger()
	return &ContentService{
		About:   NewPageService(AboutPageDefinition, store, images, invalidator, logger),
		Contact: NewPageService(ContactPageDefinition, store, images, invalidator, logger),
		Home:    NewPageService(HomePageDefinition, store, images, invalidator, logger),
	}
}

// Page resolves a page kind as used in URLs: about, contact or home.
func (c *ContentService) Page(kind string) (PageAccessor, bool) {
	switch kind {
	case "about":
		return c.About, true
	case "contact":
		return c.Contact, true
	case "home":
		return c.Home, true
	}
	return nil, false
}
