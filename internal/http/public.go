package httpapi

import (
	"net/http"
	"strings"

	"toursite-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) PublicPage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.Content.Page(chi.URLParam(r, "kind"))
	if !ok {
		WriteError(w, http.StatusNotFound, "Page not found")
		return
	}
	doc, err := page.Load(r.Context())
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, doc)
}

// PublicPackages lists published packages, or with ?slugs=a,b returns those
// packages in the given order.
func (s *Server) PublicPackages(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("slugs"); raw != "" {
		slugs := []string{}
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				slugs = append(slugs, slug)
			}
		}
		items, err := s.Packages.BySlugs(r.Context(), slugs)
		if err != nil {
			writeServiceError(w, s.Logger, err)
			return
		}
		WriteJSON(w, http.StatusOK, items)
		return
	}
	page, size := paging(r)
	result, err := s.Packages.List(r.Context(), page, size, true)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) PublicPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.Packages.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, pkg)
}

func (s *Server) PublicBlog(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	result, err := s.Blog.List(r.Context(), page, size, true, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) PublicFeaturedPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Blog.Featured(r.Context())
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) PublicPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Blog.GetBySlug(r.Context(), chi.URLParam(r, "slug"), true)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) PublicGallery(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	result, err := s.Gallery.List(r.Context(), page, size, r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

type CategoriesResponse struct {
	Defaults []string `json:"defaults"`
	Custom   []string `json:"custom"`
}

func (s *Server) PublicGalleryCategories(w http.ResponseWriter, r *http.Request) {
	custom, err := s.Gallery.Categories(r.Context())
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, CategoriesResponse{Defaults: services.DefaultGalleryCategories, Custom: custom})
}

func (s *Server) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	travelDate, err := services.ValidateBooking(req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	inquiry, err := s.Bookings.Create(r.Context(), req, travelDate)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("booking.created", inquiry)
	WriteJSON(w, http.StatusCreated, inquiry)
}

type NewsletterRequest struct {
	Email string `json:"email"`
}

func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req NewsletterRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if err := services.ValidateNewsletterEmail(req.Email); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	subscriber, err := s.Newsletter.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("newsletter.subscribed", subscriber)
	WriteJSON(w, http.StatusCreated, subscriber)
}

func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req NewsletterRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if err := s.Newsletter.Unsubscribe(r.Context(), req.Email); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
