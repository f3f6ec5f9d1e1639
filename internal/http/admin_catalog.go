package httpapi

import (
	"net/http"
	"strings"

	"toursite-backend-go/internal/models"
	"toursite-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// Blog

func (s *Server) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	result, err := s.Blog.List(r.Context(), page, size, false, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) AdminGetPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.Blog.Get(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminCreatePost(w http.ResponseWriter, r *http.Request) {
	var req services.BlogInput
	if !decodeJSON(w, r, maxContentBody, &req) {
		return
	}
	post, err := s.Blog.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("blog.saved", post)
	WriteJSON(w, http.StatusCreated, post)
}

func (s *Server) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req services.BlogInput
	if !decodeJSON(w, r, maxContentBody, &req) {
		return
	}
	post, err := s.Blog.Update(r.Context(), chi.URLParam(r, "postId"), req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("blog.saved", post)
	WriteJSON(w, http.StatusOK, post)
}

func (s *Server) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.Blog.Delete(r.Context(), chi.URLParam(r, "postId")); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Packages

func (s *Server) AdminListPackages(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	result, err := s.Packages.List(r.Context(), page, size, false)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) AdminGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := s.Packages.Get(r.Context(), chi.URLParam(r, "packageId"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, pkg)
}

func (s *Server) AdminCreatePackage(w http.ResponseWriter, r *http.Request) {
	var req services.PackageInput
	if !decodeJSON(w, r, maxContentBody, &req) {
		return
	}
	pkg, err := s.Packages.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("package.saved", pkg)
	WriteJSON(w, http.StatusCreated, pkg)
}

func (s *Server) AdminUpdatePackage(w http.ResponseWriter, r *http.Request) {
	var req services.PackageInput
	if !decodeJSON(w, r, maxContentBody, &req) {
		return
	}
	pkg, err := s.Packages.Update(r.Context(), chi.URLParam(r, "packageId"), req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("package.saved", pkg)
	WriteJSON(w, http.StatusOK, pkg)
}

func (s *Server) AdminDeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := s.Packages.Delete(r.Context(), chi.URLParam(r, "packageId")); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Gallery

func (s *Server) AdminListGallery(w http.ResponseWriter, r *http.Request) {
	s.PublicGallery(w, r)
}

// AdminCreateGalleryItem accepts a multipart upload or a JSON body with an
// inline or hosted image.
func (s *Server) AdminCreateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var (
		item models.GalleryItem
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		data, filename, ok := readUpload(w, r)
		if !ok {
			return
		}
		item, err = s.Gallery.Upload(r.Context(), data, filename, services.GalleryInput{
			Title:    r.FormValue("title"),
			Category: r.FormValue("category"),
		})
	} else {
		var req services.GalleryInput
		if !decodeJSON(w, r, maxContentBody, &req) {
			return
		}
		item, err = s.Gallery.Create(r.Context(), req)
	}
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.publish("gallery.saved", item)
	WriteJSON(w, http.StatusCreated, item)
}

func (s *Server) AdminUpdateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var req services.GalleryInput
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	item, err := s.Gallery.Update(r.Context(), chi.URLParam(r, "itemId"), req)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

func (s *Server) AdminDeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	if err := s.Gallery.Delete(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Newsletter

func (s *Server) AdminListSubscribers(w http.ResponseWriter, r *http.Request) {
	page, size := paging(r)
	q := r.URL.Query()
	result, err := s.Newsletter.List(r.Context(), page, size, models.SubscriberStatus(q.Get("status")), q.Get("q"))
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) AdminDeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	if err := s.Newsletter.Delete(r.Context(), chi.URLParam(r, "subscriberId")); err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
