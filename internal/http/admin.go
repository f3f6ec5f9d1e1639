package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"toursite-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) AdminGetPage(w http.ResponseWriter, r *http.Request) {
	s.PublicPage(w, r)
}

func (s *Server) AdminSavePage(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	page, ok := s.Content.Page(kind)
	if !ok {
		WriteError(w, http.StatusNotFound, "Page not found")
		return
	}
	raw, ok := readBody(w, r, maxContentBody)
	if !ok {
		return
	}
	if !json.Valid(raw) {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	saved, err := page.Save(r.Context(), raw)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	s.Logger.Info().Str("key", page.Key()).Msg("page content saved")
	s.publish("content.updated", map[string]string{"page": kind, "key": page.Key()})
	WriteJSON(w, http.StatusOK, saved)
}

func (s *Server) AdminSettings(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Settings.List(r.Context())
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, docs)
}

var uploadFolders = map[string]bool{
	"about":    true,
	"contact":  true,
	"home":     true,
	"blog":     true,
	"packages": true,
	"gallery":  true,
	"misc":     true,
}

const maxUploadBytes = 20 << 20

// AdminUpload takes a multipart "file" and returns the hosted URL so the
// console can reference it directly instead of inlining the image.
func (s *Server) AdminUpload(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := readUpload(w, r)
	if !ok {
		return
	}
	folder := strings.ToLower(strings.TrimSpace(r.FormValue("folder")))
	if folder == "" {
		folder = "misc"
	}
	if !uploadFolders[folder] {
		WriteError(w, http.StatusBadRequest, "Unknown upload folder")
		return
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	uploaded, err := s.Images.Upload(r.Context(), data, services.Slugify(name), folder)
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, uploaded)
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty or too large")
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File is empty or too large")
		return nil, "", false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		WriteError(w, http.StatusBadRequest, "File is empty or too large")
		return nil, "", false
	}
	return data, header.Filename, true
}
