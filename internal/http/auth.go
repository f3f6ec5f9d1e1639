package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"toursite-backend-go/internal/services"
)

type contextKey string

const ctxSession contextKey = "session"

// RequireSession guards JSON APIs: no valid cookie means 401.
func RequireSession(guard *services.SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := guard.FromRequest(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxSession, claims)))
		})
	}
}

// RedirectToLogin guards the admin console pages. Signed-out visitors are
// sent to the login page with their target path; signed-in visitors never
// see the login page.
func RedirectToLogin(guard *services.SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := guard.FromRequest(r)
			if isLoginPath(r.URL.Path) {
				if ok {
					http.Redirect(w, r, "/admin", http.StatusFound)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if !ok && !isPublicAsset(r.URL.Path) {
				target := "/admin/login?redirect=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoginPath(path string) bool {
	path = strings.TrimSuffix(path, "/")
	return path == "/admin/login" || path == "/admin/login.html"
}

// The login page needs its stylesheet and scripts before a session exists.
func isPublicAsset(path string) bool {
	return strings.HasPrefix(path, "/admin/assets/")
}

// safeRedirect keeps post-login redirects inside the admin console.
func safeRedirect(raw string) string {
	if !strings.HasPrefix(raw, "/admin") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/admin"
	}
	if isLoginPath(strings.SplitN(raw, "?", 2)[0]) {
		return "/admin"
	}
	return raw
}

type LoginRequest struct {
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	Redirect      string     `json:"redirect,omitempty"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	token, claims, err := s.Sessions.Login(req.Password)
	if err != nil {
		s.Logger.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
		writeServiceError(w, s.Logger, err)
		return
	}
	http.SetCookie(w, s.Sessions.Cookie(token))
	WriteJSON(w, http.StatusOK, SessionResponse{
		Authenticated: true,
		ExpiresAt:     &claims.ExpiresAt,
		Redirect:      safeRedirect(req.Redirect),
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, s.Sessions.ClearCookie())
	WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
}

func (s *Server) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := s.Sessions.FromRequest(r)
	if !ok {
		WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: false})
		return
	}
	WriteJSON(w, http.StatusOK, SessionResponse{Authenticated: true, ExpiresAt: &claims.ExpiresAt})
}
