package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.DashboardStats.Summary(r.Context())
	if err != nil {
		writeServiceError(w, s.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// AdminSocket streams hub events to a signed-in console.
func (s *Server) AdminSocket(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.Sessions.FromRequest(r); !ok {
		WriteError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Hub.Add(conn)
	defer func() {
		s.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// checkOrigin allows same-host origins and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.Config.CorsOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func (s *Server) publish(eventType string, payload interface{}) {
	if s.Hub != nil {
		s.Hub.Publish(eventType, payload)
	}
}
