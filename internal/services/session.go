package services

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "admin_session"
	sessionTokenType  = "admin_session"
	sessionIssuer     = "toursite-admin"
)

var errInvalidSession = errors.New("invalid session")

// SessionConfig configures the single shared admin login. PasswordHash
// (argon2id or bcrypt) wins over Password when both are set.
type SessionConfig struct {
	Password     string
	PasswordHash string
	Secret       []byte
	TTL          time.Duration
	Secure       bool
}

type SessionClaims struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionGuard issues and checks signed admin session tokens. It holds no
// server-side state; a token is valid until it expires.
type SessionGuard struct {
	cfg SessionConfig
	now func() time.Time
}

func NewSessionGuard(cfg SessionConfig) *SessionGuard {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &SessionGuard{cfg: cfg, now: time.Now}
}

// Login checks password and returns a fresh session token.
func (g *SessionGuard) Login(password string) (string, SessionClaims, error) {
	if !g.CheckPassword(password) {
		return "", SessionClaims{}, ErrUnauthorized("Invalid password")
	}
	return g.Issue()
}

func (g *SessionGuard) CheckPassword(password string) bool {
	if password == "" {
		return false
	}
	if g.cfg.PasswordHash != "" {
		return VerifyPassword(password, g.cfg.PasswordHash)
	}
	if g.cfg.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.cfg.Password)) == 1
}

func (g *SessionGuard) Issue() (string, SessionClaims, error) {
	now := g.now().UTC()
	claims := SessionClaims{
		ID:        uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(g.cfg.TTL),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": sessionIssuer,
		"typ": sessionTokenType,
		"jti": claims.ID,
		"iat": now.Unix(),
		"exp": claims.ExpiresAt.Unix(),
	})
	signed, err := token.SignedString(g.cfg.Secret)
	if err != nil {
		return "", SessionClaims{}, err
	}
	return signed, claims, nil
}

// Validate accepts only unexpired HS256 tokens carrying the session type.
func (g *SessionGuard) Validate(tokenStr string) (SessionClaims, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return SessionClaims{}, errInvalidSession
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return g.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return SessionClaims{}, errInvalidSession
	}
	if typ, _ := claims["typ"].(string); typ != sessionTokenType {
		return SessionClaims{}, errInvalidSession
	}
	out := SessionClaims{}
	out.ID, _ = claims["jti"].(string)
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// FromRequest validates the session cookie on r, if any.
func (g *SessionGuard) FromRequest(r *http.Request) (SessionClaims, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return SessionClaims{}, false
	}
	claims, err := g.Validate(cookie.Value)
	if err != nil {
		return SessionClaims{}, false
	}
	return claims, true
}

func (g *SessionGuard) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (g *SessionGuard) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
