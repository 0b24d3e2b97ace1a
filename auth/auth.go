// Package auth issues and verifies artisan sessions. A session is an HS256
// JWT carried in an HttpOnly cookie or an Authorization: Bearer header.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/facilidevis/facilidevis/httpx"
)

type ctxKey string

const (
	sessionCookieName = "session"
	userIDCtxKey      = ctxKey("userID")

	// DefaultTTL is the lifetime of a session token.
	DefaultTTL = 14 * 24 * time.Hour
)

var errInvalidToken = errors.New("invalid session token")

// UserVerifier is an optional callback to validate that a session's user still exists/is allowed.
// If nil, no extra verification is performed.
type UserVerifier func(ctx context.Context, uid uint) bool

// Sessions signs and parses session tokens.
type Sessions struct {
	secret   []byte
	ttl      time.Duration
	secure   bool
	verifier UserVerifier
	now      func() time.Time
}

// NewSessions builds a session manager. secure marks cookies Secure and
// should be true behind HTTPS.
func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: DefaultTTL, secure: secure, now: time.Now}
}

// SetUserVerifier configures the verifier used by RequireAuth.
func (s *Sessions) SetUserVerifier(v UserVerifier) { s.verifier = v }

// Issue returns a signed token for the user.
func (s *Sessions) Issue(userID uint) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})
	return token.SignedString(s.secret)
}

// Parse validates a token and returns the user id.
func (s *Sessions) Parse(tokenString string) (uint, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errInvalidToken
	}
	id64, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id64 == 0 {
		return 0, errInvalidToken
	}
	return uint(id64), nil
}

// CreateSession sets the session cookie and returns the token so API
// clients can use it as a bearer token.
func (s *Sessions) CreateSession(w http.ResponseWriter, userID uint) (string, error) {
	token, err := s.Issue(userID)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  s.now().Add(s.ttl),
	})
	return token, nil
}

// ClearSession deletes the session cookie.
func (s *Sessions) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode})
}

// ParseSession reads the bearer token, falling back to the cookie.
func (s *Sessions) ParseSession(r *http.Request) (uint, bool) {
	raw := bearerToken(r)
	if raw == "" {
		c, err := r.Cookie(sessionCookieName)
		if err != nil || c.Value == "" {
			return 0, false
		}
		raw = c.Value
	}
	uid, err := s.Parse(raw)
	if err != nil {
		return 0, false
	}
	return uid, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// Middleware attaches user id to request context if present.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := s.ParseSession(r); ok {
			r = r.WithContext(WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth returns 401 JSON when no valid session is attached.
func (s *Sessions) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if s.verifier != nil && !s.verifier(r.Context(), uid) {
			// Session refers to a deleted user: clear and treat as unauthorized.
			s.ClearSession(w)
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SharedSecret guards machine-to-machine endpoints with
// "Authorization: Bearer <secret>". An empty secret disables the check.
func SharedSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret != "" {
				got := bearerToken(r)
				if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
					httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
