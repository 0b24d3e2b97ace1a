package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_IssueAndParse(t *testing.T) {
	s := NewSessions("test-secret", false)
	token, err := s.Issue(42)
	require.NoError(t, err)

	uid, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), uid)

	other := NewSessions("other-secret", false)
	_, err = other.Parse(token)
	assert.Error(t, err, "token signed with another secret must be rejected")
}

func TestSessions_Expired(t *testing.T) {
	s := NewSessions("test-secret", false)
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issuedAt }
	token, err := s.Issue(7)
	require.NoError(t, err)

	s.now = func() time.Time { return issuedAt.Add(DefaultTTL + time.Minute) }
	_, err = s.Parse(token)
	assert.Error(t, err)
}

func TestSessions_CookieRoundTrip(t *testing.T) {
	s := NewSessions("test-secret", true)
	rr := httptest.NewRecorder()
	_, err := s.CreateSession(rr, 9)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	uid, ok := s.ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(9), uid)
}

func TestSessions_BearerHeader(t *testing.T) {
	s := NewSessions("test-secret", false)
	token, err := s.Issue(3)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	uid, ok := s.ParseSession(req)
	require.True(t, ok)
	assert.Equal(t, uint(3), uid)
}

func TestRequireAuth(t *testing.T) {
	s := NewSessions("test-secret", false)
	s.SetUserVerifier(func(_ context.Context, uid uint) bool { return uid == 1 })
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := s.Middleware(s.RequireAuth(ok))

	tests := []struct {
		name   string
		userID uint
		want   int
	}{
		{"anonymous", 0, http.StatusUnauthorized},
		{"known user", 1, http.StatusNoContent},
		{"deleted user", 2, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/quotes", nil)
			if tt.userID != 0 {
				token, err := s.Issue(tt.userID)
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestSharedSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"matching", "cron-secret", "Bearer cron-secret", http.StatusOK},
		{"wrong", "cron-secret", "Bearer nope", http.StatusUnauthorized},
		{"missing", "cron-secret", "", http.StatusUnauthorized},
		{"disabled", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/reminders/process", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			SharedSecret(tt.secret)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}
