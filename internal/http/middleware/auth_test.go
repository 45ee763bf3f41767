// README: Bearer auth middleware tests.
package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"kolekta/internal/backend"
	"kolekta/internal/http/middleware"
	"kolekta/internal/modules/session"
)

// stubVerifier is a test double for middleware.TokenVerifier.
type stubVerifier struct {
	user session.User
	err  error
}

func (s *stubVerifier) Verify(_ context.Context, _ string) (session.User, error) {
	return s.user, s.err
}

func newTestRouter(verifier middleware.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(verifier))
	r.GET("/test", func(c *gin.Context) {
		user := middleware.Caller(c)
		tok, _ := backend.ContextToken(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "role": user.Role, "token": tok})
	})
	return r
}

func TestAuthMissingHeader(t *testing.T) {
	r := newTestRouter(&stubVerifier{user: session.User{ID: "u1"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthInvalidBearerPrefix(t *testing.T) {
	r := newTestRouter(&stubVerifier{user: session.User{ID: "u1"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Token sometoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthVerifierError(t *testing.T) {
	r := newTestRouter(&stubVerifier{err: errors.New("no session")})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer expiredtoken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthValidTokenPopulatesCallerAndContext(t *testing.T) {
	r := newTestRouter(&stubVerifier{user: session.User{ID: "driver1", Role: "driver"}})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "driver1") {
		t.Errorf("expected user id in body, got %s", body)
	}
	// the raw bearer token must be forwarded for outgoing backend calls
	if !strings.Contains(body, "tok-123") {
		t.Errorf("expected request-scoped token in body, got %s", body)
	}
}
