package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/pkg/token"
)

type stubValidator struct {
	rec *models.SessionModel
	err error
}

func (s *stubValidator) ValidateToken(_ context.Context, _ string, _ token.Kind) (*models.SessionModel, error) {
	return s.rec, s.err
}

func TestAuthSetsIdentityContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubValidator{rec: &models.SessionModel{
		SessionID: "acc_1",
		UserID:    "user-1",
		Claims:    models.SessionClaims{ACR: "2", DemoMode: true},
	}}

	r := gin.New()
	var userID, sessionID, acr string
	var demo bool
	r.GET("/me", Auth(v), func(c *gin.Context) {
		userID = CurrentUserID(c)
		sessionID = CurrentSessionID(c)
		acr = CurrentACR(c)
		demo = IsDemoMode(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer v1.local.whatever")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if userID != "user-1" || sessionID != "acc_1" || acr != "2" || !demo {
		t.Fatalf("context = %q %q %q %v", userID, sessionID, acr, demo)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := &stubValidator{err: errors.New("revoked")}

	r := gin.New()
	reached := false
	r.GET("/me", Auth(v), func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if reached {
		t.Fatal("handler ran on invalid token")
	}
}

func TestNormalizeToken(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"", ""},
		{"  ", ""},
		{"v1.local.abc", "v1.local.abc"},
		{"Bearer v1.local.abc", "v1.local.abc"},
		{"bearer  v1.local.abc ", "v1.local.abc"},
	}
	for _, tc := range cases {
		if got := NormalizeToken(tc.raw); got != tc.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
