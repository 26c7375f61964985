package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/pkg/response"
	"github.com/strategiz/core/internal/pkg/token"
)

const (
	ContextKeyUserID   = "user_id"
	ContextKeySID      = "session_id"
	ContextKeyACR      = "acr"
	ContextKeyDemoMode = "demo_mode"
)

// TokenValidator is the slice of the session engine the middleware
// depends on. Keeping it an interface here lets module handlers import
// this package without a cycle back into the session module.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tok string, want token.Kind) (*models.SessionModel, error)
}

// Auth returns a middleware that requires a live access token. Every
// failure produces the same generic response regardless of cause.
func Auth(engine TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := engine.ValidateToken(c.Request.Context(), ExtractToken(c), token.KindAccess)
		if err != nil {
			response.AuthFailed(c)
			return
		}
		c.Set(ContextKeyUserID, rec.UserID)
		c.Set(ContextKeySID, rec.SessionID)
		c.Set(ContextKeyACR, rec.Claims.ACR)
		c.Set(ContextKeyDemoMode, rec.Claims.DemoMode)
		c.Next()
	}
}

// OptionalAuth sets identity context if a valid token is present, but
// never blocks the request.
func OptionalAuth(engine TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := ExtractToken(c); tok != "" {
			if rec, err := engine.ValidateToken(c.Request.Context(), tok, token.KindAccess); err == nil {
				c.Set(ContextKeyUserID, rec.UserID)
				c.Set(ContextKeySID, rec.SessionID)
				c.Set(ContextKeyACR, rec.Claims.ACR)
				c.Set(ContextKeyDemoMode, rec.Claims.DemoMode)
			}
		}
		c.Next()
	}
}

// RequireACR gates a route on a minimum authentication context class.
func RequireACR(min string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentACR(c) < min {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// CurrentACR extracts the authentication context class from context.
func CurrentACR(c *gin.Context) string {
	v, _ := c.Get(ContextKeyACR)
	acr, _ := v.(string)
	return acr
}

// IsDemoMode reports whether the session was minted for a demo account.
func IsDemoMode(c *gin.Context) bool {
	v, _ := c.Get(ContextKeyDemoMode)
	demo, _ := v.(bool)
	return demo
}

// IsAuthenticated returns true if the request has a valid auth token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// ExtractToken pulls the bearer token from the Authorization header.
func ExtractToken(c *gin.Context) string {
	return NormalizeToken(c.GetHeader("Authorization"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	tok := strings.TrimSpace(raw)
	if tok == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(tok), "bearer ") {
		return strings.TrimSpace(tok[7:])
	}
	return tok
}
