package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/pkg/response"
	"github.com/strategiz/core/internal/pkg/token"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler { return &Handler{engine: engine} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/sessions", authMW)
	g.GET("", h.list)
	g.DELETE("/:id", h.revoke)
	g.POST("/revoke-others", h.revokeOthers)
}

func (h *Handler) list(c *gin.Context) {
	var kind token.Kind
	switch c.Query("kind") {
	case "":
	case "access":
		kind = token.KindAccess
	case "refresh":
		kind = token.KindRefresh
	default:
		response.BadRequest(c, "kind must be access or refresh")
		return
	}

	infos, err := h.engine.ListSessions(c.Request.Context(), middleware.CurrentUserID(c), kind)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, infos)
}

func (h *Handler) revoke(c *gin.Context) {
	id := c.Param("id")
	userID := middleware.CurrentUserID(c)

	// Only the owner may revoke a session.
	rec, err := h.engine.store.Get(c.Request.Context(), id)
	if err != nil || rec.UserID != userID {
		response.NotFound(c)
		return
	}

	if err := h.engine.RevokeSession(c.Request.Context(), id, "user_requested"); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) revokeOthers(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	keep := middleware.CurrentSessionID(c)
	n, err := h.engine.RevokeAllForUser(c.Request.Context(), userID, keep, "user_requested")
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"revoked": n})
}
