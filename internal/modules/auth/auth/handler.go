package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/modules/auth/session"
	"github.com/strategiz/core/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *Service
	logger *zap.Logger
}

func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/login", h.login)
	a.POST("/register", h.register)
	a.POST("/refresh", h.refresh)
	a.POST("/logout", authMW, h.logout)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), dto.Email, dto.Password, c.ClientIP())
	if err != nil {
		if errors.Is(err, errUserNotFound) || errors.Is(err, errWrongPassword) {
			h.logger.Info("login rejected",
				zap.String("ip", c.ClientIP()),
				zap.Error(err))
			response.AuthFailed(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, pair)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	u, err := h.svc.Register(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"id": u.ID, "email": u.Email})
}

func (h *Handler) refresh(c *gin.Context) {
	var dto RefreshDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), dto.RefreshToken)
	if err != nil {
		if isAuthFailure(err) {
			h.logger.Info("refresh rejected",
				zap.String("ip", c.ClientIP()),
				zap.Error(err))
			response.AuthFailed(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, pair)
}

func (h *Handler) logout(c *gin.Context) {
	tok := middleware.ExtractToken(c)
	if err := h.svc.Logout(c.Request.Context(), tok); err != nil {
		if isAuthFailure(err) {
			// The token is already dead; logout's goal is met.
			response.NoContent(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func isAuthFailure(err error) bool {
	return errors.Is(err, session.ErrTokenMalformed) ||
		errors.Is(err, session.ErrTokenIntegrity) ||
		errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrSessionRevoked) ||
		errors.Is(err, session.ErrWrongTokenKind)
}
