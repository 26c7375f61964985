package passkey

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/middleware"
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
	g := rg.Group("/passkeys")

	// Registration requires an existing authenticated session.
	g.POST("/register/begin", authMW, h.beginRegistration)
	g.POST("/register/finish", authMW, h.finishRegistration)

	// Authentication is the login path itself.
	g.POST("/authenticate/begin", h.beginAuthentication)
	g.POST("/authenticate/finish", h.finishAuthentication)

	g.GET("", authMW, h.list)
	g.PATCH("/:id", authMW, h.rename)
	g.DELETE("/:id", authMW, h.remove)
}

func (h *Handler) beginRegistration(c *gin.Context) {
	opts, err := h.svc.BeginRegistration(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, opts)
}

func (h *Handler) finishRegistration(c *gin.Context) {
	var req RegistrationFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cred, err := h.svc.CompleteRegistration(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		h.rejectCeremony(c, "registration", err)
		return
	}
	response.Created(c, gin.H{"id": cred.ID})
}

func (h *Handler) beginAuthentication(c *gin.Context) {
	var dto beginAuthenticationDTO
	if err := c.ShouldBindJSON(&dto); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}
	opts, err := h.svc.BeginAuthentication(c.Request.Context(), dto.UserID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, opts)
}

func (h *Handler) finishAuthentication(c *gin.Context) {
	var req AuthenticationFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	pair, err := h.svc.CompleteAuthentication(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		h.rejectCeremony(c, "authentication", err)
		return
	}
	response.OK(c, pair)
}

// rejectCeremony collapses every ceremony failure into one generic
// response. The precise cause goes to the log only; the body must not
// tell an attacker which check failed.
func (h *Handler) rejectCeremony(c *gin.Context, ceremony string, err error) {
	switch {
	case errors.Is(err, ErrChallengeNotFound),
		errors.Is(err, ErrChallengeExpired),
		errors.Is(err, ErrChallengeUsed),
		errors.Is(err, ErrCredentialNotFound),
		errors.Is(err, ErrVerificationFailed),
		errors.Is(err, ErrCounterRegression):
		h.logger.Info("passkey ceremony rejected",
			zap.String("ceremony", ceremony),
			zap.String("ip", c.ClientIP()),
			zap.Error(err))
		response.AuthFailed(c)
	default:
		response.InternalError(c, err)
	}
}

func (h *Handler) list(c *gin.Context) {
	infos, err := h.svc.ListCredentials(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, infos)
}

func (h *Handler) rename(c *gin.Context) {
	var dto struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.RenameCredential(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Name)
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.DeleteCredential(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
