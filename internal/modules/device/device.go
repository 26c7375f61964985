package device

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/strategiz/core/internal/middleware"
	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/pkg/response"
	"gorm.io/gorm"
)

// Devices are remembered browser or app installs, keyed by a
// client-supplied fingerprint. A trusted device can skip step-up
// prompts.

var ErrNotFound = errors.New("device: not found")

type RegisterDTO struct {
	Fingerprint string `json:"fingerprint" binding:"required"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Upsert records a sighting of a device, creating it on first contact.
func (s *Service) Upsert(ctx context.Context, userID, userAgent string, dto *RegisterDTO) (*models.DeviceModel, error) {
	now := time.Now()

	var d models.DeviceModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND fingerprint = ?", userID, dto.Fingerprint).
		First(&d).Error
	if err == nil {
		updates := map[string]interface{}{
			"last_seen_at": now,
			"user_agent":   userAgent,
		}
		if dto.Name != "" {
			updates["name"] = dto.Name
		}
		return &d, s.db.WithContext(ctx).Model(&d).Updates(updates).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	d = models.DeviceModel{
		UserID:      userID,
		Fingerprint: dto.Fingerprint,
		Name:        dto.Name,
		Platform:    dto.Platform,
		UserAgent:   userAgent,
		LastSeenAt:  &now,
	}
	return &d, s.db.WithContext(ctx).Create(&d).Error
}

func (s *Service) List(ctx context.Context, userID string) ([]models.DeviceModel, error) {
	var devices []models.DeviceModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("last_seen_at DESC").Find(&devices).Error
	return devices, err
}

func (s *Service) SetTrusted(ctx context.Context, userID, id string, trusted bool) error {
	res := s.db.WithContext(ctx).Model(&models.DeviceModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("trusted", trusted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.DeviceModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/devices", authMW)
	g.POST("", h.register)
	g.GET("", h.list)
	g.PUT("/:id/trusted", h.setTrusted)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) register(c *gin.Context) {
	var dto RegisterDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	d, err := h.svc.Upsert(c.Request.Context(), middleware.CurrentUserID(c), c.Request.UserAgent(), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, d)
}

func (h *Handler) list(c *gin.Context) {
	devices, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, devices)
}

func (h *Handler) setTrusted(c *gin.Context) {
	var dto struct {
		Trusted bool `json:"trusted"`
	}
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	err := h.svc.SetTrusted(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Trusted)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
