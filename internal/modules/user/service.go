package user

import (
	"context"
	"errors"

	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/modules/auth/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("user: not found")
	errWrongPassword = errors.New("user: wrong password")
)

type Service struct {
	db       *gorm.DB
	sessions *session.Engine
}

func NewService(db *gorm.DB, sessions *session.Engine) *Service {
	return &Service{db: db, sessions: sessions}
}

// GetUser loads one user by id.
func (s *Service) GetUser(ctx context.Context, userID string) (*models.UserModel, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the user's display name.
func (s *Service) UpdateProfile(ctx context.Context, userID string, dto *UpdateProfileDTO) (*models.UserModel, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if dto.Name != "" {
		u.Name = dto.Name
	}
	return u, s.db.WithContext(ctx).Save(u).Error
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every other session so stolen tokens die with the old
// password.
func (s *Service) ChangePassword(ctx context.Context, userID, keepSessionID string, dto *ChangePasswordDTO) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.CurrentPassword)); err != nil {
		return errWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password", string(hash)).Error; err != nil {
		return err
	}

	_, err = s.sessions.RevokeAllForUser(ctx, userID, keepSessionID, "password_changed")
	return err
}

// SetDemoMode toggles the demo flag on the account. Takes effect on the
// next minted token pair.
func (s *Service) SetDemoMode(ctx context.Context, userID string, demo bool) error {
	res := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", userID).Update("demo_mode", demo)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
