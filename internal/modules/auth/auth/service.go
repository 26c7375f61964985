package auth

import (
	"context"
	"errors"
	"time"

	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/modules/auth/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// failureDelay slows down credential guessing. Applied on every failed
// password attempt before the response leaves.
const failureDelay = 3 * time.Second

type Service struct {
	db       *gorm.DB
	sessions *session.Engine
}

func NewService(db *gorm.DB, sessions *session.Engine) *Service {
	return &Service{db: db, sessions: sessions}
}

// Login verifies an email and password pair and mints a token pair.
func (s *Service) Login(ctx context.Context, email, password, ip string) (*session.TokenPair, error) {
	var u models.UserModel
	if err := s.db.WithContext(ctx).
		Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(failureDelay)
			return nil, errUserNotFound
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		time.Sleep(failureDelay)
		return nil, errWrongPassword
	}

	now := time.Now()
	s.db.WithContext(ctx).Model(&u).Updates(map[string]interface{}{
		"last_login_time": now,
		"last_login_ip":   ip,
	})

	return s.sessions.CreateAuthentication(ctx, session.AuthenticationInput{
		UserID:   u.ID,
		Methods:  []string{"password"},
		Scope:    "user",
		DemoMode: u.DemoMode,
		SourceIP: ip,
	})
}

// Register creates a new account. Email addresses are unique.
func (s *Service) Register(ctx context.Context, dto *RegisterDTO) (*models.UserModel, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", dto.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := models.UserModel{
		Email:    dto.Email,
		Password: string(hash),
		Name:     dto.Name,
		DemoMode: true,
	}
	return &u, s.db.WithContext(ctx).Create(&u).Error
}

// Refresh exchanges a live refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*session.TokenPair, error) {
	return s.sessions.RefreshAccessToken(ctx, refreshToken)
}

// Logout revokes the session backing the presented access token.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	return s.sessions.RevokeByToken(ctx, accessToken, "logout")
}
