package passkey

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/strategiz/core/internal/models"
	"gorm.io/gorm"
)

var ErrCredentialNotFound = errors.New("passkey: credential not found")

// CredentialStore persists registered passkey credentials.
type CredentialStore interface {
	Put(ctx context.Context, cred *models.PasskeyCredentialModel) error
	GetByCredentialID(ctx context.Context, credentialID []byte) (*models.PasskeyCredentialModel, error)
	GetByUser(ctx context.Context, userID string) ([]models.PasskeyCredentialModel, error)
	UpdateCounter(ctx context.Context, id string, counter uint32, usedAt time.Time) error
	Rename(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
}

type gormCredentialStore struct{ db *gorm.DB }

func NewGormCredentialStore(db *gorm.DB) CredentialStore { return &gormCredentialStore{db: db} }

func (s *gormCredentialStore) Put(ctx context.Context, cred *models.PasskeyCredentialModel) error {
	return s.db.WithContext(ctx).Create(cred).Error
}

func (s *gormCredentialStore) GetByCredentialID(ctx context.Context, credentialID []byte) (*models.PasskeyCredentialModel, error) {
	var cred models.PasskeyCredentialModel
	err := s.db.WithContext(ctx).Where("credential_id = ?", credentialID).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCredentialNotFound
	}
	if err != nil {
		return nil, err
	}
	// MySQL binary comparison can be padding-lenient; confirm exact match.
	if !bytes.Equal(cred.CredentialID, credentialID) {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *gormCredentialStore) GetByUser(ctx context.Context, userID string) ([]models.PasskeyCredentialModel, error) {
	var creds []models.PasskeyCredentialModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&creds).Error
	return creds, err
}

func (s *gormCredentialStore) UpdateCounter(ctx context.Context, id string, counter uint32, usedAt time.Time) error {
	return s.db.WithContext(ctx).Model(&models.PasskeyCredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"signature_counter": counter,
			"last_used_at":      usedAt,
		}).Error
}

func (s *gormCredentialStore) Rename(ctx context.Context, userID, id, name string) error {
	res := s.db.WithContext(ctx).Model(&models.PasskeyCredentialModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (s *gormCredentialStore) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.PasskeyCredentialModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
