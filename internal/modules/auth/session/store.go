package session

import (
	"context"
	"errors"
	"time"

	"github.com/strategiz/core/internal/models"
	"gorm.io/gorm"
)

// Store is the persistence boundary of the session engine. The gorm
// implementation is the production one; tests substitute an in-memory
// store.
type Store interface {
	Put(ctx context.Context, rec *models.SessionModel) error
	Get(ctx context.Context, sessionID string) (*models.SessionModel, error)
	GetByToken(ctx context.Context, tokenValue string) (*models.SessionModel, error)
	GetByUser(ctx context.Context, userID string) ([]models.SessionModel, error)

	// GetByUserAndKind returns only the user's unrevoked records of the
	// given kind.
	GetByUserAndKind(ctx context.Context, userID, kind string) ([]models.SessionModel, error)
	GetExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.SessionModel, error)
	GetRevokedBefore(ctx context.Context, cutoff time.Time) ([]models.SessionModel, error)
	Delete(ctx context.Context, sessionIDs []string) (int64, error)

	// Touch updates last accessed time on a live record. Missing or
	// dead records are a no-op.
	Touch(ctx context.Context, sessionID string, at time.Time) error

	// Revoke marks a session revoked. Returns false when the record is
	// already revoked or absent.
	Revoke(ctx context.Context, sessionID, reason string, at time.Time) (bool, error)

	// RevokeAllForUser revokes every live session of a user, optionally
	// keeping one. Returns the number revoked.
	RevokeAllForUser(ctx context.Context, userID, keepSessionID, reason string, at time.Time) (int64, error)
}

// ErrNotFound is returned by Get lookups when no record matches.
var ErrNotFound = errors.New("session store: record not found")

type gormStore struct{ db *gorm.DB }

// NewGormStore wraps a gorm DB as a session Store.
func NewGormStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Put(ctx context.Context, rec *models.SessionModel) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *gormStore) Get(ctx context.Context, sessionID string) (*models.SessionModel, error) {
	var rec models.SessionModel
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) GetByToken(ctx context.Context, tokenValue string) (*models.SessionModel, error) {
	var rec models.SessionModel
	err := s.db.WithContext(ctx).Where("token_value = ?", tokenValue).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *gormStore) GetByUser(ctx context.Context, userID string) ([]models.SessionModel, error) {
	var recs []models.SessionModel
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("issued_at DESC").Find(&recs).Error
	return recs, err
}

func (s *gormStore) GetByUserAndKind(ctx context.Context, userID, kind string) ([]models.SessionModel, error) {
	var recs []models.SessionModel
	err := s.db.WithContext(ctx).Where("user_id = ? AND token_kind = ? AND revoked = ?", userID, kind, false).
		Order("issued_at DESC").Find(&recs).Error
	return recs, err
}

func (s *gormStore) GetExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.SessionModel, error) {
	var recs []models.SessionModel
	err := s.db.WithContext(ctx).Where("expires_at < ?", cutoff).Find(&recs).Error
	return recs, err
}

func (s *gormStore) GetRevokedBefore(ctx context.Context, cutoff time.Time) ([]models.SessionModel, error) {
	var recs []models.SessionModel
	err := s.db.WithContext(ctx).Where("revoked = ? AND revoked_at < ?", true, cutoff).Find(&recs).Error
	return recs, err
}

func (s *gormStore) Delete(ctx context.Context, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("session_id IN ?", sessionIDs).Delete(&models.SessionModel{})
	return res.RowsAffected, res.Error
}

func (s *gormStore) Touch(ctx context.Context, sessionID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("session_id = ? AND revoked = ? AND expires_at > ?", sessionID, false, at).
		Update("last_accessed_at", at).Error
}

func (s *gormStore) Revoke(ctx context.Context, sessionID, reason string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("session_id = ? AND revoked = ?", sessionID, false).
		Updates(map[string]interface{}{
			"revoked":           true,
			"revoked_at":        at,
			"revocation_reason": reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) RevokeAllForUser(ctx context.Context, userID, keepSessionID, reason string, at time.Time) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("user_id = ? AND revoked = ?", userID, false)
	if keepSessionID != "" {
		q = q.Where("session_id <> ?", keepSessionID)
	}
	res := q.Updates(map[string]interface{}{
		"revoked":           true,
		"revoked_at":        at,
		"revocation_reason": reason,
	})
	return res.RowsAffected, res.Error
}
