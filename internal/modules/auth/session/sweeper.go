package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes session records that have aged past their retention
// window. Expired sessions linger for a while so recent activity can be
// audited; revoked ones are dropped sooner.
type Sweeper struct {
	store            Store
	expiredRetention time.Duration
	revokedRetention time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewSweeper(store Store, expiredRetention, revokedRetention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:            store,
		expiredRetention: expiredRetention,
		revokedRetention: revokedRetention,
		logger:           logger,
		now:              time.Now,
	}
}

// Sweep collects expired-past-retention and revoked-past-retention
// sessions, dedupes the union, and deletes them in one pass. Returns
// the number of records deleted.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	expired, err := s.store.GetExpiredBefore(ctx, now.Add(-s.expiredRetention))
	if err != nil {
		return 0, fmt.Errorf("collect expired sessions: %w", err)
	}
	revoked, err := s.store.GetRevokedBefore(ctx, now.Add(-s.revokedRetention))
	if err != nil {
		return 0, fmt.Errorf("collect revoked sessions: %w", err)
	}

	// A session can be both expired and revoked; delete it once.
	seen := make(map[string]struct{}, len(expired)+len(revoked))
	ids := make([]string, 0, len(expired)+len(revoked))
	for _, rec := range expired {
		if _, ok := seen[rec.SessionID]; !ok {
			seen[rec.SessionID] = struct{}{}
			ids = append(ids, rec.SessionID)
		}
	}
	for _, rec := range revoked {
		if _, ok := seen[rec.SessionID]; !ok {
			seen[rec.SessionID] = struct{}{}
			ids = append(ids, rec.SessionID)
		}
	}

	if len(ids) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := s.store.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete swept sessions: %w", err)
	}
	s.logger.Info("session sweep complete",
		zap.Int64("deleted", n),
		zap.Int("expired_candidates", len(expired)),
		zap.Int("revoked_candidates", len(revoked)))
	return n, nil
}

// Run adapts Sweep to the scheduler's job signature.
func (s *Sweeper) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}
