package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/pkg/token"
	"go.uber.org/zap"
)

// Engine owns the session lifecycle: minting token pairs, validating
// presented tokens against stored records, refresh, and revocation.
type Engine struct {
	store      Store
	codec      *token.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewEngine wires the session engine.
func NewEngine(store Store, codec *token.Codec, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		store:      store,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        time.Now,
	}
}

func sessionID(kind token.Kind) string {
	prefix := "acc_"
	if kind == token.KindRefresh {
		prefix = "ref_"
	}
	return prefix + uuid.NewString()
}

// CreateAuthentication mints an access and refresh token pair for a
// completed login and persists one session record per token. The access
// record is written first; if the refresh record cannot be written the
// access record is deleted so a half-pair never survives.
func (e *Engine) CreateAuthentication(ctx context.Context, in AuthenticationInput) (*TokenPair, error) {
	claims := token.Claims{
		Subject:  in.UserID,
		ACR:      token.CalculateACR(in.Methods, in.Partial),
		AMR:      in.Methods,
		Scope:    in.Scope,
		DemoMode: in.DemoMode,
	}

	accessRec, accessTok, err := e.mint(ctx, claims, token.KindAccess, e.accessTTL, in)
	if err != nil {
		return nil, err
	}

	refreshRec, refreshTok, err := e.mint(ctx, claims, token.KindRefresh, e.refreshTTL, in)
	if err != nil {
		if _, delErr := e.store.Delete(ctx, []string{accessRec.SessionID}); delErr != nil {
			e.logger.Error("orphaned access session after refresh mint failure",
				zap.String("session_id", accessRec.SessionID),
				zap.Error(delErr))
		}
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessTok,
		RefreshToken:     refreshTok,
		AccessExpiresAt:  accessRec.ExpiresAt,
		RefreshExpiresAt: &refreshRec.ExpiresAt,
	}, nil
}

func (e *Engine) mint(ctx context.Context, claims token.Claims, kind token.Kind, ttl time.Duration, in AuthenticationInput) (*models.SessionModel, string, error) {
	tok, issued, err := e.codec.Issue(claims, kind, ttl)
	if err != nil {
		return nil, "", fmt.Errorf("mint %s token: %w", kind, err)
	}

	now := e.now()
	rec := &models.SessionModel{
		SessionID:      sessionID(kind),
		UserID:         claims.Subject,
		TokenValue:     tok,
		TokenKind:      string(kind),
		IssuedAt:       time.Unix(issued.IssuedAt, 0),
		ExpiresAt:      issued.ExpiresAt(),
		LastAccessedAt: now,
		DeviceID:       in.DeviceID,
		SourceIP:       in.SourceIP,
		Claims: models.SessionClaims{
			ACR:      issued.ACR,
			AMR:      models.StringArray(issued.AMR),
			Scope:    issued.Scope,
			DemoMode: issued.DemoMode,
		},
	}
	if err := e.store.Put(ctx, rec); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rec, tok, nil
}

// ValidateToken checks a presented token end to end: codec shape and
// integrity, a live stored record, kind, revocation and expiry. Store
// failures fail closed. On success the record's last access time is
// updated best effort.
func (e *Engine) ValidateToken(ctx context.Context, tok string, want token.Kind) (*models.SessionModel, error) {
	claims, err := e.codec.Validate(tok)
	if err != nil {
		switch err {
		case token.ErrMalformed:
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenIntegrity
		}
	}
	if claims.Kind != want {
		return nil, ErrWrongTokenKind
	}

	rec, err := e.store.GetByToken(ctx, tok)
	if err == ErrNotFound {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		// A store outage must never admit a token.
		e.logger.Warn("session lookup failed, rejecting token", zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	now := e.now()
	if rec.Revoked {
		return nil, ErrSessionRevoked
	}
	if !now.Before(rec.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	if err := e.store.Touch(ctx, rec.SessionID, now); err != nil {
		e.logger.Debug("session touch failed", zap.String("session_id", rec.SessionID), zap.Error(err))
	}
	return rec, nil
}

// RefreshAccessToken validates a refresh token and mints a fresh access
// token from the claims persisted with the refresh record. The refresh
// token itself stays valid until it expires or is revoked.
func (e *Engine) RefreshAccessToken(ctx context.Context, refreshTok string) (*TokenPair, error) {
	rec, err := e.ValidateToken(ctx, refreshTok, token.KindRefresh)
	if err != nil {
		return nil, err
	}

	claims := token.Claims{
		Subject:  rec.UserID,
		ACR:      rec.Claims.ACR,
		AMR:      []string(rec.Claims.AMR),
		Scope:    rec.Claims.Scope,
		DemoMode: rec.Claims.DemoMode,
	}
	in := AuthenticationInput{UserID: rec.UserID, DeviceID: rec.DeviceID, SourceIP: rec.SourceIP}

	accessRec, accessTok, err := e.mint(ctx, claims, token.KindAccess, e.accessTTL, in)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:     accessTok,
		AccessExpiresAt: accessRec.ExpiresAt,
	}, nil
}

// RevokeSession marks one session revoked. Revoking an already revoked
// session succeeds; revocation is idempotent.
func (e *Engine) RevokeSession(ctx context.Context, sessionID, reason string) error {
	changed, err := e.store.Revoke(ctx, sessionID, reason, e.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !changed {
		// Already revoked or gone. Either way the caller's goal holds.
		if _, err := e.store.Get(ctx, sessionID); err == ErrNotFound {
			return ErrSessionNotFound
		}
	}
	return nil
}

// RevokeByToken revokes the session backing a presented token. The
// token must at least decode; a token we never issued reveals nothing.
func (e *Engine) RevokeByToken(ctx context.Context, tok, reason string) error {
	if _, err := e.codec.Validate(tok); err != nil {
		if err == token.ErrMalformed {
			return ErrTokenMalformed
		}
		return ErrTokenIntegrity
	}
	rec, err := e.store.GetByToken(ctx, tok)
	if err == ErrNotFound {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return e.RevokeSession(ctx, rec.SessionID, reason)
}

// RevokeAllForUser revokes every live session of a user except an
// optional one to keep, and returns how many were revoked.
func (e *Engine) RevokeAllForUser(ctx context.Context, userID, keepSessionID, reason string) (int64, error) {
	n, err := e.store.RevokeAllForUser(ctx, userID, keepSessionID, reason, e.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// ListSessions returns the user's sessions, newest first. With a kind
// filter, only
// unrevoked records of that kind are listed; without one, every record
// including revoked ones comes back so clients can audit history.
func (e *Engine) ListSessions(ctx context.Context, userID string, kind token.Kind) ([]Info, error) {
	var (
		recs []models.SessionModel
		err  error
	)
	if kind != "" {
		recs, err = e.store.GetByUserAndKind(ctx, userID, string(kind))
	} else {
		recs, err = e.store.GetByUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	out := make([]Info, 0, len(recs))
	for i := range recs {
		out = append(out, infoFromModel(&recs[i]))
	}
	return out, nil
}
