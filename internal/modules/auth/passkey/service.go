package passkey

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strategiz/core/internal/config"
	"github.com/strategiz/core/internal/models"
	"github.com/strategiz/core/internal/modules/auth/session"
	"github.com/strategiz/core/internal/pkg/cose"
	"go.uber.org/zap"
)

var (
	ErrVerificationFailed = errors.New("passkey: verification failed")

	// ErrCounterRegression means the assertion counter did not move
	// strictly forward, which suggests a cloned authenticator.
	ErrCounterRegression = errors.New("passkey: signature counter regression")
)

const challengeSize = 32

// Service runs the registration and authentication ceremonies.
type Service struct {
	cfg          config.PasskeyConfig
	challengeTTL time.Duration
	challenges   ChallengeStore
	credentials  CredentialStore
	users        UserDirectory
	sessions     *session.Engine
	logger       *zap.Logger
}

// UserDirectory is the slice of user lookup the ceremonies need.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*models.UserModel, error)
}

func NewService(
	cfg config.PasskeyConfig,
	challengeTTL time.Duration,
	challenges ChallengeStore,
	credentials CredentialStore,
	users UserDirectory,
	sessions *session.Engine,
	logger *zap.Logger,
) *Service {
	return &Service{
		cfg:          cfg,
		challengeTTL: challengeTTL,
		challenges:   challenges,
		credentials:  credentials,
		users:        users,
		sessions:     sessions,
		logger:       logger,
	}
}

func (s *Service) newChallenge(ctx context.Context, userID string, ceremony Ceremony, credentialIDs [][]byte) (*Challenge, error) {
	value := make([]byte, challengeSize)
	if _, err := rand.Read(value); err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}
	ch := NewChallenge(userID, value, ceremony, s.challengeTTL)
	ch.CredentialIDs = credentialIDs
	if err := s.challenges.Put(ctx, ch); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}
	return ch, nil
}

// BeginRegistration issues creation options for an authenticated user.
func (s *Service) BeginRegistration(ctx context.Context, userID string) (*CreationOptions, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ch, err := s.newChallenge(ctx, userID, CeremonyRegistration, nil)
	if err != nil {
		return nil, err
	}

	existing, err := s.credentials.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := make([]credDescriptor, 0, len(existing))
	for _, cred := range existing {
		exclude = append(exclude, credDescriptor{Type: "public-key", ID: cred.CredentialID})
	}

	return &CreationOptions{
		ChallengeID: ch.ID,
		Challenge:   ch.Value,
		RP:          rpEntity{ID: s.cfg.RPID, Name: s.cfg.RPName},
		User: userEntity{
			ID:          []byte(user.ID),
			Name:        user.Email,
			DisplayName: user.Name,
		},
		PubKeyCredParams: []credParam{
			{Type: "public-key", Alg: cose.AlgES256},
			{Type: "public-key", Alg: cose.AlgRS256},
		},
		Timeout:     int(s.challengeTTL.Milliseconds()),
		Attestation: "none",
		ExcludeList: exclude,
	}, nil
}

// CompleteRegistration validates an attestation response and stores the
// new credential.
func (s *Service) CompleteRegistration(ctx context.Context, userID string, req *RegistrationFinishRequest) (*models.PasskeyCredentialModel, error) {
	ch, err := s.challenges.Consume(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	if ch.Ceremony != CeremonyRegistration || ch.UserID != userID {
		return nil, ErrVerificationFailed
	}

	if err := s.checkClientData(req.Response.ClientDataJSON, "webauthn.create", ch.Value); err != nil {
		return nil, err
	}

	att, err := cose.ParseAttestationObject(req.Response.AttestationObject)
	if err != nil {
		s.logger.Info("attestation object rejected", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	authData, err := cose.ParseAuthenticatorData(att.AuthData)
	if err != nil {
		s.logger.Info("authenticator data rejected", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	if err := s.checkRPIDHash(authData.RPIDHash); err != nil {
		return nil, err
	}
	if !authData.UserPresent() {
		return nil, ErrVerificationFailed
	}
	if len(authData.CredentialID) == 0 || len(authData.PublicKey) == 0 {
		return nil, ErrVerificationFailed
	}
	if !bytes.Equal(authData.CredentialID, req.RawID) {
		return nil, ErrVerificationFailed
	}

	// The key must parse now; an unparseable key would brick every
	// later authentication with this credential.
	if _, err := cose.ParseKey(authData.PublicKey); err != nil {
		s.logger.Info("credential key rejected", zap.Error(err))
		return nil, ErrVerificationFailed
	}

	cred := &models.PasskeyCredentialModel{
		UserID:           userID,
		CredentialID:     authData.CredentialID,
		PublicKey:        authData.PublicKey,
		AAGUID:           fmt.Sprintf("%x", authData.AAGUID),
		SignatureCounter: authData.Counter,
		Name:             req.Name,
	}
	if err := s.credentials.Put(ctx, cred); err != nil {
		return nil, fmt.Errorf("store credential: %w", err)
	}
	return cred, nil
}

// BeginAuthentication issues request options. When a user id is given
// the allow list is restricted to that user's credentials; otherwise
// the authenticator picks a discoverable credential.
func (s *Service) BeginAuthentication(ctx context.Context, userID string) (*RequestOptions, error) {
	var (
		allow []credDescriptor
		ids   [][]byte
	)
	if userID != "" {
		creds, err := s.credentials.GetByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		allow = make([]credDescriptor, 0, len(creds))
		for _, cred := range creds {
			allow = append(allow, credDescriptor{Type: "public-key", ID: cred.CredentialID})
			ids = append(ids, cred.CredentialID)
		}
	}

	ch, err := s.newChallenge(ctx, userID, CeremonyAuthentication, ids)
	if err != nil {
		return nil, err
	}

	return &RequestOptions{
		ChallengeID:      ch.ID,
		Challenge:        ch.Value,
		RPID:             s.cfg.RPID,
		AllowCredentials: allow,
		Timeout:          int(s.challengeTTL.Milliseconds()),
		UserVerification: "preferred",
	}, nil
}

// CompleteAuthentication verifies an assertion and, on success, mints a
// session token pair for the credential's owner.
func (s *Service) CompleteAuthentication(ctx context.Context, req *AuthenticationFinishRequest, sourceIP string) (*session.TokenPair, error) {
	ch, err := s.challenges.Consume(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	if ch.Ceremony != CeremonyAuthentication {
		return nil, ErrVerificationFailed
	}

	cred, err := s.credentials.GetByCredentialID(ctx, req.RawID)
	if err != nil {
		return nil, err
	}

	// A challenge bound to a user must be answered by that user's
	// credential, and only by one named in the allow list it was
	// issued with.
	if ch.UserID != "" && ch.UserID != cred.UserID {
		return nil, ErrVerificationFailed
	}
	if len(ch.CredentialIDs) > 0 && !containsCredential(ch.CredentialIDs, req.RawID) {
		return nil, ErrVerificationFailed
	}

	if err := s.checkClientData(req.Response.ClientDataJSON, "webauthn.get", ch.Value); err != nil {
		return nil, err
	}

	authData, err := cose.ParseAuthenticatorData(req.Response.AuthenticatorData)
	if err != nil {
		s.logger.Info("authenticator data rejected", zap.Error(err))
		return nil, ErrVerificationFailed
	}
	if err := s.checkRPIDHash(authData.RPIDHash); err != nil {
		return nil, err
	}
	if !authData.UserPresent() {
		return nil, ErrVerificationFailed
	}

	if err := cose.VerifyAssertion(cred.PublicKey, req.Response.AuthenticatorData, req.Response.ClientDataJSON, req.Response.Signature); err != nil {
		s.logger.Info("assertion signature rejected",
			zap.String("credential", cred.ID),
			zap.Error(err))
		return nil, ErrVerificationFailed
	}

	// Counters must move strictly forward. A reported value at or below
	// the stored one means a possible cloned authenticator, even when
	// the signature itself verifies.
	if authData.Counter <= cred.SignatureCounter {
		s.logger.Warn("signature counter regression, possible cloned authenticator",
			zap.String("credential", cred.ID),
			zap.Uint32("stored", cred.SignatureCounter),
			zap.Uint32("presented", authData.Counter))
		return nil, ErrCounterRegression
	}

	now := time.Now()
	if err := s.credentials.UpdateCounter(ctx, cred.ID, authData.Counter, now); err != nil {
		return nil, fmt.Errorf("update credential counter: %w", err)
	}

	user, err := s.users.GetUser(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	return s.sessions.CreateAuthentication(ctx, session.AuthenticationInput{
		UserID:   user.ID,
		Methods:  []string{"passkeys"},
		Scope:    "user",
		DemoMode: user.DemoMode,
		SourceIP: sourceIP,
	})
}

// ListCredentials returns the API view of a user's credentials.
func (s *Service) ListCredentials(ctx context.Context, userID string) ([]CredentialInfo, error) {
	creds, err := s.credentials.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]CredentialInfo, 0, len(creds))
	for _, cred := range creds {
		info := CredentialInfo{
			ID:         cred.ID,
			Credential: cred.CredentialID,
			Name:       cred.Name,
			DeviceName: cred.DeviceName,
			Trusted:    cred.Trusted,
			CreatedAt:  cred.CreatedAt.Format(time.RFC3339),
		}
		if cred.LastUsedAt != nil {
			info.LastUsedAt = cred.LastUsedAt.Format(time.RFC3339)
		}
		out = append(out, info)
	}
	return out, nil
}

// RenameCredential updates a credential's display name.
func (s *Service) RenameCredential(ctx context.Context, userID, id, name string) error {
	return s.credentials.Rename(ctx, userID, id, name)
}

// DeleteCredential removes one of the user's credentials.
func (s *Service) DeleteCredential(ctx context.Context, userID, id string) error {
	return s.credentials.Delete(ctx, userID, id)
}

func (s *Service) checkClientData(raw []byte, wantType string, challenge []byte) error {
	var cd clientData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return ErrVerificationFailed
	}
	if cd.Type != wantType {
		return ErrVerificationFailed
	}
	if cd.Origin != s.cfg.Origin {
		s.logger.Info("client data origin mismatch", zap.String("origin", cd.Origin))
		return ErrVerificationFailed
	}
	got, err := base64.RawURLEncoding.DecodeString(cd.Challenge)
	if err != nil || !bytes.Equal(got, challenge) {
		return ErrVerificationFailed
	}
	return nil
}

func (s *Service) checkRPIDHash(hash []byte) error {
	want := sha256.Sum256([]byte(s.cfg.RPID))
	if !bytes.Equal(hash, want[:]) {
		return ErrVerificationFailed
	}
	return nil
}

func containsCredential(ids [][]byte, id []byte) bool {
	for _, candidate := range ids {
		if bytes.Equal(candidate, id) {
			return true
		}
	}
	return false
}
