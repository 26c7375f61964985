package session

import (
	"time"

	"github.com/strategiz/core/internal/models"
)

// AuthenticationInput describes a completed login from which a token
// pair should be minted.
type AuthenticationInput struct {
	UserID   string
	Methods  []string
	Partial  bool
	Scope    string
	DemoMode bool
	DeviceID string
	SourceIP string
}

// TokenPair is the result of creating or refreshing an authentication.
// Refresh responses carry only the access half, so the refresh fields
// are absent there rather than zero-valued.
type TokenPair struct {
	AccessToken      string     `json:"accessToken"`
	RefreshToken     string     `json:"refreshToken,omitempty"`
	AccessExpiresAt  time.Time  `json:"accessExpiresAt"`
	RefreshExpiresAt *time.Time `json:"refreshExpiresAt,omitempty"`
}

// Info is the API-facing view of a stored session. Token values are
// never exposed.
type Info struct {
	SessionID      string     `json:"sessionId"`
	Kind           string     `json:"kind"`
	IssuedAt       time.Time  `json:"issuedAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	LastAccessedAt time.Time  `json:"lastAccessedAt"`
	DeviceID       string     `json:"deviceId,omitempty"`
	SourceIP       string     `json:"sourceIp,omitempty"`
	Revoked        bool       `json:"revoked"`
	RevokedAt      *time.Time `json:"revokedAt,omitempty"`
	ACR            string     `json:"acr,omitempty"`
	AMR            []string   `json:"amr,omitempty"`
}

func infoFromModel(m *models.SessionModel) Info {
	return Info{
		SessionID:      m.SessionID,
		Kind:           m.TokenKind,
		IssuedAt:       m.IssuedAt,
		ExpiresAt:      m.ExpiresAt,
		LastAccessedAt: m.LastAccessedAt,
		DeviceID:       m.DeviceID,
		SourceIP:       m.SourceIP,
		Revoked:        m.Revoked,
		RevokedAt:      m.RevokedAt,
		ACR:            m.Claims.ACR,
		AMR:            m.Claims.AMR,
	}
}
