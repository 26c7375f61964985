package models

import "time"

// SessionClaims is the authentication context persisted alongside each session
// record. Access and refresh records created in the same ceremony carry
// identical claims; refresh re-derives new access claims from here rather than
// re-running authentication.
type SessionClaims struct {
	ACR      string      `json:"acr"`
	AMR      StringArray `json:"amr"       gorm:"type:text"`
	Scope    string      `json:"scope"     gorm:"type:text"`
	DemoMode bool        `json:"demo_mode"`
}

// SessionModel is one session record per issued token. An access token and its
// paired refresh token are two independent rows correlated by user and
// issuance context, never by foreign key.
type SessionModel struct {
	SessionID        string     `json:"session_id"        gorm:"primaryKey;type:varchar(64)"`
	UserID           string     `json:"user_id"           gorm:"index;not null"`
	TokenValue       string     `json:"-"                 gorm:"uniqueIndex;type:varchar(768);not null"`
	TokenKind        string     `json:"token_kind"        gorm:"index;type:varchar(16);not null"`
	IssuedAt         time.Time  `json:"issued_at"`
	ExpiresAt        time.Time  `json:"expires_at"        gorm:"index;not null"`
	LastAccessedAt   time.Time  `json:"last_accessed_at"`
	DeviceID         string     `json:"device_id,omitempty"`
	SourceIP         string     `json:"source_ip,omitempty"`
	Revoked          bool       `json:"revoked"           gorm:"index;not null;default:false"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevocationReason string     `json:"revocation_reason,omitempty"`
	Claims           SessionClaims `json:"claims" gorm:"embedded;embeddedPrefix:claim_"`
	CreatedAt        time.Time  `json:"created"`
	UpdatedAt        time.Time  `json:"modified"`
}

func (SessionModel) TableName() string { return "sessions" }
