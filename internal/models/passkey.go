package models

import "time"

// PasskeyCredentialModel stores a registered public-key credential.
// PublicKey holds the raw COSE-encoded key exactly as delivered by the
// authenticator at registration time.
type PasskeyCredentialModel struct {
	Base
	UserID           string     `json:"user_id"           gorm:"index:idx_passkey_user_cred,unique;not null"`
	CredentialID     []byte     `json:"-"                 gorm:"type:varbinary(255);index:idx_passkey_user_cred,unique;not null"`
	PublicKey        []byte     `json:"-"                 gorm:"type:blob;not null"`
	AAGUID           string     `json:"aaguid"`
	SignatureCounter uint32     `json:"signature_counter"`
	Trusted          bool       `json:"trusted"           gorm:"not null;default:false"`
	Name             string     `json:"name"`
	DeviceName       string     `json:"device_name,omitempty"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty"`
}

func (PasskeyCredentialModel) TableName() string { return "passkey_credentials" }
