package models

import "time"

// DeviceModel is a known device fingerprint scoped under the owning user.
// Trust scoring is out of scope; Trusted is a flag callers manage directly.
type DeviceModel struct {
	Base
	UserID      string     `json:"user_id"     gorm:"index;not null"`
	Fingerprint string     `json:"fingerprint" gorm:"index;not null"`
	Name        string     `json:"name"`
	Platform    string     `json:"platform"`
	UserAgent   string     `json:"user_agent"  gorm:"type:text"`
	Trusted     bool       `json:"trusted"     gorm:"not null;default:false"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
}

func (DeviceModel) TableName() string { return "devices" }
