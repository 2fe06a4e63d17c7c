package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the durable record of one login, whatever flow created it.
// A non-revoked, non-expired session is the only thing that makes its paired
// refresh token usable; the token itself is stored only as a SHA-256 digest.
type Session struct {
	BaseModel
	UserID            uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`
	RefreshTokenHash  string    `json:"-" gorm:"type:varchar(64);not null;uniqueIndex"`
	ClientFingerprint string    `json:"tokenPreview" gorm:"type:varchar(255)"`
	ExpiresAt         time.Time `json:"expiryDate" gorm:"not null;index"`
	LastSeenAt        time.Time `json:"lastSeenAt" gorm:"not null"`
	Revoked           bool      `json:"-" gorm:"not null;default:false;index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) Active(now time.Time) bool {
	return !s.Revoked && !s.Expired(now)
}
