package models

import "time"

type OtpPurpose string

const (
	OtpPurposeLogin       OtpPurpose = "login"
	OtpPurposeEmailChange OtpPurpose = "email_change"
)

// OtpChallenge is a pending one-time code for a destination. At most one live
// challenge exists per (destination, purpose); a new request supersedes it.
type OtpChallenge struct {
	BaseModel
	Destination       string     `json:"-" gorm:"type:varchar(255);not null;uniqueIndex:idx_otp_destination_purpose"`
	Purpose           OtpPurpose `json:"-" gorm:"type:varchar(20);not null;uniqueIndex:idx_otp_destination_purpose"`
	Code              string     `json:"-" gorm:"type:varchar(10);not null"`
	ExpiresAt         time.Time  `json:"expiresAt" gorm:"not null;index"`
	AttemptsRemaining int        `json:"-" gorm:"not null"`
}

func (OtpChallenge) TableName() string {
	return "otp_challenges"
}

func (o *OtpChallenge) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
