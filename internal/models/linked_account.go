package models

import "github.com/google/uuid"

// LinkedAccount ties a local user to an external identity provider account.
type LinkedAccount struct {
	BaseModel
	UserID         uuid.UUID    `json:"userId" gorm:"type:uuid;not null;index"`
	Provider       AuthProvider `json:"provider" gorm:"type:varchar(20);not null;index"`
	ProviderUserID string       `json:"providerUserId" gorm:"type:varchar(255);not null"`
	Email          string       `json:"email" gorm:"type:varchar(255)"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (LinkedAccount) TableName() string {
	return "linked_accounts"
}
