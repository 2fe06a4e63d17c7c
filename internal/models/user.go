package models

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// AuthProvider records which flow created the account. It is fixed at creation:
// a phone-provisioned account never grows a password hash through this model.
type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "local"
	AuthProviderPhone  AuthProvider = "phone"
	AuthProviderGoogle AuthProvider = "google"
)

type User struct {
	BaseModel
	Email        *string      `json:"email,omitempty" gorm:"type:varchar(255);uniqueIndex"`
	Phone        *string      `json:"phone,omitempty" gorm:"type:varchar(20);uniqueIndex"`
	PasswordHash *string      `json:"-" gorm:"type:text"`
	Name         string       `json:"name" gorm:"type:varchar(200)"`
	Role         UserRole     `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	AuthProvider AuthProvider `json:"authProvider" gorm:"type:varchar(20);not null"`
	ExternalID   *string      `json:"-" gorm:"type:varchar(255);index"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can authenticate with a password.
// Phone-only and OAuth-only accounts have no hash at all.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
