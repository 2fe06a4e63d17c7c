package services

import (
	"context"
	"errors"
	"strings"

	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

// CredentialService decides whether a presented credential proves the claimed
// identity.
type CredentialService struct {
	DB  *gorm.DB
	OTP *OTPService
}

func NewCredentialService(db *gorm.DB, otp *OTPService) *CredentialService {
	return &CredentialService{DB: db, OTP: otp}
}

// VerifyPassword fails uniformly for unknown email and wrong password. The
// unknown-email path burns a bcrypt comparison so both failures sit in the
// same latency class.
func (s *CredentialService) VerifyPassword(ctx context.Context, email, plaintext string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.DB.WithContext(ctx).First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CheckDummyPassword(plaintext)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !user.HasPassword() || !utils.CheckPassword(plaintext, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// VerifyOTPLogin validates the code and resolves the account behind the phone
// number, provisioning one on first login. The isNewUser flag lets the caller
// route to onboarding.
func (s *CredentialService) VerifyOTPLogin(ctx context.Context, phone, code string) (*models.User, bool, error) {
	phone = NormalizePhone(phone)

	if err := s.OTP.Verify(ctx, phone, models.OtpPurposeLogin, code); err != nil {
		return nil, false, err
	}

	var user models.User
	err := s.DB.WithContext(ctx).First(&user, "phone = ?", phone).Error
	if err == nil {
		return &user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user = models.User{
		Phone:        &phone,
		Role:         models.UserRoleUser,
		AuthProvider: models.AuthProviderPhone,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, false, err
	}

	logger.Info("user_provisioned_by_phone", map[string]interface{}{
		"user_id": user.ID.String(),
	})

	return &user, true, nil
}

// ChangeEmail verifies an EMAIL_CHANGE code sent to the new address and swaps
// the email field on the account.
func (s *CredentialService) ChangeEmail(ctx context.Context, user *models.User, newEmail, code string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))

	if err := s.OTP.Verify(ctx, newEmail, models.OtpPurposeEmailChange, code); err != nil {
		return err
	}

	var existing models.User
	err := s.DB.WithContext(ctx).First(&existing, "email = ? AND id <> ?", newEmail, user.ID).Error
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.DB.WithContext(ctx).Model(user).Update("email", newEmail).Error
}
