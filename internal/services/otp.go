package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/jobport/backend/internal/config"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/logger"
	"gorm.io/gorm"
)

// OTPService issues, rate-limits, and verifies one-time codes. Requests for
// the same (destination, purpose) pair are serialized through a keyed mutex so
// cooldown and attempt counters cannot be corrupted by concurrent calls.
type OTPService struct {
	DB     *gorm.DB
	Sender CodeSender
	Cfg    config.OTPConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOTPService(db *gorm.DB, sender CodeSender, cfg config.OTPConfig) *OTPService {
	return &OTPService{
		DB:     db,
		Sender: sender,
		Cfg:    cfg,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *OTPService) keyLock(destination string, purpose models.OtpPurpose) *sync.Mutex {
	key := destination + "|" + string(purpose)
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	return lock
}

// Request creates a fresh challenge for the destination, superseding any prior
// one, and dispatches the code through the sender. When dispatch fails the
// returned challenge is still valid and err is ErrDeliveryFailed: the caller
// may resend after the cooldown window.
func (s *OTPService) Request(ctx context.Context, destination string, purpose models.OtpPurpose) (*models.OtpChallenge, error) {
	destination = NormalizeDestination(destination)

	lock := s.keyLock(destination, purpose)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()

	var existing models.OtpChallenge
	err := s.DB.WithContext(ctx).
		First(&existing, "destination = ? AND purpose = ?", destination, purpose).Error
	if err == nil {
		if !existing.Expired(now) && now.Sub(existing.CreatedAt) < s.Cfg.ResendCooldown {
			return nil, ErrRateLimited
		}
		if err := s.DB.WithContext(ctx).Unscoped().Delete(&existing).Error; err != nil {
			return nil, err
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	code, err := generateNumericCode(s.Cfg.CodeLength)
	if err != nil {
		return nil, err
	}

	challenge := models.OtpChallenge{
		Destination:       destination,
		Purpose:           purpose,
		Code:              code,
		ExpiresAt:         now.Add(s.Cfg.Lifetime),
		AttemptsRemaining: s.Cfg.MaxAttempts,
	}

	if err := s.DB.WithContext(ctx).Create(&challenge).Error; err != nil {
		return nil, err
	}

	message := loginCodeMessage(code)
	if purpose == models.OtpPurposeEmailChange {
		message = emailChangeCodeMessage(code)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.Cfg.DeliveryTimeout)
	defer cancel()

	if err := s.Sender.Send(sendCtx, destination, message); err != nil {
		logger.Warn("otp_delivery_failed", map[string]interface{}{
			"destination": destination,
			"purpose":     string(purpose),
			"error":       err.Error(),
		})
		return &challenge, ErrDeliveryFailed
	}

	return &challenge, nil
}

// Verify consumes the challenge on success. A second call with the same
// correct code returns ErrOTPNotFound.
func (s *OTPService) Verify(ctx context.Context, destination string, purpose models.OtpPurpose, code string) error {
	destination = NormalizeDestination(destination)

	lock := s.keyLock(destination, purpose)
	lock.Lock()
	defer lock.Unlock()

	var challenge models.OtpChallenge
	err := s.DB.WithContext(ctx).
		First(&challenge, "destination = ? AND purpose = ?", destination, purpose).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOTPNotFound
	}
	if err != nil {
		return err
	}

	if challenge.Expired(time.Now()) {
		if err := s.DB.WithContext(ctx).Unscoped().Delete(&challenge).Error; err != nil {
			return err
		}
		return ErrOTPExpired
	}

	if challenge.AttemptsRemaining <= 0 {
		return ErrOTPAttemptsExceeded
	}

	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(code)) != 1 {
		challenge.AttemptsRemaining--
		if err := s.DB.WithContext(ctx).Model(&challenge).
			Update("attempts_remaining", challenge.AttemptsRemaining).Error; err != nil {
			return err
		}
		return ErrOTPMismatch
	}

	if err := s.DB.WithContext(ctx).Unscoped().Delete(&challenge).Error; err != nil {
		return err
	}

	return nil
}

// AttemptsRemaining reports the budget left on a live challenge, for the
// "wrong code, N attempts left" client message.
func (s *OTPService) AttemptsRemaining(ctx context.Context, destination string, purpose models.OtpPurpose) int {
	destination = NormalizeDestination(destination)

	var challenge models.OtpChallenge
	err := s.DB.WithContext(ctx).
		First(&challenge, "destination = ? AND purpose = ?", destination, purpose).Error
	if err != nil {
		return 0
	}
	return challenge.AttemptsRemaining
}

// SweepExpired reclaims storage for lapsed challenges. Correctness never
// depends on it: expiry is checked at read time.
func SweepExpiredChallenges(db *gorm.DB) {
	db.Unscoped().Where("expires_at < ?", time.Now()).Delete(&models.OtpChallenge{})
}

func generateNumericCode(length int) (string, error) {
	bound := big.NewInt(1)
	for i := 0; i < length; i++ {
		bound.Mul(bound, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// NormalizeDestination canonicalizes a phone number or email address. It must
// be applied identically at request and verify time or legitimate
// verifications would spuriously fail.
func NormalizeDestination(destination string) string {
	destination = strings.TrimSpace(destination)
	if strings.Contains(destination, "@") {
		return strings.ToLower(destination)
	}
	return NormalizePhone(destination)
}

// NormalizePhone strips separators and applies the default +91 country code
// the client assumes for bare 10-digit numbers.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return cleaned
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	// Domestic trunk prefix.
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "0") {
		cleaned = cleaned[1:]
	}
	return "+91" + cleaned
}
