package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

// TokenPair is what every successful login or refresh hands back to a client.
// The refresh token exists in plaintext only here, in flight; the registry
// keeps its SHA-256 digest.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService mints and validates token pairs and enforces that a token is
// only as valid as its backing session.
//
// Revocation staleness: access-token validation is local (signature + expiry)
// plus a check of the session denylist. A revoked session's outstanding access
// tokens are therefore rejected immediately within this process; across a
// restart the residual window is bounded by the access-token lifetime.
type TokenService struct {
	DB       *gorm.DB
	Sessions *SessionService
}

func NewTokenService(db *gorm.DB, sessions *SessionService) *TokenService {
	return &TokenService{DB: db, Sessions: sessions}
}

const refreshTokenPrefix = "jp_"

func generateRefreshToken() (plaintext, hash string, err error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	plaintext = refreshTokenPrefix + hex.EncodeToString(raw)
	hash = hashRefreshToken(plaintext)
	return plaintext, hash, nil
}

func hashRefreshToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Issue binds a fresh pair to the session. The plaintext refresh token is
// returned exactly once; it cannot be recovered from the registry.
func (s *TokenService) Issue(ctx context.Context, user *models.User, session *models.Session) (*TokenPair, error) {
	refreshToken, refreshHash, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Model(session).
		Update("refresh_token_hash", refreshHash).Error; err != nil {
		return nil, err
	}
	session.RefreshTokenHash = refreshHash

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, email, string(user.Role), session.ID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a live refresh token for a new pair, rotating the stored
// hash. Rotation is a conditional write: of two concurrent calls presenting
// the same token, exactly one wins and the other sees ErrInvalidRefreshToken.
func (s *TokenService) Refresh(ctx context.Context, presented string) (*TokenPair, *models.Session, error) {
	presentedHash := hashRefreshToken(presented)

	var session models.Session
	err := s.DB.WithContext(ctx).
		First(&session, "refresh_token_hash = ?", presentedHash).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, nil, err
	}

	if session.Revoked {
		return nil, nil, ErrSessionRevoked
	}
	if session.Expired(time.Now()) {
		return nil, nil, ErrSessionExpired
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, nil, err
	}

	newToken, newHash, err := generateRefreshToken()
	if err != nil {
		return nil, nil, err
	}

	// Compare-and-swap on the stored hash: the losing concurrent refresh
	// matches zero rows and its stale token is treated as forged.
	result := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token_hash = ? AND revoked = ?", session.ID, presentedHash, false).
		Updates(map[string]interface{}{
			"refresh_token_hash": newHash,
			"last_seen_at":       time.Now(),
		})
	if result.Error != nil {
		return nil, nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil, ErrInvalidRefreshToken
	}
	session.RefreshTokenHash = newHash

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	accessToken, err := utils.GenerateAccessToken(user.ID, email, string(user.Role), session.ID)
	if err != nil {
		return nil, nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newToken}, &session, nil
}

// ValidateAccess checks signature and expiry locally, then rejects tokens
// whose session was recently revoked.
func (s *TokenService) ValidateAccess(tokenString string) (*utils.Claims, error) {
	claims, err := utils.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	if s.Sessions.IsDenied(claims.SessionID) {
		return claims, ErrSessionRevoked
	}

	return claims, nil
}

// SessionByRefreshToken resolves the backing session for logout, without
// rotating anything.
func (s *TokenService) SessionByRefreshToken(ctx context.Context, presented string) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).
		First(&session, "refresh_token_hash = ?", hashRefreshToken(presented)).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
