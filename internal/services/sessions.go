package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/logger"
	"gorm.io/gorm"
)

// SessionService is the authoritative list of live sessions per user. It never
// references tokens: the TokenService holds the only pointer in the other
// direction.
type SessionService struct {
	DB              *gorm.DB
	SessionLifetime time.Duration

	denyMu   sync.Mutex
	denylist map[uuid.UUID]time.Time
	denyTTL  time.Duration
}

func NewSessionService(db *gorm.DB, sessionLifetime, denyTTL time.Duration) *SessionService {
	return &SessionService{
		DB:              db,
		SessionLifetime: sessionLifetime,
		denylist:        make(map[uuid.UUID]time.Time),
		denyTTL:         denyTTL,
	}
}

// Create always succeeds; concurrent sessions are not capped. Any number of
// devices may be logged in at once.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID, fingerprint string) (*models.Session, error) {
	now := time.Now()
	session := models.Session{
		UserID:            userID,
		RefreshTokenHash:  uuid.New().String(), // placeholder until the token service binds a real hash
		ClientFingerprint: fingerprint,
		ExpiresAt:         now.Add(s.SessionLifetime),
		LastSeenAt:        now,
	}

	if err := s.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

// ListActive returns non-revoked, non-expired sessions, most recently seen
// first. It is a snapshot, not a cursor.
func (s *SessionService) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, time.Now()).
		Order("last_seen_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Get distinguishes unknown sessions from known-but-dead ones so callers can
// tell "token is garbage" from "you were logged out".
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := s.DB.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke is idempotent: revoking an already-revoked session is a no-op.
func (s *SessionService) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if !session.Revoked {
		if err := s.DB.WithContext(ctx).Model(session).Update("revoked", true).Error; err != nil {
			return err
		}
	}

	s.deny(sessionID)
	return nil
}

// RevokeAll kills every session for the user in one statement.
func (s *SessionService) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	live, err := s.ListActive(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).
		Update("revoked", true).Error; err != nil {
		return err
	}

	for _, session := range live {
		s.deny(session.ID)
	}

	logger.Info("sessions_revoked_all", map[string]interface{}{
		"user_id": userID.String(),
		"count":   len(live),
	})
	return nil
}

// Touch bumps last_seen_at; used on successful refresh for the session-list
// "last active" display.
func (s *SessionService) Touch(ctx context.Context, sessionID uuid.UUID) error {
	result := s.DB.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("last_seen_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// deny records a freshly revoked session id so still-unexpired access tokens
// bound to it are rejected without a registry lookup on every request.
func (s *SessionService) deny(sessionID uuid.UUID) {
	now := time.Now()
	s.denyMu.Lock()
	defer s.denyMu.Unlock()
	s.denylist[sessionID] = now
	for id, revokedAt := range s.denylist {
		if now.Sub(revokedAt) > s.denyTTL {
			delete(s.denylist, id)
		}
	}
}

// IsDenied reports whether the session was revoked within the denylist TTL.
// Entries older than the access-token lifetime are dropped: by then every
// token naming the session has expired on its own.
func (s *SessionService) IsDenied(sessionID uuid.UUID) bool {
	s.denyMu.Lock()
	defer s.denyMu.Unlock()
	revokedAt, ok := s.denylist[sessionID]
	if !ok {
		return false
	}
	if time.Since(revokedAt) > s.denyTTL {
		delete(s.denylist, sessionID)
		return false
	}
	return true
}

// StartSweep launches a periodic reclaim of expired sessions and challenges.
// It is storage hygiene only; expiry is always checked at read time.
func (s *SessionService) StartSweep(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			s.DB.Unscoped().
				Where("expires_at < ?", time.Now().Add(-24*time.Hour)).
				Delete(&models.Session{})
			SweepExpiredChallenges(s.DB)
		}
	}()
}
