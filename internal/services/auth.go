package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/logger"
)

// AuthService is the façade over the credential verifier, session registry,
// and token service. Every login mechanism converges on the same
// create-session + issue-pair path so each produces an identical token and
// session shape downstream.
type AuthService struct {
	Credentials *CredentialService
	Sessions    *SessionService
	Tokens      *TokenService
	OAuth       *OAuthService
}

func NewAuthService(credentials *CredentialService, sessions *SessionService, tokens *TokenService, oauth *OAuthService) *AuthService {
	return &AuthService{
		Credentials: credentials,
		Sessions:    sessions,
		Tokens:      tokens,
		OAuth:       oauth,
	}
}

// LoginResult is what every successful login flow returns.
type LoginResult struct {
	User      *models.User
	Session   *models.Session
	Pair      *TokenPair
	IsNewUser bool
}

// StartSession registers a session for an already-authenticated user and
// mints its first token pair.
func (s *AuthService) StartSession(ctx context.Context, user *models.User, fingerprint string) (*models.Session, *TokenPair, error) {
	session, err := s.Sessions.Create(ctx, user.ID, fingerprint)
	if err != nil {
		return nil, nil, err
	}

	// A mint failure below leaves an orphan session: it is never returned to
	// any caller and lapses by expiry, so no partial state is observable.
	pair, err := s.Tokens.Issue(ctx, user, session)
	if err != nil {
		return nil, nil, err
	}

	return session, pair, nil
}

func (s *AuthService) LoginWithPassword(ctx context.Context, email, password, fingerprint string) (*LoginResult, error) {
	user, err := s.Credentials.VerifyPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, pair, err := s.StartSession(ctx, user, fingerprint)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Session: session, Pair: pair}, nil
}

func (s *AuthService) LoginWithOTP(ctx context.Context, phone, code, fingerprint string) (*LoginResult, error) {
	user, isNewUser, err := s.Credentials.VerifyOTPLogin(ctx, phone, code)
	if err != nil {
		return nil, err
	}

	session, pair, err := s.StartSession(ctx, user, fingerprint)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Session: session, Pair: pair, IsNewUser: isNewUser}, nil
}

// CompleteOAuthCallback accepts a verified external assertion and funnels it
// into the same issuance path as every other login method.
func (s *AuthService) CompleteOAuthCallback(ctx context.Context, code, fingerprint string) (*LoginResult, error) {
	profile, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	user, err := s.OAuth.FindOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}

	session, pair, err := s.StartSession(ctx, user, fingerprint)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Session: session, Pair: pair}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *models.Session, error) {
	return s.Tokens.Refresh(ctx, refreshToken)
}

// Logout resolves the backing session from the refresh token and revokes it.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.Tokens.SessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	if err := s.Sessions.Revoke(ctx, session.ID); err != nil {
		return err
	}

	logger.Info("user_logout", map[string]interface{}{
		"user_id":    session.UserID.String(),
		"session_id": session.ID.String(),
	})
	return nil
}

// LogoutAll serves both self-service "log out everywhere" and admin-forced
// logout; the role check on the latter lives at the handler layer.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.Sessions.RevokeAll(ctx, userID)
}
