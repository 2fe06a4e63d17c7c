package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jobport/backend/internal/config"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/pkg/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const googleIssuer = "https://accounts.google.com"

// OAuthService handles the Google authorization-code exchange. The external
// assertion is just one more way to establish identity; downstream it funnels
// into the same session/token issuance as every other login.
type OAuthService struct {
	DB  *gorm.DB
	Cfg config.OAuthConfig

	verifier *oidc.IDTokenVerifier
}

func NewOAuthService(db *gorm.DB, cfg config.OAuthConfig) *OAuthService {
	return &OAuthService{DB: db, Cfg: cfg}
}

func (s *OAuthService) googleConfig() (*oauth2.Config, error) {
	if !s.Cfg.GoogleEnabled {
		return nil, errors.New("google oauth is not enabled")
	}
	return &oauth2.Config{
		ClientID:     s.Cfg.GoogleClientID,
		ClientSecret: s.Cfg.GoogleClientSecret,
		RedirectURL:  s.Cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, nil
}

// AuthCodeURL builds the consent redirect with a fresh state nonce. The
// handler stores the nonce in a short-lived cookie for the callback check.
func (s *OAuthService) AuthCodeURL() (url, state string, err error) {
	cfg, err := s.googleConfig()
	if err != nil {
		return "", "", err
	}

	nonce := make([]byte, 24)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	state = base64.RawURLEncoding.EncodeToString(nonce)

	return cfg.AuthCodeURL(state), state, nil
}

type GoogleProfile struct {
	Subject string
	Email   string
	Name    string
}

// Exchange trades the callback code for tokens and verifies the ID token's
// issuer, audience, and signature against Google's published keys.
func (s *OAuthService) Exchange(ctx context.Context, code string) (*GoogleProfile, error) {
	cfg, err := s.googleConfig()
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		logger.Warn("oauth_exchange_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, errors.New("failed to exchange authorization code")
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in token response")
	}

	if s.verifier == nil {
		provider, err := oidc.NewProvider(ctx, googleIssuer)
		if err != nil {
			return nil, err
		}
		s.verifier = provider.Verifier(&oidc.Config{ClientID: s.Cfg.GoogleClientID})
	}

	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id token")
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}

	return &GoogleProfile{
		Subject: idToken.Subject,
		Email:   strings.ToLower(claims.Email),
		Name:    claims.Name,
	}, nil
}

// FindOrCreateUser resolves the local account for a verified Google profile,
// linking the external identity and provisioning an account when none exists.
func (s *OAuthService) FindOrCreateUser(ctx context.Context, profile *GoogleProfile) (*models.User, error) {
	var user models.User

	err := s.DB.WithContext(ctx).First(&user, "email = ?", profile.Email).Error
	if err == nil {
		s.link(ctx, &user, profile)
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	externalID := profile.Subject
	user = models.User{
		Email:        &profile.Email,
		Name:         profile.Name,
		Role:         models.UserRoleUser,
		AuthProvider: models.AuthProviderGoogle,
		ExternalID:   &externalID,
	}
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	s.link(ctx, &user, profile)

	logger.Info("oauth_user_created", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   profile.Email,
	})

	return &user, nil
}

func (s *OAuthService) link(ctx context.Context, user *models.User, profile *GoogleProfile) {
	linked := models.LinkedAccount{
		UserID:         user.ID,
		Provider:       models.AuthProviderGoogle,
		ProviderUserID: profile.Subject,
		Email:          profile.Email,
	}
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND provider = ?", user.ID, models.AuthProviderGoogle).
		FirstOrCreate(&linked).Error; err != nil {
		logger.Warn("oauth_link_account_failed", map[string]interface{}{
			"user_id": user.ID.String(),
			"error":   err.Error(),
		})
	}
}
