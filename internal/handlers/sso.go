package handlers

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/config"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
)

const oauthStateCookie = "oauth_state"

type SSOHandler struct {
	Cfg   *config.Config
	OAuth *services.OAuthService
	Auth  *services.AuthService
	Audit *services.AuditService
}

func NewSSOHandler(cfg *config.Config, oauth *services.OAuthService, auth *services.AuthService, audit *services.AuditService) *SSOHandler {
	return &SSOHandler{Cfg: cfg, OAuth: oauth, Auth: auth, Audit: audit}
}

func (h *SSOHandler) GoogleRedirect(c *fiber.Ctx) error {
	authCodeURL, state, err := h.OAuth.AuthCodeURL()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	}

	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.Redirect(authCodeURL, fiber.StatusTemporaryRedirect)
}

func (h *SSOHandler) GoogleCallback(c *fiber.Ctx) error {
	frontendURL := h.Cfg.Server.FrontendURL

	code := c.Query("code")
	state := c.Query("state")

	if code == "" {
		return c.Redirect(frontendURL + "/login?error=" + url.QueryEscape("authorization code is required"))
	}
	if state == "" || state != c.Cookies(oauthStateCookie) {
		logger.Warn("oauth_state_mismatch", map[string]interface{}{
			"ip": c.IP(),
		})
		return c.Redirect(frontendURL + "/login?error=" + url.QueryEscape("invalid state"))
	}
	c.ClearCookie(oauthStateCookie)

	result, err := h.Auth.CompleteOAuthCallback(c.Context(), code, clientFingerprint(c))
	if err != nil {
		logger.Warn("oauth_callback_failed", map[string]interface{}{
			"ip":    c.IP(),
			"error": err.Error(),
		})
		return c.Redirect(frontendURL + "/login?error=" + url.QueryEscape("sign-in failed"))
	}

	logger.InfoWithUser(result.User.ID.String(), "oauth_login", map[string]interface{}{
		"session_id": result.Session.ID.String(),
		"provider":   "google",
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &result.User.ID,
		Action:       "user.login_oauth",
		ResourceType: "session",
		ResourceID:   &result.Session.ID,
		Details: map[string]interface{}{
			"provider": "google",
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	// Tokens travel in the fragment so they never hit server logs on the
	// frontend side.
	fragment := "accessToken=" + url.QueryEscape(result.Pair.AccessToken) +
		"&refreshToken=" + url.QueryEscape(result.Pair.RefreshToken)
	return c.Redirect(frontendURL + "/auth/callback#" + fragment)
}
