package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
)

type SessionHandler struct {
	Auth     *services.AuthService
	Sessions *services.SessionService
	Audit    *services.AuditService
}

func NewSessionHandler(auth *services.AuthService, sessions *services.SessionService, audit *services.AuditService) *SessionHandler {
	return &SessionHandler{Auth: auth, Sessions: sessions, Audit: audit}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return utils.Error(c, fiber.StatusBadRequest, "refreshToken is required")
	}

	pair, session, err := h.Auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionRevoked):
			return utils.Error(c, fiber.StatusUnauthorized, "session has been revoked")
		case errors.Is(err, services.ErrSessionExpired):
			return utils.Error(c, fiber.StatusUnauthorized, "session expired")
		case errors.Is(err, services.ErrInvalidRefreshToken):
			return utils.Error(c, fiber.StatusUnauthorized, "invalid refresh token")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "refresh failed")
		}
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &session.UserID,
		Action:       "session.refresh",
		ResourceType: "session",
		ResourceID:   &session.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	var req logoutRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.RefreshToken == "" {
		return utils.Error(c, fiber.StatusBadRequest, "refreshToken is required")
	}

	if err := h.Auth.Logout(c.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid refresh token")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "logout failed")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

// selfOrAdminTarget resolves the :userId param and checks the caller is
// either that user or an admin. On failure the response has already been
// written and ok is false.
func selfOrAdminTarget(c *fiber.Ctx) (currentUser *models.User, targetID uuid.UUID, ok bool) {
	currentUser = middleware.GetCurrentUser(c)
	if currentUser == nil {
		utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}

	targetID, err := parseUUID(c.Params("userId"))
	if err != nil {
		utils.Error(c, fiber.StatusBadRequest, "invalid user id")
		return nil, uuid.Nil, false
	}

	if currentUser.ID != targetID && currentUser.Role != models.UserRoleAdmin {
		utils.Error(c, fiber.StatusForbidden, "admin access required")
		return nil, uuid.Nil, false
	}

	return currentUser, targetID, true
}

func (h *SessionHandler) LogoutAll(c *fiber.Ctx) error {
	currentUser, targetID, ok := selfOrAdminTarget(c)
	if !ok {
		return nil
	}

	if err := h.Auth.LogoutAll(c.Context(), targetID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed revoking sessions")
	}

	logger.InfoWithUser(currentUser.ID.String(), "sessions_revoked_all", map[string]interface{}{
		"target_user_id": targetID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "session.revoke_all",
		ResourceType: "user",
		ResourceID:   &targetID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "all sessions revoked"})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	_, targetID, ok := selfOrAdminTarget(c)
	if !ok {
		return nil
	}

	sessions, err := h.Sessions.ListActive(c.Context(), targetID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing sessions")
	}

	return utils.Success(c, fiber.StatusOK, sessions)
}
