package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

// AdminHandler serves the admin console: user list/detail plus per-user
// session inspection and forced revocation.
type AdminHandler struct {
	DB       *gorm.DB
	Sessions *services.SessionService
	Audit    *services.AuditService
}

func NewAdminHandler(db *gorm.DB, sessions *services.SessionService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{DB: db, Sessions: sessions, Audit: audit}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	params := utils.ParsePagination(c)

	query := h.DB.Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, params.Page, params.Limit, total)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

func (h *AdminHandler) GetUserSessions(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	sessions, err := h.Sessions.ListActive(c.Context(), user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing sessions")
	}

	return utils.Success(c, fiber.StatusOK, sessions)
}

func (h *AdminHandler) RevokeUserSessions(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "user not found")
	}

	if err := h.Sessions.RevokeAll(c.Context(), user.ID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed revoking sessions")
	}

	logger.InfoWithUser(admin.ID.String(), "admin_sessions_revoked", map[string]interface{}{
		"target_user_id": user.ID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &admin.ID,
		Action:       "admin.session_revoke_all",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "all sessions revoked"})
}

func (h *AdminHandler) RevokeUserSession(c *fiber.Ctx) error {
	admin := middleware.GetCurrentUser(c)

	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	sessionID, err := parseUUID(c.Params("sid"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid session id")
	}

	session, err := h.Sessions.Get(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return utils.Error(c, fiber.StatusNotFound, "session not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading session")
	}
	if session.UserID != userID {
		return utils.Error(c, fiber.StatusNotFound, "session not found")
	}

	if err := h.Sessions.Revoke(c.Context(), sessionID); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed revoking session")
	}

	logger.InfoWithUser(admin.ID.String(), "admin_session_revoked", map[string]interface{}{
		"target_user_id": userID.String(),
		"session_id":     sessionID.String(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &admin.ID,
		Action:       "admin.session_revoke",
		ResourceType: "session",
		ResourceID:   &sessionID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "session revoked"})
}
