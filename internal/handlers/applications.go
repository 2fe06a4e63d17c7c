package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewApplicationHandler(db *gorm.DB, audit *services.AuditService) *ApplicationHandler {
	return &ApplicationHandler{DB: db, Audit: audit}
}

type applyRequest struct {
	Notes *string `json:"notes"`
}

func (h *ApplicationHandler) Apply(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid job id")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ? AND is_active = ?", jobID, true).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "job not found")
	}

	var req applyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	var existing models.Application
	err = h.DB.First(&existing, "job_id = ? AND user_id = ?", jobID, currentUser.ID).Error
	if err == nil {
		return utils.Error(c, fiber.StatusConflict, "already applied to this job")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking application")
	}

	application := models.Application{
		JobID:  jobID,
		UserID: currentUser.ID,
		Status: models.ApplicationStatusApplied,
		Notes:  req.Notes,
	}

	if err := h.DB.Create(&application).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating application")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "application.create",
		ResourceType: "application",
		ResourceID:   &application.ID,
		Details: map[string]interface{}{
			"job_id": jobID.String(),
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, application)
}

func (h *ApplicationHandler) ListMine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	params := utils.ParsePagination(c)

	query := h.DB.Model(&models.Application{}).Where("user_id = ?", currentUser.ID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting applications")
	}

	var applications []models.Application
	if err := utils.ApplyPagination(query.Preload("Job").Order("created_at DESC"), params).
		Find(&applications).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing applications")
	}

	return utils.Paginated(c, applications, params.Page, params.Limit, total)
}
