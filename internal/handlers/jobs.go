package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/utils"
	"gorm.io/gorm"
)

type JobHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewJobHandler(db *gorm.DB, audit *services.AuditService) *JobHandler {
	return &JobHandler{DB: db, Audit: audit}
}

func (h *JobHandler) List(c *fiber.Ctx) error {
	params := utils.ParsePagination(c)

	query := h.DB.Model(&models.Job{}).Where("is_active = ?", true)
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		query = query.Where("city = ?", city)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting jobs")
	}

	var jobs []models.Job
	if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&jobs).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing jobs")
	}

	return utils.Paginated(c, jobs, params.Page, params.Limit, total)
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid job id")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "job not found")
	}

	return utils.Success(c, fiber.StatusOK, job)
}

type jobRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	City        string `json:"city"`
	Description string `json:"description"`
	SalaryMin   *int   `json:"salaryMin"`
	SalaryMax   *int   `json:"salaryMax"`
	IsActive    *bool  `json:"isActive"`
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Company = strings.TrimSpace(req.Company)
	if req.Title == "" || req.Company == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title and company are required")
	}

	job := models.Job{
		Title:       req.Title,
		Company:     req.Company,
		City:        strings.TrimSpace(req.City),
		Description: req.Description,
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		IsActive:    true,
		PostedByID:  currentUser.ID,
	}
	if req.IsActive != nil {
		job.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&job).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating job")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "job.create",
		ResourceType: "job",
		ResourceID:   &job.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusCreated, job)
}

func (h *JobHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid job id")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "job not found")
	}

	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if title := strings.TrimSpace(req.Title); title != "" {
		updates["title"] = title
	}
	if company := strings.TrimSpace(req.Company); company != "" {
		updates["company"] = company
	}
	if city := strings.TrimSpace(req.City); city != "" {
		updates["city"] = city
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.SalaryMin != nil {
		updates["salary_min"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		updates["salary_max"] = *req.SalaryMax
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&job).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating job")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "job.update",
		ResourceType: "job",
		ResourceID:   &job.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, job)
}

func (h *JobHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid job id")
	}

	var job models.Job
	if err := h.DB.First(&job, "id = ?", id).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "job not found")
	}

	if err := h.DB.Delete(&job).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting job")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "job.delete",
		ResourceType: "job",
		ResourceID:   &job.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "job deleted"})
}
