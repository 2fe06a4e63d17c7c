package handlers

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/middleware"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/utils"
)

// ProfileHandler covers the email-change flow: a code is sent to the new
// address and verifying it swaps the email on the account.
type ProfileHandler struct {
	OTP         *services.OTPService
	Credentials *services.CredentialService
	Audit       *services.AuditService
}

func NewProfileHandler(otp *services.OTPService, credentials *services.CredentialService, audit *services.AuditService) *ProfileHandler {
	return &ProfileHandler{OTP: otp, Credentials: credentials, Audit: audit}
}

type sendEmailOTPRequest struct {
	Email string `json:"email"`
}

func (h *ProfileHandler) SendEmailOTP(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req sendEmailOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if currentUser.Email != nil && *currentUser.Email == req.Email {
		return utils.Error(c, fiber.StatusBadRequest, "email is unchanged")
	}

	challenge, err := h.OTP.Request(c.Context(), req.Email, models.OtpPurposeEmailChange)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRateLimited):
			return utils.Error(c, fiber.StatusTooManyRequests, "otp requested too recently")
		case errors.Is(err, services.ErrDeliveryFailed):
			return utils.Error(c, fiber.StatusBadGateway, "failed to deliver code")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed to create verification code")
		}
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "otp.request_email_change",
		ResourceType: "otp_challenge",
		ResourceID:   &challenge.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":   "verification code sent",
		"expiresAt": challenge.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type verifyEmailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *ProfileHandler) VerifyEmailOTP(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req verifyEmailOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and otp are required")
	}

	if err := h.Credentials.ChangeEmail(c.Context(), currentUser, req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, services.ErrOTPNotFound):
			return utils.Error(c, fiber.StatusNotFound, "verification code not found")
		case errors.Is(err, services.ErrOTPExpired):
			return utils.Error(c, fiber.StatusBadRequest, "verification code expired")
		case errors.Is(err, services.ErrOTPMismatch):
			attemptsLeft := h.OTP.AttemptsRemaining(c.Context(), req.Email, models.OtpPurposeEmailChange)
			return utils.ErrorWithData(c, fiber.StatusBadRequest, "invalid verification code", fiber.Map{
				"attemptsLeft": attemptsLeft,
			})
		case errors.Is(err, services.ErrOTPAttemptsExceeded):
			return utils.Error(c, fiber.StatusBadRequest, "too many incorrect attempts")
		case errors.Is(err, services.ErrEmailTaken):
			return utils.Error(c, fiber.StatusConflict, "email already registered")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating email")
		}
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "user.email_change",
		ResourceType: "user",
		ResourceID:   &currentUser.ID,
		Details: map[string]interface{}{
			"new_email": req.Email,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message": "email updated",
		"email":   req.Email,
	})
}
