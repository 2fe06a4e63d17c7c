package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jobport/backend/internal/models"
	"github.com/jobport/backend/internal/services"
	"github.com/jobport/backend/pkg/logger"
	"github.com/jobport/backend/pkg/utils"
)

type OTPHandler struct {
	OTP   *services.OTPService
	Auth  *services.AuthService
	Audit *services.AuditService
}

func NewOTPHandler(otp *services.OTPService, auth *services.AuthService, audit *services.AuditService) *OTPHandler {
	return &OTPHandler{OTP: otp, Auth: auth, Audit: audit}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

func (h *OTPHandler) SendPhoneOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	phone := services.NormalizePhone(req.Phone)
	if phone == "" {
		return utils.Error(c, fiber.StatusBadRequest, "phone is required")
	}

	challenge, err := h.OTP.Request(c.Context(), phone, models.OtpPurposeLogin)
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

	logger.Info("otp_requested", map[string]interface{}{
		"purpose": string(models.OtpPurposeLogin),
		"ip":      c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		Action:       "otp.request",
		ResourceType: "otp_challenge",
		ResourceID:   &challenge.ID,
		Details: map[string]interface{}{
			"purpose": string(models.OtpPurposeLogin),
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":   "verification code sent",
		"expiresAt": challenge.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (h *OTPHandler) VerifyPhoneOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.OTP = strings.TrimSpace(req.OTP)
	if req.Phone == "" || req.OTP == "" {
		return utils.Error(c, fiber.StatusBadRequest, "phone and otp are required")
	}

	result, err := h.Auth.LoginWithOTP(c.Context(), req.Phone, req.OTP, clientFingerprint(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOTPNotFound):
			return utils.Error(c, fiber.StatusNotFound, "verification code not found")
		case errors.Is(err, services.ErrOTPExpired):
			return utils.Error(c, fiber.StatusBadRequest, "verification code expired")
		case errors.Is(err, services.ErrOTPMismatch):
			attemptsLeft := h.OTP.AttemptsRemaining(c.Context(), services.NormalizePhone(req.Phone), models.OtpPurposeLogin)
			return utils.ErrorWithData(c, fiber.StatusBadRequest, "invalid verification code", fiber.Map{
				"attemptsLeft": attemptsLeft,
			})
		case errors.Is(err, services.ErrOTPAttemptsExceeded):
			return utils.Error(c, fiber.StatusBadRequest, "too many incorrect attempts")
		default:
			return utils.Error(c, fiber.StatusInternalServerError, "verification failed")
		}
	}

	logger.InfoWithUser(result.User.ID.String(), "otp_login", map[string]interface{}{
		"session_id":  result.Session.ID.String(),
		"is_new_user": result.IsNewUser,
		"ip":          c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &result.User.ID,
		Action:       "user.login_otp",
		ResourceType: "session",
		ResourceID:   &result.Session.ID,
		Details: map[string]interface{}{
			"is_new_user": result.IsNewUser,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"accessToken":  result.Pair.AccessToken,
		"refreshToken": result.Pair.RefreshToken,
		"sessionId":    result.Session.ID,
		"user":         result.User,
		"isNewUser":    result.IsNewUser,
	})
}
