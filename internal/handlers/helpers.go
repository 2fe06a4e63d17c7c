package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

func getRequestID(c *fiber.Ctx) string {
	value := c.Locals("requestID")
	if value == nil {
		return ""
	}
	id, ok := value.(string)
	if !ok {
		return ""
	}
	return id
}

// clientFingerprint is stored alongside the session so users can tell their
// devices apart in the active-sessions list.
func clientFingerprint(c *fiber.Ctx) string {
	agent := strings.TrimSpace(c.Get("User-Agent"))
	if agent == "" {
		return "unknown"
	}
	if len(agent) > 255 {
		agent = agent[:255]
	}
	return agent
}
