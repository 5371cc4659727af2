// Package http provides inbound HTTP handlers.
package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// userIDFromCtx returns the authenticated user id set by the JWT middleware.
func userIDFromCtx(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	return userID, ok
}

// queryInt parses an integer query parameter with bounds. Out-of-range and
// malformed values fall back to def.
func queryInt(c *fiber.Ctx, key string, def, min, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || v > max {
		return def
	}
	return v
}
