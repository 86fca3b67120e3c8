package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/v1/feature_flags. It returns the
// evaluated flag status for the authenticated user so clients can gate
// rollout features without re-implementing bucket math.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.flags.Snapshot(currentUserID(c))})
}
