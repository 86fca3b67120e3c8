package server

import (
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/v1/notifications, newest first.
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := s.parsePagination(c)

	rows, count, err := s.notificationService.List(c.Context(), currentUserID(c), page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	var firstID, lastID uint
	if len(rows) > 0 {
		firstID = rows[0].ID
		lastID = rows[len(rows)-1].ID
	}
	return s.respondPage(c, page, count, len(rows), firstID, lastID, true, rows)
}

// SendTestNotification handles POST /api/v1/notifications/test. It pushes
// a test notification through the full dispatch pipeline back to the
// caller, useful for verifying a websocket connection end to end.
func (s *Server) SendTestNotification(c *fiber.Ctx) error {
	// In production the endpoint stays dark unless explicitly rolled out.
	if s.config.Env == "production" && !s.flags.Enabled("test_notifications", currentUserID(c)) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Test notifications are disabled"))
	}

	var req struct {
		Text string `json:"text"`
	}
	_ = c.BodyParser(&req)

	s.notificationService.SendTest(c.Context(), currentUserID(c), req.Text)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "Test notification queued"})
}
