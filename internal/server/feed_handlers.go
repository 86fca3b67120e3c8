package server

import (
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FeedFollowing handles GET /api/v1/feed/following, newest threads from
// the accounts the viewer follows.
func (s *Server) FeedFollowing(c *fiber.Ctx) error {
	page := s.parsePagination(c)

	posts, count, err := s.feedService.Following(c.Context(), currentUserID(c), page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return s.respondPostPage(c, page, count, posts)
}

// FeedForYou handles GET /api/v1/feed/for_you, discovery threads from
// public accounts the viewer does not follow.
func (s *Server) FeedForYou(c *fiber.Ctx) error {
	page := s.parsePagination(c)

	posts, count, err := s.feedService.ForYou(c.Context(), currentUserID(c), page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return s.respondPostPage(c, page, count, posts)
}
