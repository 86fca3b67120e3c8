package server

import (
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/v1/post/:postId/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}
	page := s.parsePagination(c)

	comments, count, err := s.commentService.ListComments(c.Context(), currentUserID(c), postID, page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	var firstID, lastID uint
	if len(comments) > 0 {
		firstID = comments[0].ID
		lastID = comments[len(comments)-1].ID
	}
	return s.respondPage(c, page, count, len(comments), firstID, lastID, true, comments)
}

// CreateComment handles POST /api/v1/post/:postId/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), currentUserID(c), postID, req.Text)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ReplyComment handles POST /api/v1/post/comments/:commentId/reply
func (s *Server) ReplyComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.commentService.Reply(c.Context(), currentUserID(c), commentID, req.Text)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

// DeleteComment handles DELETE /api/v1/post/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.Context(), currentUserID(c), commentID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// LikeUnlikeComment handles PATCH /api/v1/post/comments/like_unlike/:commentId
func (s *Server) LikeUnlikeComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	liked, err := s.commentService.LikeToggle(c.Context(), currentUserID(c), commentID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"liked": liked})
}
