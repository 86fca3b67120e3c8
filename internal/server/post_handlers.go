package server

import (
	"io"
	"strings"

	"github.com/pavelchamgl/analog-threads/internal/media"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/v1/post. It accepts either a JSON body
// with already-hosted media URLs or a multipart form with a "media" file
// that is validated and uploaded here.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := currentUserID(c)

	input, err := s.parsePostInput(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.Context(), userID, *input)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// parsePostInput extracts post fields from a JSON or multipart request.
// On failure it writes the error response and returns errResponseWritten.
func (s *Server) parsePostInput(c *fiber.Ctx) (*service.CreatePostInput, error) {
	if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		input := service.CreatePostInput{
			Text:               c.FormValue("text"),
			CommentsPermission: models.CommentsPermission(c.FormValue("comments_permission")),
		}

		fileHeader, err := c.FormFile("media")
		if err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				_ = models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Could not read uploaded file"))
				return nil, errResponseWritten
			}
			defer file.Close()

			content, err := io.ReadAll(io.LimitReader(file, media.MaxVideoSizeBytes+1))
			if err != nil {
				_ = models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
				return nil, errResponseWritten
			}

			kind, err := media.ValidateUpload(content)
			if err != nil {
				_ = models.RespondWithError(c, models.StatusForError(err), err)
				return nil, errResponseWritten
			}

			url, err := s.uploader.Upload(c.Context(), content, "posts")
			if err != nil {
				_ = models.RespondWithError(c, fiber.StatusInternalServerError,
					models.NewInternalError(err))
				return nil, errResponseWritten
			}

			switch kind {
			case media.KindImage:
				input.Image = url
			case media.KindVideo:
				input.Video = url
			}
		}
		return &input, nil
	}

	var req struct {
		Text               string `json:"text"`
		Image              string `json:"image"`
		Video              string `json:"video"`
		CommentsPermission string `json:"comments_permission"`
	}
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return nil, errResponseWritten
	}
	return &service.CreatePostInput{
		Text:               req.Text,
		Image:              req.Image,
		Video:              req.Video,
		CommentsPermission: models.CommentsPermission(req.CommentsPermission),
	}, nil
}

// GetPost handles GET /api/v1/post/:postId
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(post)
}

// UpdatePost handles PATCH /api/v1/post/:postId
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Text               string `json:"text"`
		CommentsPermission string `json:"comments_permission"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), currentUserID(c), postID,
		req.Text, models.CommentsPermission(req.CommentsPermission))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/v1/post/:postId
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), currentUserID(c), postID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// GetMyPosts handles GET /api/v1/post
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return s.respondUserPosts(c, userID, userID)
}

// GetUserPosts handles GET /api/v1/post/user/:userId
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	profileID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	return s.respondUserPosts(c, currentUserID(c), profileID)
}

func (s *Server) respondUserPosts(c *fiber.Ctx, viewerID, profileID uint) error {
	page := s.parsePagination(c)

	posts, count, err := s.postService.UserPosts(c.Context(), viewerID, profileID, page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return s.respondPostPage(c, page, count, posts)
}

// LikeUnlikePost handles PATCH /api/v1/post/like_unlike/:postId
func (s *Server) LikeUnlikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	liked, err := s.postService.LikeToggle(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"liked": liked})
}

// Repost handles POST /api/v1/post/:postId/repost
func (s *Server) Repost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postService.Repost(c.Context(), currentUserID(c), postID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// Quote handles POST /api/v1/post/:postId/quote
func (s *Server) Quote(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	input, err := s.parsePostInput(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.Quote(c.Context(), currentUserID(c), postID, *input)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// PostsByHashtag handles GET /api/v1/post/by_hashtag/:tagName
func (s *Server) PostsByHashtag(c *fiber.Ctx) error {
	tagName := c.Params("tagName")
	page := s.parsePagination(c)

	posts, count, err := s.feedService.ByHashtag(c.Context(), currentUserID(c), tagName, page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}
	return s.respondPostPage(c, page, count, posts)
}

// respondPostPage writes a descending post listing in the standard
// pagination envelope.
func (s *Server) respondPostPage(c *fiber.Ctx, page Pagination, count int64, posts []*models.Post) error {
	var firstID, lastID uint
	if len(posts) > 0 {
		firstID = posts[0].ID
		lastID = posts[len(posts)-1].ID
	}
	return s.respondPage(c, page, count, len(posts), firstID, lastID, true, posts)
}
