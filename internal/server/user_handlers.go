package server

import (
	"io"

	"github.com/pavelchamgl/analog-threads/internal/media"
	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/v1/user/profile/:id
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.Context(), currentUserID(c), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(profile)
}

// GetProfileByUsername handles GET /api/v1/user/profile/username/:username
func (s *Server) GetProfileByUsername(c *fiber.Ctx) error {
	username := c.Params("username")

	profile, err := s.userService.GetProfileByUsername(c.Context(), currentUserID(c), username)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(profile)
}

// UpdateMyProfile handles PATCH /api/v1/user/profile/update. Absent
// fields are left untouched.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Bio       *string `json:"bio"`
		Website   *string `json:"website"`
		Location  *string `json:"location"`
		IsPrivate *bool   `json:"is_private"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), userID, service.UpdateProfileInput{
		Bio:       req.Bio,
		Website:   req.Website,
		Location:  req.Location,
		IsPrivate: req.IsPrivate,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}

// UpdateMyPhoto handles PATCH /api/v1/user/profile/photo. The uploaded
// image is re-encoded to WebP before storage.
func (s *Server) UpdateMyPhoto(c *fiber.Ctx) error {
	userID := currentUserID(c)

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("photo file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, media.MaxImageSizeBytes+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	encoded, err := media.EncodeAvatarWebP(content)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	url, err := s.uploader.Upload(c.Context(), encoded, "avatars")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	user, err := s.userService.UpdatePhoto(c.Context(), userID, url)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}

// SearchUsers handles GET /api/v1/search/users/:q
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	query := c.Params("q")
	page := s.parsePagination(c)

	users, count, err := s.feedService.SearchUsers(c.Context(), query, page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	var firstID, lastID uint
	if len(users) > 0 {
		firstID = users[0].ID
		lastID = users[len(users)-1].ID
	}
	return s.respondPage(c, page, count, len(users), firstID, lastID, false, users)
}

// SearchHashtags handles GET /api/v1/search/hashtag/:q
func (s *Server) SearchHashtags(c *fiber.Ctx) error {
	query := c.Params("q")
	page := s.parsePagination(c)

	tags, count, err := s.feedService.SearchHashtags(c.Context(), query, page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	var firstID, lastID uint
	if len(tags) > 0 {
		firstID = tags[0].ID
		lastID = tags[len(tags)-1].ID
	}
	return s.respondPage(c, page, count, len(tags), firstID, lastID, false, tags)
}
