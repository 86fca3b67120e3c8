package server

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed page_size/selected_id query parameters.
// SelectedID is a cursor: listings return rows at or below it (descending
// order) or at or above it (ascending order); zero means "from the start".
type Pagination struct {
	PageSize   int
	SelectedID uint
}

// parsePagination extracts page_size and selected_id query parameters,
// clamping page_size to the configured maximum.
func (s *Server) parsePagination(c *fiber.Ctx) Pagination {
	pageSize := c.QueryInt("page_size", s.config.DefaultPageSize)
	if pageSize <= 0 {
		pageSize = s.config.DefaultPageSize
	}
	if pageSize > s.config.MaxPageSize {
		pageSize = s.config.MaxPageSize
	}

	selectedID := c.QueryInt("selected_id", 0)
	if selectedID < 0 {
		selectedID = 0
	}

	return Pagination{
		PageSize:   pageSize,
		SelectedID: uint(selectedID),
	}
}

// pageLinks carries the next/previous cursor URLs of a paginated response.
type pageLinks struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// pageEnvelope is the wire format of every paginated listing.
type pageEnvelope struct {
	Links   pageLinks `json:"links"`
	Count   int64     `json:"count"`
	Results any       `json:"results"`
}

// respondPage writes a paginated envelope. firstID and lastID are the IDs of
// the first and last rows of the current page (zero when the page is empty);
// descending tells which direction the listing is ordered in so the next
// cursor can be derived from lastID.
func (s *Server) respondPage(c *fiber.Ctx, page Pagination, count int64, resultCount int, firstID, lastID uint, descending bool, results any) error {
	env := pageEnvelope{Count: count, Results: results}

	if resultCount == page.PageSize && lastID > 0 {
		var nextID uint
		if descending {
			if lastID > 1 {
				nextID = lastID - 1
			}
		} else {
			nextID = lastID + 1
		}
		if nextID > 0 {
			link := pageURL(c, page.PageSize, nextID)
			env.Links.Next = &link
		}
	}

	// A previous page only exists when this one was reached via a cursor.
	if page.SelectedID != 0 && firstID > 0 {
		var prevID uint
		if descending {
			prevID = firstID + uint(page.PageSize)
		} else if firstID > uint(page.PageSize) {
			prevID = firstID - uint(page.PageSize)
		}
		if prevID > 0 {
			link := pageURL(c, page.PageSize, prevID)
			env.Links.Previous = &link
		}
	}

	return c.JSON(env)
}

func pageURL(c *fiber.Ctx, pageSize int, selectedID uint) string {
	return fmt.Sprintf("%s%s?page_size=%d&selected_id=%d", c.BaseURL(), c.Path(), pageSize, selectedID)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		prefix := param[:len(param)-2]
		words := splitCamel(prefix)
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// currentUserID reads the authenticated user's ID placed in locals by
// AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	userID, _ := c.Locals("userID").(uint)
	return userID
}

// bodyUserID parses a JSON body of the form {"user_id": N}. On failure it
// writes a 400 response and returns errResponseWritten.
func (s *Server) bodyUserID(c *fiber.Ctx) (uint, error) {
	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
		return 0, errResponseWritten
	}
	return req.UserID, nil
}
