package server

import (
	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/v1/user/profile/follow. Following a
// private profile creates a pending request instead of an edge.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	followeeID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	follow, err := s.followService.Follow(c.Context(), currentUserID(c), followeeID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(follow)
}

// UnfollowUser handles POST /api/v1/user/profile/unfollow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	followeeID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.Context(), currentUserID(c), followeeID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Unfollowed"})
}

// RemoveFollower handles POST /api/v1/user/profile/delete, removing the
// given user from the authenticated user's followers.
func (s *Server) RemoveFollower(c *fiber.Ctx) error {
	followerID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	if err := s.followService.RemoveFollower(c.Context(), currentUserID(c), followerID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Follower removed"})
}

// AllowFollowRequest handles POST /api/v1/user/profile/follow_requests/allow
func (s *Server) AllowFollowRequest(c *fiber.Ctx) error {
	followerID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	if err := s.followService.ApproveRequest(c.Context(), currentUserID(c), followerID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Follow request approved"})
}

// DeclineFollowRequest handles POST /api/v1/user/profile/follow_requests/decline
func (s *Server) DeclineFollowRequest(c *fiber.Ctx) error {
	followerID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	if err := s.followService.DeclineRequest(c.Context(), currentUserID(c), followerID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{"message": "Follow request declined"})
}

// MutualFollow handles POST /api/v1/user/profile/mutual_follow, returning
// the viewer's relationship to the given user.
func (s *Server) MutualFollow(c *fiber.Ctx) error {
	otherID, err := s.bodyUserID(c)
	if err != nil {
		return nil
	}

	state, err := s.visibility.FollowState(c.Context(), currentUserID(c), otherID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(fiber.Map{
		"follow_state": state,
		"mutual":       state == models.FollowStateMutual,
	})
}

// GetFollowers handles GET /api/v1/user/profile/followers/:id
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requireProfileVisible(c, id); err != nil {
		return nil
	}
	page := s.parsePagination(c)

	users, count, err := s.followService.Followers(c.Context(), id, page.PageSize, page.SelectedID)
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

// GetFollowing handles GET /api/v1/user/profile/follows/:id
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.requireProfileVisible(c, id); err != nil {
		return nil
	}
	page := s.parsePagination(c)

	users, count, err := s.followService.Following(c.Context(), id, page.PageSize, page.SelectedID)
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

// GetFollowRequests handles GET /api/v1/user/profile/follow_requests,
// listing follows of the authenticated user still awaiting approval.
func (s *Server) GetFollowRequests(c *fiber.Ctx) error {
	page := s.parsePagination(c)

	requests, count, err := s.followService.PendingRequests(c.Context(), currentUserID(c), page.PageSize, page.SelectedID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	var firstID, lastID uint
	if len(requests) > 0 {
		firstID = requests[0].ID
		lastID = requests[len(requests)-1].ID
	}
	return s.respondPage(c, page, count, len(requests), firstID, lastID, false, requests)
}

// requireProfileVisible writes a 403 and returns errResponseWritten when
// the viewer may not see the given profile's social graph.
func (s *Server) requireProfileVisible(c *fiber.Ctx, profileID uint) error {
	viewerID := currentUserID(c)
	user, err := s.userRepo.GetByID(c.Context(), profileID)
	if err != nil {
		_ = models.RespondWithError(c, models.StatusForError(err), err)
		return errResponseWritten
	}

	visible, err := s.visibility.ProfileVisible(c.Context(), viewerID, user)
	if err != nil {
		_ = models.RespondWithError(c, models.StatusForError(err), err)
		return errResponseWritten
	}
	if !visible {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("This profile is private"))
		return errResponseWritten
	}
	return nil
}
