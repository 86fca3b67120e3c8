package service

import (
	"context"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
)

// FollowService manages the follow graph: subscribing, approval of
// requests to private profiles and listing both sides of the edge.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifier Notifier) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// Follow subscribes follower to followee. Following a public profile takes
// effect immediately; following a private profile creates a pending request
// the followee must approve. Returns the resulting edge.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	if followerID == followeeID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}

	followee, err := s.userRepo.GetByID(ctx, followeeID)
	if err != nil {
		return nil, err
	}
	follower, err := s.userRepo.GetByID(ctx, followerID)
	if err != nil {
		return nil, err
	}

	follow := &models.Follow{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Allowed:    !followee.IsPrivate,
	}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		return nil, err
	}

	if follow.Allowed {
		s.notifier.Notify(ctx, newSubscriberNotification(follower, followeeID))
	} else {
		s.notifier.Notify(ctx, subscribeRequestNotification(follower, followeeID))
	}
	return follow, nil
}

// Unfollow removes the viewer's edge towards the followee, whether it was
// approved or still pending.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return s.followRepo.Delete(ctx, followerID, followeeID)
}

// RemoveFollower deletes the incoming edge, kicking a follower off the
// user's audience.
func (s *FollowService) RemoveFollower(ctx context.Context, userID, followerID uint) error {
	return s.followRepo.Delete(ctx, followerID, userID)
}

// ApproveRequest accepts a pending follow request addressed to userID.
func (s *FollowService) ApproveRequest(ctx context.Context, userID, followerID uint) error {
	edge, err := s.followRepo.GetEdge(ctx, followerID, userID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Allowed {
		return models.NewNotFoundError("Follow request", followerID)
	}
	if err := s.followRepo.SetAllowed(ctx, edge.ID, true); err != nil {
		return err
	}

	owner, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	s.notifier.Notify(ctx, subscribeAllowedNotification(owner, followerID))
	return nil
}

// DeclineRequest rejects a pending follow request addressed to userID.
// The requester is not notified.
func (s *FollowService) DeclineRequest(ctx context.Context, userID, followerID uint) error {
	edge, err := s.followRepo.GetEdge(ctx, followerID, userID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Allowed {
		return models.NewNotFoundError("Follow request", followerID)
	}
	return s.followRepo.Delete(ctx, followerID, userID)
}

// Followers lists the approved followers of userID.
func (s *FollowService) Followers(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error) {
	return s.followRepo.ListFollowers(ctx, userID, limit, selectedID)
}

// Following lists the users userID follows with an approved edge.
func (s *FollowService) Following(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error) {
	return s.followRepo.ListFollowing(ctx, userID, limit, selectedID)
}

// PendingRequests lists the follow requests awaiting the user's decision.
func (s *FollowService) PendingRequests(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.Follow, int64, error) {
	return s.followRepo.ListPendingRequests(ctx, userID, limit, selectedID)
}
