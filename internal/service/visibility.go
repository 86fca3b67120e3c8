package service

import (
	"context"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
)

// VisibilityService decides who may see profiles and interact with posts.
type VisibilityService struct {
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
}

// NewVisibilityService returns a new VisibilityService.
func NewVisibilityService(followRepo repository.FollowRepository, postRepo repository.PostRepository) *VisibilityService {
	return &VisibilityService{
		followRepo: followRepo,
		postRepo:   postRepo,
	}
}

// ProfileVisible reports whether the viewer may see the profile's content.
// Public profiles are visible to everyone; private profiles only to their
// owner and approved followers.
func (s *VisibilityService) ProfileVisible(ctx context.Context, viewerID uint, profile *models.User) (bool, error) {
	if !profile.IsPrivate || viewerID == profile.ID {
		return true, nil
	}
	edge, err := s.followRepo.GetEdge(ctx, viewerID, profile.ID)
	if err != nil {
		return false, err
	}
	return edge != nil && edge.Allowed, nil
}

// FollowState classifies the relationship between viewer and profile.
func (s *VisibilityService) FollowState(ctx context.Context, viewerID, profileID uint) (models.FollowState, error) {
	if viewerID == profileID {
		return models.FollowStateSelf, nil
	}

	outgoing, err := s.followRepo.GetEdge(ctx, viewerID, profileID)
	if err != nil {
		return "", err
	}
	incoming, err := s.followRepo.GetEdge(ctx, profileID, viewerID)
	if err != nil {
		return "", err
	}

	viewerFollows := outgoing != nil && outgoing.Allowed
	viewerPending := outgoing != nil && !outgoing.Allowed
	profileFollows := incoming != nil && incoming.Allowed

	switch {
	case viewerFollows && profileFollows:
		return models.FollowStateMutual, nil
	case viewerFollows:
		return models.FollowStateFollowed, nil
	case viewerPending:
		return models.FollowStatePending, nil
	case profileFollows:
		return models.FollowStateFollowsYou, nil
	default:
		return models.FollowStateNone, nil
	}
}

// CanComment reports whether the viewer may comment under the post.
// Unknown permission values deny access.
func (s *VisibilityService) CanComment(ctx context.Context, viewerID uint, post *models.Post) (bool, error) {
	if viewerID == post.UserID {
		return true, nil
	}

	switch post.CommentsPermission {
	case models.CommentsAnyone:
		return true, nil
	case models.CommentsYourFollowers:
		edge, err := s.followRepo.GetEdge(ctx, viewerID, post.UserID)
		if err != nil {
			return false, err
		}
		return edge != nil && edge.Allowed, nil
	case models.CommentsFollowing:
		edge, err := s.followRepo.GetEdge(ctx, post.UserID, viewerID)
		if err != nil {
			return false, err
		}
		return edge != nil && edge.Allowed, nil
	case models.CommentsMentionedOnly:
		for _, u := range post.MentionedUsers {
			if u.ID == viewerID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// CanReply reports whether the viewer may reply to a comment. The gate is
// the comments permission of the post the comment belongs to.
func (s *VisibilityService) CanReply(ctx context.Context, viewerID uint, comment *models.Comment) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, comment.PostID, 0)
	if err != nil {
		return false, err
	}
	return s.CanComment(ctx, viewerID, post)
}
