package service

import (
	"context"
	"strings"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
)

// CommentService manages comments and replies under threads.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	visibility  *VisibilityService
	notifier    Notifier
}

// NewCommentService returns a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	visibility *VisibilityService,
	notifier Notifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		visibility:  visibility,
		notifier:    notifier,
	}
}

// CreateComment adds a comment under a post, subject to the post's
// comments permission. The post author is notified unless commenting on
// their own post; mentioned users are notified as well.
func (s *CommentService) CreateComment(ctx context.Context, userID, postID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text must not be empty")
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.visibility.CanComment(ctx, userID, post)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Comments are restricted on this post")
	}

	comment := &models.Comment{
		Text:   text,
		UserID: userID,
		PostID: postID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.linkMentions(ctx, actor, comment); err != nil {
		return nil, err
	}

	if post.UserID != userID {
		s.notifier.Notify(ctx, newCommentNotification(actor, post, comment))
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// Reply adds a reply to an existing comment. The reply lands on the same
// post as its parent and is gated by that post's comments permission.
func (s *CommentService) Reply(ctx context.Context, userID, commentID uint, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Reply text must not be empty")
	}

	parent, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.visibility.CanReply(ctx, userID, parent)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, models.NewForbiddenError("Comments are restricted on this post")
	}

	reply := &models.Comment{
		Text:    text,
		UserID:  userID,
		PostID:  parent.PostID,
		ReplyID: &parent.ID,
	}
	if err := s.commentRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.linkMentions(ctx, actor, reply); err != nil {
		return nil, err
	}

	if parent.UserID != userID {
		s.notifier.Notify(ctx, newReplyNotification(actor, parent, reply))
	}
	return s.commentRepo.GetByID(ctx, reply.ID)
}

// linkMentions resolves mentioned usernames in the comment text, replaces
// the mention links and notifies each mentioned user.
func (s *CommentService) linkMentions(ctx context.Context, actor *models.User, comment *models.Comment) error {
	mentioned := make([]models.User, 0)
	for _, username := range ExtractMentions(comment.Text) {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if user != nil {
			mentioned = append(mentioned, *user)
		}
	}
	if err := s.commentRepo.ReplaceMentions(ctx, comment, mentioned); err != nil {
		return err
	}
	for _, u := range mentioned {
		if u.ID == actor.ID {
			continue
		}
		s.notifier.Notify(ctx, newMentionNotification(u.ID, actor, comment.PostID, &comment.ID))
	}
	return nil
}

// ListComments returns the comments under a post, newest first, if the
// post is visible to the viewer.
func (s *CommentService) ListComments(ctx context.Context, viewerID, postID uint, limit int, selectedID uint) ([]*models.Comment, int64, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, 0, err
	}
	author, err := s.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, 0, err
	}
	visible, err := s.visibility.ProfileVisible(ctx, viewerID, author)
	if err != nil {
		return nil, 0, err
	}
	if !visible {
		return nil, 0, models.NewNotFoundError("Post", postID)
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, selectedID)
}

// DeleteComment removes the caller's own comment.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}

// LikeToggle likes the comment if the viewer has not liked it, otherwise
// removes the like. Returns the resulting liked state.
func (s *CommentService) LikeToggle(ctx context.Context, userID, commentID uint) (bool, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return false, err
	}

	liked, err := s.commentRepo.IsLiked(ctx, userID, commentID)
	if err != nil {
		return false, err
	}
	if liked {
		if err := s.commentRepo.Unlike(ctx, userID, commentID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.commentRepo.Like(ctx, userID, commentID); err != nil {
		return false, err
	}
	return true, nil
}
