package service

import (
	"context"
	"strings"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
)

// CreatePostInput carries the fields accepted when creating a thread.
// Image and Video are already-uploaded media URLs; at most one may be set.
type CreatePostInput struct {
	Text               string
	Image              string
	Video              string
	CommentsPermission models.CommentsPermission
}

// PostService manages threads: creation, reposts, quotes, likes and
// visibility-gated reads.
type PostService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	hashtagRepo repository.HashTagRepository
	visibility  *VisibilityService
	notifier    Notifier
}

// NewPostService returns a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	hashtagRepo repository.HashTagRepository,
	visibility *VisibilityService,
	notifier Notifier,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
		hashtagRepo: hashtagRepo,
		visibility:  visibility,
		notifier:    notifier,
	}
}

func validatePostText(text string) error {
	if len([]rune(text)) > models.MaxPostTextLen {
		return models.NewValidationError("Post text must not exceed 280 characters")
	}
	return nil
}

// CreatePost creates a new thread, links its mentions and hashtags and
// fans a new_thread notification out to the author's approved followers.
func (s *PostService) CreatePost(ctx context.Context, userID uint, input CreatePostInput) (*models.Post, error) {
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" && input.Image == "" && input.Video == "" {
		return nil, models.NewValidationError("Post must contain text or media")
	}
	if err := validatePostText(input.Text); err != nil {
		return nil, err
	}
	if input.Image != "" && input.Video != "" {
		return nil, models.NewValidationError("Post may contain an image or a video, not both")
	}
	if input.CommentsPermission == "" {
		input.CommentsPermission = models.CommentsAnyone
	}
	if !input.CommentsPermission.Valid() {
		return nil, models.NewValidationError("Unknown comments permission")
	}

	author, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:               input.Text,
		Image:              input.Image,
		Video:              input.Video,
		CommentsPermission: input.CommentsPermission,
		UserID:             userID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	mentioned, err := s.linkAssociations(ctx, post)
	if err != nil {
		return nil, err
	}

	for _, u := range mentioned {
		if u.ID == userID {
			continue
		}
		s.notifier.Notify(ctx, newMentionNotification(u.ID, author, post.ID, nil))
	}

	followerIDs, err := s.followRepo.FollowerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range followerIDs {
		s.notifier.Notify(ctx, newThreadNotification(id, author, post))
	}

	return s.postRepo.GetByID(ctx, post.ID, userID)
}

// UpdatePost edits the text or comments permission of the caller's own
// thread and recomputes its mentions and hashtags.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint, text string, permission models.CommentsPermission) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}
	text = strings.TrimSpace(text)
	if err := validatePostText(text); err != nil {
		return nil, err
	}
	if post.IsRepost() && text != "" {
		return nil, models.NewValidationError("A repost cannot carry text")
	}
	if permission != "" {
		if !permission.Valid() {
			return nil, models.NewValidationError("Unknown comments permission")
		}
		post.CommentsPermission = permission
	}
	post.Text = text
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if _, err := s.linkAssociations(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// linkAssociations resolves the post text's mentions to existing users and
// its hashtags to tag rows, replacing previous links. Unknown usernames
// are skipped. Returns the mentioned users.
func (s *PostService) linkAssociations(ctx context.Context, post *models.Post) ([]models.User, error) {
	mentioned := make([]models.User, 0)
	for _, username := range ExtractMentions(post.Text) {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if user != nil {
			mentioned = append(mentioned, *user)
		}
	}
	if err := s.postRepo.ReplaceMentions(ctx, post, mentioned); err != nil {
		return nil, err
	}

	tags := make([]models.HashTag, 0)
	for _, name := range ExtractHashtags(post.Text) {
		tag, err := s.hashtagRepo.GetOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	if err := s.postRepo.ReplaceHashTags(ctx, post, tags); err != nil {
		return nil, err
	}
	return mentioned, nil
}

// GetPost returns a single thread if its author's profile is visible to
// the viewer.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, post.UserID)
	if err != nil {
		return nil, err
	}
	visible, err := s.visibility.ProfileVisible(ctx, viewerID, author)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// UserPosts lists threads authored by profileID, newest first, gated on
// the profile's visibility to the viewer.
func (s *PostService) UserPosts(ctx context.Context, viewerID, profileID uint, limit int, selectedID uint) ([]*models.Post, int64, error) {
	profile, err := s.userRepo.GetByID(ctx, profileID)
	if err != nil {
		return nil, 0, err
	}
	visible, err := s.visibility.ProfileVisible(ctx, viewerID, profile)
	if err != nil {
		return nil, 0, err
	}
	if !visible {
		return nil, 0, models.NewForbiddenError("This profile is private")
	}
	return s.postRepo.GetByUserID(ctx, profileID, limit, selectedID, viewerID)
}

// DeletePost removes the caller's own thread.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// LikeToggle likes the post if the viewer has not liked it, otherwise
// removes the like. Returns the resulting liked state. Liking someone
// else's post notifies its author.
func (s *PostService) LikeToggle(ctx context.Context, userID, postID uint) (bool, error) {
	post, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return false, err
	}

	liked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if liked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := s.postRepo.Like(ctx, userID, postID); err != nil {
		return false, err
	}
	if post.UserID != userID {
		actor, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return true, err
		}
		s.notifier.Notify(ctx, newLikeNotification(actor, post))
	}
	return true, nil
}

// Repost creates a bare repost of the target thread and notifies its
// author.
func (s *PostService) Repost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	original, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	repost := &models.Post{
		UserID:             userID,
		RepostID:           &original.ID,
		CommentsPermission: models.CommentsAnyone,
	}
	if err := s.postRepo.Create(ctx, repost); err != nil {
		return nil, err
	}

	if original.UserID != userID {
		actor, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.notifier.Notify(ctx, newRepostNotification(actor, original))
	}
	return s.postRepo.GetByID(ctx, repost.ID, userID)
}

// Quote creates a thread of its own that references the target. Unlike a
// repost, a quote must carry text.
func (s *PostService) Quote(ctx context.Context, userID, postID uint, input CreatePostInput) (*models.Post, error) {
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		return nil, models.NewValidationError("Quote text must not be empty")
	}
	if err := validatePostText(input.Text); err != nil {
		return nil, err
	}
	if input.Image != "" && input.Video != "" {
		return nil, models.NewValidationError("Post may contain an image or a video, not both")
	}
	if input.CommentsPermission == "" {
		input.CommentsPermission = models.CommentsAnyone
	}
	if !input.CommentsPermission.Valid() {
		return nil, models.NewValidationError("Unknown comments permission")
	}

	original, err := s.GetPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	quote := &models.Post{
		Text:               input.Text,
		Image:              input.Image,
		Video:              input.Video,
		CommentsPermission: input.CommentsPermission,
		UserID:             userID,
		RepostID:           &original.ID,
	}
	if err := s.postRepo.Create(ctx, quote); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	mentioned, err := s.linkAssociations(ctx, quote)
	if err != nil {
		return nil, err
	}
	for _, u := range mentioned {
		if u.ID == userID {
			continue
		}
		s.notifier.Notify(ctx, newMentionNotification(u.ID, actor, quote.ID, nil))
	}

	if original.UserID != userID {
		s.notifier.Notify(ctx, newQuoteNotification(actor, original))
	}
	return s.postRepo.GetByID(ctx, quote.ID, userID)
}
