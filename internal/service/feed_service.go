package service

import (
	"context"
	"strings"

	"github.com/pavelchamgl/analog-threads/internal/models"
	"github.com/pavelchamgl/analog-threads/internal/repository"
)

// FeedService assembles the home feeds and search listings.
type FeedService struct {
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	hashtagRepo repository.HashTagRepository
}

// NewFeedService returns a new FeedService.
func NewFeedService(postRepo repository.PostRepository, userRepo repository.UserRepository, hashtagRepo repository.HashTagRepository) *FeedService {
	return &FeedService{
		postRepo:    postRepo,
		userRepo:    userRepo,
		hashtagRepo: hashtagRepo,
	}
}

// Following returns threads from authors the viewer follows, newest first.
func (s *FeedService) Following(ctx context.Context, viewerID uint, limit int, selectedID uint) ([]*models.Post, int64, error) {
	return s.postRepo.FollowingFeed(ctx, viewerID, limit, selectedID)
}

// ForYou returns discoverable threads from public profiles the viewer
// does not follow yet.
func (s *FeedService) ForYou(ctx context.Context, viewerID uint, limit int, selectedID uint) ([]*models.Post, int64, error) {
	return s.postRepo.ForYouFeed(ctx, viewerID, limit, selectedID)
}

// ByHashtag returns threads tagged with the given hashtag. The lookup is
// case insensitive; an unknown tag is a not found error.
func (s *FeedService) ByHashtag(ctx context.Context, viewerID uint, tagName string, limit int, selectedID uint) ([]*models.Post, int64, error) {
	tagName = strings.TrimPrefix(strings.TrimSpace(tagName), "#")
	if tagName == "" {
		return nil, 0, models.NewValidationError("Hashtag must not be empty")
	}
	if _, err := s.hashtagRepo.GetByName(ctx, tagName); err != nil {
		return nil, 0, err
	}
	return s.postRepo.ByHashtag(ctx, tagName, limit, selectedID, viewerID)
}

// SearchUsers finds users whose username contains the query.
func (s *FeedService) SearchUsers(ctx context.Context, query string, limit int, selectedID uint) ([]models.User, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, models.NewValidationError("Search query must not be empty")
	}
	return s.userRepo.SearchByUsername(ctx, query, limit, selectedID)
}

// SearchHashtags finds hashtags whose name contains the query.
func (s *FeedService) SearchHashtags(ctx context.Context, query string, limit int, selectedID uint) ([]models.HashTag, int64, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "#")
	if query == "" {
		return nil, 0, models.NewValidationError("Search query must not be empty")
	}
	return s.hashtagRepo.Search(ctx, query, limit, selectedID)
}
