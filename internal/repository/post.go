// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"github.com/pavelchamgl/analog-threads/internal/cache"
	"github.com/pavelchamgl/analog-threads/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit int, selectedID uint, currentUserID uint) ([]*models.Post, int64, error)
	FollowingFeed(ctx context.Context, userID uint, limit int, selectedID uint) ([]*models.Post, int64, error)
	ForYouFeed(ctx context.Context, userID uint, limit int, selectedID uint) ([]*models.Post, int64, error)
	ByHashtag(ctx context.Context, tagName string, limit int, selectedID uint, currentUserID uint) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	Like(ctx context.Context, userID, postID uint) error
	Unlike(ctx context.Context, userID, postID uint) error
	ReplaceMentions(ctx context.Context, post *models.Post, users []models.User) error
	ReplaceHashTags(ctx context.Context, post *models.Post, tags []models.HashTag) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery + ", false as liked")
}

func (r *postRepository) withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Repost").
		Preload("Repost.User").
		Preload("MentionedUsers").
		Preload("HashTags")
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), currentUserID)).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit int, selectedID uint, currentUserID uint) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), currentUserID)).
		Where("user_id = ?", userID).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit)
	if selectedID > 0 {
		q = q.Where("posts.id <= ?", selectedID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, count, nil
}

// FollowingFeed returns posts authored by users the viewer follows with an
// approved edge, newest first.
func (r *postRepository) FollowingFeed(ctx context.Context, userID uint, limit int, selectedID uint) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var count int64

	followed := r.db.Model(&models.Follow{}).
		Select("followee_id").
		Where("follower_id = ? AND allowed = ?", userID, true)

	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id IN (?)", followed).
		Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), userID)).
		Where("posts.user_id IN (?)", followed).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit)
	if selectedID > 0 {
		q = q.Where("posts.id <= ?", selectedID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, count, nil
}

// ForYouFeed returns posts from public profiles the viewer does not already
// follow, excluding the viewer's own posts. Ordering intentionally ranks
// recency before popularity.
func (r *postRepository) ForYouFeed(ctx context.Context, userID uint, limit int, selectedID uint) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var count int64

	followed := r.db.Model(&models.Follow{}).
		Select("followee_id").
		Where("follower_id = ? AND allowed = ?", userID, true)
	privateAuthors := r.db.Model(&models.User{}).
		Select("id").
		Where("is_private = ?", true)

	base := func(db *gorm.DB) *gorm.DB {
		return db.
			Where("posts.user_id NOT IN (?)", followed).
			Where("posts.user_id <> ?", userID).
			Where("posts.user_id NOT IN (?)", privateAuthors)
	}

	if err := base(r.db.WithContext(ctx).Model(&models.Post{})).Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base(r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), userID))).
		Order("posts.created_at DESC, posts.id DESC, likes_count DESC").
		Limit(limit)
	if selectedID > 0 {
		q = q.Where("posts.id <= ?", selectedID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, count, nil
}

func (r *postRepository) ByHashtag(ctx context.Context, tagName string, limit int, selectedID uint, currentUserID uint) ([]*models.Post, int64, error) {
	var posts []*models.Post
	var count int64

	tagged := r.db.Table("post_hashtags").
		Select("post_hashtags.post_id").
		Joins("JOIN hash_tags ON hash_tags.id = post_hashtags.hash_tag_id").
		Where("LOWER(hash_tags.tag_name) = LOWER(?)", tagName)

	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id IN (?)", tagged).
		Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := r.withAssociations(r.applyPostDetails(r.db.WithContext(ctx), currentUserID)).
		Where("posts.id IN (?)", tagged).
		Order("posts.id DESC, posts.created_at DESC").
		Limit(limit)
	if selectedID > 0 {
		q = q.Where("posts.id <= ?", selectedID)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, count, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) Like(ctx context.Context, userID, postID uint) error {
	// Use INSERT ... ON CONFLICT DO NOTHING to handle race conditions
	// This is atomic and prevents duplicate key errors
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID,
	)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) Unlike(ctx context.Context, userID, postID uint) error {
	// Hard delete the like record (not soft delete)
	err := r.db.WithContext(ctx).Unscoped().Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return nil
}

func (r *postRepository) ReplaceMentions(ctx context.Context, post *models.Post, users []models.User) error {
	if err := r.db.WithContext(ctx).Model(post).Association("MentionedUsers").Replace(users); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ReplaceHashTags(ctx context.Context, post *models.Post, tags []models.HashTag) error {
	if err := r.db.WithContext(ctx).Model(post).Association("HashTags").Replace(tags); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
