package repository

import (
	"context"
	"errors"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow graph operations.
type FollowRepository interface {
	Create(ctx context.Context, follow *models.Follow) error
	GetEdge(ctx context.Context, followerID, followeeID uint) (*models.Follow, error)
	SetAllowed(ctx context.Context, followID uint, allowed bool) error
	Delete(ctx context.Context, followerID, followeeID uint) error
	ListFollowers(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error)
	ListFollowing(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error)
	ListPendingRequests(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.Follow, int64, error)
	FolloweeIDs(ctx context.Context, followerID uint) ([]uint, error)
	FollowerIDs(ctx context.Context, followeeID uint) ([]uint, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Follow request already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) GetEdge(ctx context.Context, followerID, followeeID uint) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		First(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No edge exists
		}
		return nil, models.NewInternalError(err)
	}
	return &follow, nil
}

func (r *followRepository) SetAllowed(ctx context.Context, followID uint, allowed bool) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("id = ?", followID).
		Update("allowed", allowed).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", followerID)
	}
	return nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error) {
	var users []models.User
	var count int64

	base := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN follows f ON users.id = f.follower_id").
		Where("f.followee_id = ? AND f.allowed = ?", userID, true)

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base.Order("users.id ASC").Limit(limit)
	if selectedID > 0 {
		q = q.Where("users.id >= ?", selectedID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, count, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.User, int64, error) {
	var users []models.User
	var count int64

	base := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN follows f ON users.id = f.followee_id").
		Where("f.follower_id = ? AND f.allowed = ?", userID, true)

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base.Order("users.id ASC").Limit(limit)
	if selectedID > 0 {
		q = q.Where("users.id >= ?", selectedID)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, count, nil
}

func (r *followRepository) ListPendingRequests(ctx context.Context, userID uint, limit int, selectedID uint) ([]models.Follow, int64, error) {
	var follows []models.Follow
	var count int64

	base := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ? AND allowed = ?", userID, false)

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base.Preload("Follower").Order("id ASC").Limit(limit)
	if selectedID > 0 {
		q = q.Where("id >= ?", selectedID)
	}
	if err := q.Find(&follows).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return follows, count, nil
}

// FolloweeIDs returns the ids of users the given user follows with an approved edge.
func (r *followRepository) FolloweeIDs(ctx context.Context, followerID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND allowed = ?", followerID, true).
		Pluck("followee_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// FollowerIDs returns the ids of approved followers of the given user.
func (r *followRepository) FollowerIDs(ctx context.Context, followeeID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ? AND allowed = ?", followeeID, true).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
