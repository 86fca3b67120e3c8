package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/pavelchamgl/analog-threads/internal/cache"
	"github.com/pavelchamgl/analog-threads/internal/models"

	"gorm.io/gorm"
)

// HashTagRepository defines the interface for hashtag data operations
type HashTagRepository interface {
	GetOrCreate(ctx context.Context, tagName string) (*models.HashTag, error)
	GetByName(ctx context.Context, tagName string) (*models.HashTag, error)
	Search(ctx context.Context, query string, limit int, selectedID uint) ([]models.HashTag, int64, error)
}

type hashTagRepository struct {
	db *gorm.DB
}

// NewHashTagRepository creates a new hashtag repository
func NewHashTagRepository(db *gorm.DB) HashTagRepository {
	return &hashTagRepository{db: db}
}

func (r *hashTagRepository) GetOrCreate(ctx context.Context, tagName string) (*models.HashTag, error) {
	tagName = strings.ToLower(tagName)
	var tag models.HashTag
	err := r.db.WithContext(ctx).Where("tag_name = ?", tagName).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewInternalError(err)
	}

	tag = models.HashTag{TagName: tagName}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		// Concurrent create of the same tag; fetch the winner.
		if isUniqueConstraintError(err) {
			if err := r.db.WithContext(ctx).Where("tag_name = ?", tagName).First(&tag).Error; err != nil {
				return nil, models.NewInternalError(err)
			}
			return &tag, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &tag, nil
}

func (r *hashTagRepository) GetByName(ctx context.Context, tagName string) (*models.HashTag, error) {
	var tag models.HashTag
	key := cache.HashtagKey(strings.ToLower(tagName))

	// Tags are never renamed, so cache-aside needs no invalidation.
	err := cache.Aside(ctx, key, &tag, cache.HashtagTTL, func() error {
		if err := r.db.WithContext(ctx).Where("LOWER(tag_name) = LOWER(?)", tagName).First(&tag).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("HashTag", tagName)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *hashTagRepository) Search(ctx context.Context, query string, limit int, selectedID uint) ([]models.HashTag, int64, error) {
	var tags []models.HashTag
	var count int64

	base := r.db.WithContext(ctx).Model(&models.HashTag{}).
		Where("LOWER(tag_name) LIKE LOWER(?)", "%"+query+"%")

	if err := base.Count(&count).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	q := base.Order("id ASC").Limit(limit)
	if selectedID > 0 {
		q = q.Where("id >= ?", selectedID)
	}
	if err := q.Find(&tags).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return tags, count, nil
}
