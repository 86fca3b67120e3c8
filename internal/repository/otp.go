package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OTPRepository stores one-time passwords keyed by (user, flow).
type OTPRepository interface {
	Upsert(ctx context.Context, userID uint, title models.OTPTitle, value int, expiredDate time.Time) error
	Get(ctx context.Context, userID uint, title models.OTPTitle) (*models.OTP, error)
	Delete(ctx context.Context, userID uint, title models.OTPTitle) error
}

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

// Upsert overwrites any previous code for the same (user, flow) pair and
// extends the expiry window.
func (r *otpRepository) Upsert(ctx context.Context, userID uint, title models.OTPTitle, value int, expiredDate time.Time) error {
	otp := models.OTP{
		UserID:      userID,
		Title:       title,
		Value:       value,
		ExpiredDate: expiredDate,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expired_date", "updated_at"}),
	}).Create(&otp).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *otpRepository) Get(ctx context.Context, userID uint, title models.OTPTitle) (*models.OTP, error) {
	var otp models.OTP
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		First(&otp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("OTP", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &otp, nil
}

func (r *otpRepository) Delete(ctx context.Context, userID uint, title models.OTPTitle) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		Delete(&models.OTP{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
