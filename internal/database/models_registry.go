package database

import "github.com/pavelchamgl/analog-threads/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.CommentLike{},
		&models.HashTag{},
		&models.Notification{},
		&models.OTP{},
	}
}
