package models

import (
	"time"
)

// HashTag represents a unique hashtag extracted from post text.
type HashTag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TagName   string    `gorm:"unique;not null" json:"tag_name"`
	CreatedAt time.Time `json:"created_at"`

	Posts []Post `gorm:"many2many:post_hashtags" json:"posts,omitempty"`
}
