package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment under a post. A comment with ReplyID set
// is a reply to another comment on the same post.
type Comment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Text           string         `gorm:"not null" json:"text"`
	UserID         uint           `gorm:"not null" json:"user_id"`
	PostID         uint           `gorm:"not null;index" json:"post_id"`
	ReplyID        *uint          `gorm:"index" json:"reply_id,omitempty"`
	User           User           `gorm:"foreignKey:UserID" json:"user"`
	Post           Post           `gorm:"foreignKey:PostID" json:"post,omitempty"`
	Reply          *Comment       `gorm:"foreignKey:ReplyID" json:"reply,omitempty"`
	MentionedUsers []User         `gorm:"many2many:comment_mentions" json:"mentioned_users,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int            `gorm:"->" json:"likes_count"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
