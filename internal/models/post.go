package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxPostTextLen is the hard limit on post text length.
const MaxPostTextLen = 280

// CommentsPermission controls who may comment under a post.
type CommentsPermission string

const (
	// CommentsAnyone allows any authenticated user to comment.
	CommentsAnyone CommentsPermission = "anyone"
	// CommentsYourFollowers allows only approved followers of the author.
	CommentsYourFollowers CommentsPermission = "your_followers"
	// CommentsFollowing allows only users the author follows.
	CommentsFollowing CommentsPermission = "profiles_you_follow"
	// CommentsMentionedOnly allows only users mentioned in the post text.
	CommentsMentionedOnly CommentsPermission = "mentioned_only"
)

// Valid reports whether p is one of the known permission values.
func (p CommentsPermission) Valid() bool {
	switch p {
	case CommentsAnyone, CommentsYourFollowers, CommentsFollowing, CommentsMentionedOnly:
		return true
	}
	return false
}

// Post represents a thread in the Threads application.
// A post with RepostID set and empty text is a repost; with non-empty
// text it is a quote of the referenced post.
type Post struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	Text               string             `gorm:"type:varchar(280)" json:"text"`
	Image              string             `json:"image"`
	Video              string             `json:"video"`
	CommentsPermission CommentsPermission `gorm:"type:varchar(32);default:'anyone'" json:"comments_permission"`
	UserID             uint               `gorm:"not null;index" json:"user_id"`
	User               User               `gorm:"foreignKey:UserID" json:"user"`
	RepostID           *uint              `gorm:"index" json:"repost_id,omitempty"`
	Repost             *Post              `gorm:"foreignKey:RepostID" json:"repost,omitempty"`
	MentionedUsers     []User             `gorm:"many2many:post_mentions" json:"mentioned_users,omitempty"`
	HashTags           []HashTag          `gorm:"many2many:post_hashtags" json:"hashtags,omitempty"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `json:"date_posted"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsQuote reports whether the post quotes another post with its own text.
func (p *Post) IsQuote() bool {
	return p.RepostID != nil && p.Text != ""
}

// IsRepost reports whether the post is a bare repost.
func (p *Post) IsRepost() bool {
	return p.RepostID != nil && p.Text == ""
}
