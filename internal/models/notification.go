package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates the events a user can be notified about.
type NotificationType string

const (
	NotificationTest             NotificationType = "test"
	NotificationNewThread        NotificationType = "new_thread"
	NotificationNewRepost        NotificationType = "new_repost"
	NotificationNewQuote         NotificationType = "new_quote"
	NotificationNewSubscriber    NotificationType = "new_subscriber"
	NotificationSubscribeRequest NotificationType = "subscribe_request"
	NotificationSubscribeAllowed NotificationType = "subscribe_allowed"
	NotificationNewLike          NotificationType = "new_like"
	NotificationNewComment       NotificationType = "new_comment"
	NotificationNewMention       NotificationType = "new_mention"
	NotificationNewReply         NotificationType = "new_reply"
)

// Notification is a persisted copy of an event delivered to a user.
// The same Text and Type are published over the user's realtime channel.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	OwnerID          uint             `gorm:"not null;index" json:"owner_id"`
	Type             NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Text             string           `gorm:"not null" json:"text"`
	RelatedUserID    *uint            `json:"related_user_id,omitempty"`
	RelatedPostID    *uint            `json:"related_post_id,omitempty"`
	RelatedCommentID *uint            `json:"related_comment_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}
