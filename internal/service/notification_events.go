package service

import (
	"context"
	"fmt"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

// Notifier delivers a notification to its owner. Implementations are
// expected to be asynchronous; callers treat delivery as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

// NopNotifier discards notifications. Used in tests.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, *models.Notification) {}

func newThreadNotification(ownerID uint, actor *models.User, post *models.Post) *models.Notification {
	return &models.Notification{
		OwnerID:       ownerID,
		Type:          models.NotificationNewThread,
		Text:          fmt.Sprintf("@%s just posted a new thread!", actor.Username),
		RelatedUserID: &actor.ID,
		RelatedPostID: &post.ID,
	}
}

func newRepostNotification(actor *models.User, original *models.Post) *models.Notification {
	return &models.Notification{
		OwnerID:       original.UserID,
		Type:          models.NotificationNewRepost,
		Text:          fmt.Sprintf("@%s just reposted your thread!", actor.Username),
		RelatedUserID: &actor.ID,
		RelatedPostID: &original.ID,
	}
}

func newQuoteNotification(actor *models.User, original *models.Post) *models.Notification {
	return &models.Notification{
		OwnerID:       original.UserID,
		Type:          models.NotificationNewQuote,
		Text:          fmt.Sprintf("@%s just quoted your thread!", actor.Username),
		RelatedUserID: &actor.ID,
		RelatedPostID: &original.ID,
	}
}

func newSubscriberNotification(actor *models.User, followeeID uint) *models.Notification {
	return &models.Notification{
		OwnerID:       followeeID,
		Type:          models.NotificationNewSubscriber,
		Text:          fmt.Sprintf("@%s just subscribed to you!", actor.Username),
		RelatedUserID: &actor.ID,
	}
}

func subscribeRequestNotification(actor *models.User, followeeID uint) *models.Notification {
	return &models.Notification{
		OwnerID:       followeeID,
		Type:          models.NotificationSubscribeRequest,
		Text:          fmt.Sprintf("@%s wants to subscribe to you!", actor.Username),
		RelatedUserID: &actor.ID,
	}
}

func subscribeAllowedNotification(actor *models.User, followerID uint) *models.Notification {
	return &models.Notification{
		OwnerID:       followerID,
		Type:          models.NotificationSubscribeAllowed,
		Text:          fmt.Sprintf("@%s just allowed your subscription!", actor.Username),
		RelatedUserID: &actor.ID,
	}
}

func newLikeNotification(actor *models.User, post *models.Post) *models.Notification {
	return &models.Notification{
		OwnerID:       post.UserID,
		Type:          models.NotificationNewLike,
		Text:          fmt.Sprintf("@%s just liked your thread!", actor.Username),
		RelatedUserID: &actor.ID,
		RelatedPostID: &post.ID,
	}
}

func newCommentNotification(actor *models.User, post *models.Post, comment *models.Comment) *models.Notification {
	return &models.Notification{
		OwnerID:          post.UserID,
		Type:             models.NotificationNewComment,
		Text:             fmt.Sprintf("@%s just commented on your thread!", actor.Username),
		RelatedUserID:    &actor.ID,
		RelatedPostID:    &post.ID,
		RelatedCommentID: &comment.ID,
	}
}

func newReplyNotification(actor *models.User, parent *models.Comment, reply *models.Comment) *models.Notification {
	return &models.Notification{
		OwnerID:          parent.UserID,
		Type:             models.NotificationNewReply,
		Text:             fmt.Sprintf("@%s just replied to your comment!", actor.Username),
		RelatedUserID:    &actor.ID,
		RelatedPostID:    &reply.PostID,
		RelatedCommentID: &reply.ID,
	}
}

func newMentionNotification(ownerID uint, actor *models.User, postID uint, commentID *uint) *models.Notification {
	return &models.Notification{
		OwnerID:          ownerID,
		Type:             models.NotificationNewMention,
		Text:             fmt.Sprintf("@%s just mentioned you!", actor.Username),
		RelatedUserID:    &actor.ID,
		RelatedPostID:    &postID,
		RelatedCommentID: commentID,
	}
}
