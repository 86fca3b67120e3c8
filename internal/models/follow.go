package models

import (
	"time"
)

// FollowState classifies the relationship between a viewer and a profile.
type FollowState string

const (
	// FollowStateSelf means the viewer is looking at their own profile.
	FollowStateSelf FollowState = "You"
	// FollowStateNone means neither side follows the other.
	FollowStateNone FollowState = "Not Followed"
	// FollowStateFollowed means the viewer follows the profile (approved).
	FollowStateFollowed FollowState = "Followed"
	// FollowStatePending means the viewer's follow awaits approval.
	FollowStatePending FollowState = "Pending"
	// FollowStateFollowsYou means only the profile follows the viewer.
	FollowStateFollowsYou FollowState = "Follow in response"
	// FollowStateMutual means both approved edges exist.
	FollowStateMutual FollowState = "Mutual Follow"
)

// Follow represents a directed follow edge between two users.
// Allowed is false while a follow of a private profile awaits approval.
// The (follower, followee) pair is unique at the storage level so a
// concurrent double-follow cannot create two edges.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_edge" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_edge;index:idx_follows_followee" json:"followee_id"`
	Allowed    bool      `gorm:"default:false;index" json:"allowed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Relationships
	Follower User `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}
