package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

func TestFollowStateClassification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice", false)
	bob := env.createUser(t, "bob", false)
	carol := env.createUser(t, "carol", true)
	dave := env.createUser(t, "dave", false)

	// alice <-> bob mutual; alice -> carol pending; dave -> alice approved.
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: true}))
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: bob.ID, FolloweeID: alice.ID, Allowed: true}))
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: carol.ID, Allowed: false}))
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: dave.ID, FolloweeID: alice.ID, Allowed: true}))

	tests := []struct {
		name      string
		viewer    uint
		profile   uint
		wantState models.FollowState
	}{
		{name: "self", viewer: alice.ID, profile: alice.ID, wantState: models.FollowStateSelf},
		{name: "mutual", viewer: alice.ID, profile: bob.ID, wantState: models.FollowStateMutual},
		{name: "pending", viewer: alice.ID, profile: carol.ID, wantState: models.FollowStatePending},
		{name: "follows you", viewer: alice.ID, profile: dave.ID, wantState: models.FollowStateFollowsYou},
		{name: "followed one way", viewer: dave.ID, profile: alice.ID, wantState: models.FollowStateFollowed},
		{name: "none", viewer: dave.ID, profile: bob.ID, wantState: models.FollowStateNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := env.visibility.FollowState(ctx, tt.viewer, tt.profile)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, state)

			// Mutual is the one symmetric state: it must hold from both
			// sides, and no asymmetric pair may report it.
			swapped, err := env.visibility.FollowState(ctx, tt.profile, tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState == models.FollowStateMutual, swapped == models.FollowStateMutual)
		})
	}
}

func TestProfileVisible(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	open := env.createUser(t, "open", false)
	closed := env.createUser(t, "closed", true)
	viewer := env.createUser(t, "viewer", false)

	visible, err := env.visibility.ProfileVisible(ctx, viewer.ID, open)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = env.visibility.ProfileVisible(ctx, viewer.ID, closed)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = env.visibility.ProfileVisible(ctx, closed.ID, closed)
	require.NoError(t, err)
	assert.True(t, visible)

	// Pending follow is not enough.
	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: viewer.ID, FolloweeID: closed.ID, Allowed: false}))
	visible, err = env.visibility.ProfileVisible(ctx, viewer.ID, closed)
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, env.follows.SetAllowed(ctx, mustEdgeID(t, env, viewer.ID, closed.ID), true))
	visible, err = env.visibility.ProfileVisible(ctx, viewer.ID, closed)
	require.NoError(t, err)
	assert.True(t, visible)
}

func mustEdgeID(t *testing.T, env *testEnv, followerID, followeeID uint) uint {
	t.Helper()
	edge, err := env.follows.GetEdge(context.Background(), followerID, followeeID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	return edge.ID
}

func TestCanCommentUnknownPermissionDenies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	viewer := env.createUser(t, "viewer", false)

	post := &models.Post{Text: "odd", UserID: author.ID, CommentsPermission: "made_up_value"}
	require.NoError(t, env.posts.Create(ctx, post))

	ok, err := env.visibility.CanComment(ctx, viewer.ID, post)
	require.NoError(t, err)
	assert.False(t, ok)

	// The author can always comment regardless of permission value.
	ok, err = env.visibility.CanComment(ctx, author.ID, post)
	require.NoError(t, err)
	assert.True(t, ok)
}
