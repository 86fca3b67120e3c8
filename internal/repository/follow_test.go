package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, name string, private bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:  name,
		Email:     fmt.Sprintf("%s@example.com", name),
		Password:  "hashed",
		IsPrivate: private,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func TestFollowRepository_CreateRejectsDuplicateEdge(t *testing.T) {
	truncateTables(testDB)
	repo := NewFollowRepository(testDB)
	ctx := context.Background()

	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: true}))

	err := repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: true})
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestFollowRepository_SetAllowed(t *testing.T) {
	truncateTables(testDB)
	repo := NewFollowRepository(testDB)
	ctx := context.Background()

	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", true)

	follow := &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: false}
	require.NoError(t, repo.Create(ctx, follow))

	require.NoError(t, repo.SetAllowed(ctx, follow.ID, true))

	edge, err := repo.GetEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.True(t, edge.Allowed)
}

func TestFollowRepository_ListFollowersOnlyAllowed(t *testing.T) {
	truncateTables(testDB)
	repo := NewFollowRepository(testDB)
	ctx := context.Background()

	target := createTestUser(t, "target", true)
	approved := createTestUser(t, "approved", false)
	pending := createTestUser(t, "pending", false)

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: approved.ID, FolloweeID: target.ID, Allowed: true}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: pending.ID, FolloweeID: target.ID, Allowed: false}))

	followers, count, err := repo.ListFollowers(ctx, target.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, followers, 1)
	assert.Equal(t, "approved", followers[0].Username)

	requests, reqCount, err := repo.ListPendingRequests(ctx, target.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reqCount)
	require.Len(t, requests, 1)
	assert.Equal(t, pending.ID, requests[0].FollowerID)
}

func TestFollowRepository_FolloweeIDs(t *testing.T) {
	truncateTables(testDB)
	repo := NewFollowRepository(testDB)
	ctx := context.Background()

	alice := createTestUser(t, "alice", false)
	bob := createTestUser(t, "bob", false)
	carol := createTestUser(t, "carol", true)

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Allowed: true}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: carol.ID, Allowed: false}))

	ids, err := repo.FolloweeIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids)
}

func TestFollowRepository_DeleteMissingEdge(t *testing.T) {
	truncateTables(testDB)
	repo := NewFollowRepository(testDB)

	err := repo.Delete(context.Background(), 1, 2)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
