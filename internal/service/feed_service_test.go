package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

func TestFeedByHashtagStripsLeadingHash(t *testing.T) {
	env := newTestEnv(t)
	psvc := newPostService(env)
	fsvc := NewFeedService(env.posts, env.users, env.hashtags)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	post, err := psvc.CreatePost(ctx, author.ID, CreatePostInput{Text: "all about #concurrency"})
	require.NoError(t, err)

	found, count, err := fsvc.ByHashtag(ctx, author.ID, "#Concurrency", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, found, 1)
	assert.Equal(t, post.ID, found[0].ID)
}

func TestFeedByHashtagUnknownTag(t *testing.T) {
	env := newTestEnv(t)
	fsvc := NewFeedService(env.posts, env.users, env.hashtags)

	_, _, err := fsvc.ByHashtag(context.Background(), 1, "nonexistent", 10, 0)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestSearchUsersAndHashtags(t *testing.T) {
	env := newTestEnv(t)
	psvc := newPostService(env)
	fsvc := NewFeedService(env.posts, env.users, env.hashtags)
	ctx := context.Background()

	env.createUser(t, "gopher_anna", false)
	env.createUser(t, "gopher_bob", false)
	env.createUser(t, "rustacean", false)
	author := env.createUser(t, "author", false)

	_, err := psvc.CreatePost(ctx, author.ID, CreatePostInput{Text: "#gophers unite, #gophercon soon"})
	require.NoError(t, err)

	users, count, err := fsvc.SearchUsers(ctx, "gopher", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Len(t, users, 2)

	tags, tagCount, err := fsvc.SearchHashtags(ctx, "gopher", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, tagCount)
	assert.Len(t, tags, 2)

	_, _, err = fsvc.SearchUsers(ctx, "   ", 10, 0)
	require.Error(t, err)
}
