package repository

import (
	"context"
	"testing"

	"github.com/pavelchamgl/analog-threads/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPost(t *testing.T, userID uint, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, UserID: userID, CommentsPermission: models.CommentsAnyone}
	require.NoError(t, testDB.Create(post).Error)
	return post
}

func TestPostRepository_FollowingFeedOnlyApprovedAuthors(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	follows := NewFollowRepository(testDB)
	ctx := context.Background()

	viewer := createTestUser(t, "viewer", false)
	followed := createTestUser(t, "followed", false)
	pendingAuthor := createTestUser(t, "pendingauthor", true)
	stranger := createTestUser(t, "stranger", false)

	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: viewer.ID, FolloweeID: followed.ID, Allowed: true}))
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: viewer.ID, FolloweeID: pendingAuthor.ID, Allowed: false}))

	createTestPost(t, followed.ID, "from followed")
	createTestPost(t, pendingAuthor.ID, "from pending")
	createTestPost(t, stranger.ID, "from stranger")

	feed, count, err := posts.FollowingFeed(ctx, viewer.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, feed, 1)
	assert.Equal(t, "from followed", feed[0].Text)
}

func TestPostRepository_ForYouFeedExclusions(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	follows := NewFollowRepository(testDB)
	ctx := context.Background()

	viewer := createTestUser(t, "viewer", false)
	followed := createTestUser(t, "followed", false)
	private := createTestUser(t, "privateuser", true)
	fresh := createTestUser(t, "fresh", false)

	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: viewer.ID, FolloweeID: followed.ID, Allowed: true}))

	createTestPost(t, viewer.ID, "own post")
	createTestPost(t, followed.ID, "followed post")
	createTestPost(t, private.ID, "private post")
	discoverable := createTestPost(t, fresh.ID, "fresh post")

	feed, count, err := posts.ForYouFeed(ctx, viewer.ID, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, feed, 1)
	assert.Equal(t, discoverable.ID, feed[0].ID)
}

func TestPostRepository_FeedOrderNewestFirst(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	follows := NewFollowRepository(testDB)
	ctx := context.Background()

	viewer := createTestUser(t, "viewer", false)
	author := createTestUser(t, "author", false)
	require.NoError(t, follows.Create(ctx, &models.Follow{FollowerID: viewer.ID, FolloweeID: author.ID, Allowed: true}))

	first := createTestPost(t, author.ID, "first")
	second := createTestPost(t, author.ID, "second")

	feed, _, err := posts.FollowingFeed(ctx, viewer.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ID)
	assert.Equal(t, first.ID, feed[1].ID)

	// LTE cursor pins the page to posts at or below the selected id.
	page, _, err := posts.FollowingFeed(ctx, viewer.ID, 10, first.ID)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)
}

func TestPostRepository_LikeIsIdempotent(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	ctx := context.Background()

	user := createTestUser(t, "liker", false)
	post := createTestPost(t, user.ID, "likeable")

	require.NoError(t, posts.Like(ctx, user.ID, post.ID))
	require.NoError(t, posts.Like(ctx, user.ID, post.ID))

	got, err := posts.GetByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.Liked)

	require.NoError(t, posts.Unlike(ctx, user.ID, post.ID))
	got, err = posts.GetByID(ctx, post.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.False(t, got.Liked)
}

func TestPostRepository_ByHashtag(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	tags := NewHashTagRepository(testDB)
	ctx := context.Background()

	author := createTestUser(t, "tagger", false)
	tagged := createTestPost(t, author.ID, "about #golang")
	createTestPost(t, author.ID, "unrelated")

	tag, err := tags.GetOrCreate(ctx, "golang")
	require.NoError(t, err)
	require.NoError(t, posts.ReplaceHashTags(ctx, tagged, []models.HashTag{*tag}))

	found, count, err := posts.ByHashtag(ctx, "GoLang", 10, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	require.Len(t, found, 1)
	assert.Equal(t, tagged.ID, found[0].ID)
}

func TestPostRepository_ReplaceMentionsIsIdempotent(t *testing.T) {
	truncateTables(testDB)
	posts := NewPostRepository(testDB)
	ctx := context.Background()

	author := createTestUser(t, "author", false)
	mentioned := createTestUser(t, "mentioned", false)
	post := createTestPost(t, author.ID, "hi @mentioned")

	require.NoError(t, posts.ReplaceMentions(ctx, post, []models.User{*mentioned}))
	require.NoError(t, posts.ReplaceMentions(ctx, post, []models.User{*mentioned}))

	got, err := posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, got.MentionedUsers, 1)
	assert.Equal(t, mentioned.ID, got.MentionedUsers[0].ID)
}
