package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelchamgl/analog-threads/internal/models"
)

func newCommentService(env *testEnv) *CommentService {
	return NewCommentService(env.comments, env.posts, env.users, env.visibility, env.notifier)
}

func createPostWithPermission(t *testing.T, env *testEnv, authorID uint, perm models.CommentsPermission) *models.Post {
	t.Helper()
	post := &models.Post{Text: "thread", UserID: authorID, CommentsPermission: perm}
	require.NoError(t, env.posts.Create(context.Background(), post))
	return post
}

func TestCreateCommentNotifiesAuthor(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	commenter := env.createUser(t, "commenter", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	comment, err := svc.CreateComment(ctx, commenter.ID, post.ID, "nice thread")
	require.NoError(t, err)
	assert.Equal(t, "nice thread", comment.Text)

	events := env.notifier.byType(models.NotificationNewComment)
	require.Len(t, events, 1)
	assert.Equal(t, author.ID, events[0].OwnerID)
	require.NotNil(t, events[0].RelatedCommentID)
	assert.Equal(t, comment.ID, *events[0].RelatedCommentID)
}

func TestCreateCommentOnOwnPostDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	_, err := svc.CreateComment(ctx, author.ID, post.ID, "replying to myself")
	require.NoError(t, err)
	assert.Empty(t, env.notifier.byType(models.NotificationNewComment))
}

func TestCommentPermissionYourFollowers(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	follower := env.createUser(t, "follower", false)
	stranger := env.createUser(t, "stranger", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsYourFollowers)

	require.NoError(t, env.follows.Create(ctx, &models.Follow{FollowerID: follower.ID, FolloweeID: author.ID, Allowed: true}))

	_, err := svc.CreateComment(ctx, follower.ID, post.ID, "hi")
	require.NoError(t, err)

	_, err = svc.CreateComment(ctx, stranger.ID, post.ID, "hi")
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestCommentPermissionMentionedOnly(t *testing.T) {
	env := newTestEnv(t)
	psvc := newPostService(env)
	csvc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	chosen := env.createUser(t, "chosen", false)
	outsider := env.createUser(t, "outsider", false)

	post, err := psvc.CreatePost(ctx, author.ID, CreatePostInput{
		Text:               "only @chosen may speak",
		CommentsPermission: models.CommentsMentionedOnly,
	})
	require.NoError(t, err)

	_, err = csvc.CreateComment(ctx, chosen.ID, post.ID, "honored")
	require.NoError(t, err)

	_, err = csvc.CreateComment(ctx, outsider.ID, post.ID, "me too")
	require.Error(t, err)
}

func TestReplyLandsOnSamePostAndNotifies(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	commenter := env.createUser(t, "commenter", false)
	replier := env.createUser(t, "replier", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	parent, err := svc.CreateComment(ctx, commenter.ID, post.ID, "first")
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, replier.ID, parent.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, post.ID, reply.PostID)
	require.NotNil(t, reply.ReplyID)
	assert.Equal(t, parent.ID, *reply.ReplyID)

	events := env.notifier.byType(models.NotificationNewReply)
	require.Len(t, events, 1)
	assert.Equal(t, commenter.ID, events[0].OwnerID)
}

func TestReplyGatedByRootPostPermission(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	stranger := env.createUser(t, "stranger", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsYourFollowers)

	parent, err := svc.CreateComment(ctx, author.ID, post.ID, "own comment")
	require.NoError(t, err)

	_, err = svc.Reply(ctx, stranger.ID, parent.ID, "sneaky reply")
	require.Error(t, err)
}

func TestCommentMentionsNotifyMentionedUsers(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	commenter := env.createUser(t, "commenter", false)
	mentioned := env.createUser(t, "mentioned", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	comment, err := svc.CreateComment(ctx, commenter.ID, post.ID, "cc @mentioned")
	require.NoError(t, err)
	require.Len(t, comment.MentionedUsers, 1)

	events := env.notifier.byType(models.NotificationNewMention)
	require.Len(t, events, 1)
	assert.Equal(t, mentioned.ID, events[0].OwnerID)
	require.NotNil(t, events[0].RelatedCommentID)
}

func TestDeleteCommentOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	commenter := env.createUser(t, "commenter", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	comment, err := svc.CreateComment(ctx, commenter.ID, post.ID, "deletable")
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, author.ID, comment.ID)
	require.Error(t, err)

	require.NoError(t, svc.DeleteComment(ctx, commenter.ID, comment.ID))
}

func TestCommentLikeToggle(t *testing.T) {
	env := newTestEnv(t)
	svc := newCommentService(env)
	ctx := context.Background()

	author := env.createUser(t, "author", false)
	post := createPostWithPermission(t, env, author.ID, models.CommentsAnyone)

	comment, err := svc.CreateComment(ctx, author.ID, post.ID, "like me")
	require.NoError(t, err)

	liked, err := svc.LikeToggle(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := env.comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)

	liked, err = svc.LikeToggle(ctx, author.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}
