package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"network/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")
	env.posts.now = func() time.Time { return time.Date(2024, 3, 1, 9, 5, 59, 0, time.UTC) }

	post, err := env.posts.CreatePost(context.Background(), alice, "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", post.Content)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, "2024-03-01 09:05", post.Timestamp)
	assert.Zero(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.Equal(t, int64(1), env.count(t, &models.Post{}))
}

func TestCreatePostRejectsBlankContent(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.posts.CreatePost(context.Background(), alice, "   \n\t")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Post content cannot be empty.", verr.Message)
	assert.Zero(t, env.count(t, &models.Post{}))
}

func TestCreatePostLengthLimit(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.posts.CreatePost(context.Background(), alice, strings.Repeat("é", models.PostMaxLength))
	require.NoError(t, err)

	_, err = env.posts.CreatePost(context.Background(), alice, strings.Repeat("a", models.PostMaxLength+1))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Post content cannot exceed 1000 characters.", verr.Message)
	assert.Equal(t, int64(1), env.count(t, &models.Post{}))
}

func TestCreatePostNotifiesFollowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	_, err := env.follows.ToggleFollow(ctx, bob, "alice")
	require.NoError(t, err)
	_, err = env.follows.ToggleFollow(ctx, carol, "alice")
	require.NoError(t, err)
	before := len(env.published.Events())

	post, err := env.posts.CreatePost(ctx, alice, "news")
	require.NoError(t, err)

	events := env.published.Events()[before:]
	require.Len(t, events, 2)
	recipients := []int64{events[0].RecipientID, events[1].RecipientID}
	assert.ElementsMatch(t, []int64{bob.UserID, carol.UserID}, recipients)
	for _, e := range events {
		assert.Equal(t, EventPostCreated, e.Type)
		assert.Equal(t, post.ID, e.PostID)
		assert.Equal(t, "alice", e.Actor)
	}
}

func TestEditPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	id := env.createPostAt(t, alice, "first", time.Now())

	owned, err := env.posts.GetOwnedPost(ctx, alice, id)
	require.NoError(t, err)
	post, err := env.posts.EditPost(ctx, owned, " second ")
	require.NoError(t, err)
	assert.Equal(t, "second", post.Content)

	var stored models.Post
	require.NoError(t, env.db.Read(ctx).First(&stored, id).Error)
	assert.Equal(t, "second", stored.Content)
}

func TestEditPostByOtherUserIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	id := env.createPostAt(t, alice, "original", time.Now())

	_, err := env.posts.GetOwnedPost(ctx, bob, id)
	var perr *PermissionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "You cannot edit another user's post.", perr.Message)

	var stored models.Post
	require.NoError(t, env.db.Read(ctx).First(&stored, id).Error)
	assert.Equal(t, "original", stored.Content)
}

func TestEditPostErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	id := env.createPostAt(t, alice, "original", time.Now())

	_, err := env.posts.GetOwnedPost(ctx, alice, id+100)
	assert.ErrorIs(t, err, ErrNotFound)

	owned, err := env.posts.GetOwnedPost(ctx, alice, id)
	require.NoError(t, err)
	_, err = env.posts.EditPost(ctx, owned, "  ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Content cannot be empty.", verr.Message)
}

func TestDeletePostRemovesLikesAndComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	id := env.createPostAt(t, alice, "bye", time.Now())

	_, err := env.likes.ToggleLike(ctx, bob, id)
	require.NoError(t, err)
	_, err = env.comments.CreateComment(ctx, bob, id, "nice")
	require.NoError(t, err)

	assert.Error(t, env.posts.DeletePost(ctx, bob, id))
	require.NoError(t, env.posts.DeletePost(ctx, alice, id))

	assert.Zero(t, env.count(t, &models.Post{}))
	assert.Zero(t, env.count(t, &models.Like{}))
	assert.Zero(t, env.count(t, &models.Comment{}))
}
