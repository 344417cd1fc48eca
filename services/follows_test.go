package services

import (
	"context"
	"errors"
	"testing"

	"network/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	res, err := env.follows.ToggleFollow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, ToggleFollowResult{Following: true, FollowersCount: 1}, *res)

	following, err := env.follows.IsFollowing(ctx, alice.UserID, bob.UserID)
	require.NoError(t, err)
	assert.True(t, following)

	reverse, err := env.follows.IsFollowing(ctx, bob.UserID, alice.UserID)
	require.NoError(t, err)
	assert.False(t, reverse)

	n, err := env.follows.CountFollowing(ctx, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err = env.follows.ToggleFollow(ctx, alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, ToggleFollowResult{Following: false, FollowersCount: 0}, *res)
	assert.Zero(t, env.count(t, &models.Follow{}))
}

func TestToggleFollowSelfIsRejected(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.follows.ToggleFollow(context.Background(), alice, "alice")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "You cannot follow yourself.", verr.Message)
	assert.Zero(t, env.count(t, &models.Follow{}))
	assert.Empty(t, env.published.Events())
}

func TestToggleFollowUnknownUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice")

	_, err := env.follows.ToggleFollow(context.Background(), alice, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "User not found.")
}

func TestToggleFollowNotifiesTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	_, err := env.follows.ToggleFollow(ctx, alice, "bob")
	require.NoError(t, err)

	events := env.published.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventUserFollowed, events[0].Type)
	assert.Equal(t, bob.UserID, events[0].RecipientID)
	assert.Equal(t, "alice", events[0].Actor)
}
