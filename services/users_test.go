package services

import (
	"context"
	"errors"
	"testing"

	"network/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesUser(t *testing.T) {
	env := newTestEnv(t)
	password := gofakeit.Password(true, true, true, false, false, 12)

	user, err := env.users.Register(context.Background(), RegisterInput{
		Username:     "alice",
		Email:        "alice@example.com",
		Password:     password,
		Confirmation: password,
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, password, user.Password)

	logged, err := env.users.Login(context.Background(), "alice", password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Register(context.Background(), RegisterInput{
		Username: "alice", Password: "secret1", Confirmation: "secret2",
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Passwords must match.", verr.Message)
	assert.Zero(t, env.count(t, &models.User{}))
}

func TestRegisterUsernameTaken(t *testing.T) {
	env := newTestEnv(t)
	in := RegisterInput{Username: "alice", Password: "secret", Confirmation: "secret"}

	_, err := env.users.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = env.users.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.Equal(t, int64(1), env.count(t, &models.User{}))
}

func TestRegisterRejectsBlankUsername(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.Register(context.Background(), RegisterInput{Username: "  ", Password: "a", Confirmation: "a"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.Register(context.Background(), RegisterInput{Username: "alice", Password: "secret", Confirmation: "secret"})
	require.NoError(t, err)

	_, err = env.users.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Login(context.Background(), "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("super-secret")
	require.NoError(t, err)

	ok, err := checkPassword(hash, "super-secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checkPassword(hash, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checkPassword("garbage", "x")
	assert.Error(t, err)
}

func TestDeleteUserCascadesOwnedRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	post, err := env.posts.CreatePost(ctx, alice, "hello")
	require.NoError(t, err)
	_, err = env.likes.ToggleLike(ctx, bob, post.ID)
	require.NoError(t, err)
	_, err = env.follows.ToggleFollow(ctx, alice, "bob")
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteUser(ctx, alice.UserID))

	assert.Zero(t, env.count(t, &models.Post{}))
	assert.Zero(t, env.count(t, &models.Like{}))
	assert.Zero(t, env.count(t, &models.Follow{}))
	assert.ErrorIs(t, env.users.DeleteUser(ctx, alice.UserID), ErrNotFound)
}

func TestLoginTrimsUsernameLikeRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, RegisterInput{Username: "alice ", Password: "secret", Confirmation: "secret"})
	require.NoError(t, err)

	for _, name := range []string{"alice ", "alice", " alice"} {
		user, err := env.users.Login(ctx, name, "secret")
		require.NoError(t, err, "username %q", name)
		assert.Equal(t, "alice", user.Username)
	}
}
