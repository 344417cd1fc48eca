package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"network/db"
	"network/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type testEnv struct {
	db        *db.Manager
	published *recordingPublisher
	users     *UserService
	posts     *PostService
	feed      *FeedService
	likes     *LikeService
	follows   *FollowService
	comments  *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	m, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	published := &recordingPublisher{}
	notifier := NewNotifier(published)
	users := NewUserService(m)
	follows := NewFollowService(m, users, notifier)
	return &testEnv{
		db:        m,
		published: published,
		users:     users,
		posts:     NewPostService(m, notifier),
		feed:      NewFeedService(m, users, follows),
		likes:     NewLikeService(m, notifier),
		follows:   follows,
		comments:  NewCommentService(m, notifier),
	}
}

// createUser inserts a user directly, skipping password hashing.
func (e *testEnv) createUser(t *testing.T, username string) Identity {
	t.Helper()
	if username == "" {
		username = gofakeit.Username() + fmt.Sprint(time.Now().UnixNano())
	}
	user := models.User{Username: username, Email: gofakeit.Email(), Password: "x$y"}
	require.NoError(t, e.db.Write(context.Background()).Create(&user).Error)
	return Identity{UserID: user.ID, Username: user.Username}
}

// createPostAt inserts a post with a fixed timestamp.
func (e *testEnv) createPostAt(t *testing.T, author Identity, content string, at time.Time) int64 {
	t.Helper()
	post := models.Post{AuthorID: author.UserID, Content: content, Timestamp: at.UTC()}
	require.NoError(t, e.db.Write(context.Background()).Create(&post).Error)
	return post.ID
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Read(context.Background()).Model(model).Count(&n).Error)
	return n
}
