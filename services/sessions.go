package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"network/db"
	"network/models"

	"gorm.io/gorm"
)

// Identity is the authenticated requester, passed explicitly into every
// service call that needs one.
type Identity struct {
	UserID   int64
	Username string
}

type SessionStore interface {
	Create(ctx context.Context, userID int64) (token string, err error)
	Resolve(ctx context.Context, token string) (userID int64, err error)
	Delete(ctx context.Context, token string) error
}

func newToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(tokenBytes), nil
}

// DBSessionStore keeps sessions in the user_tokens table.
type DBSessionStore struct {
	db  *db.Manager
	ttl time.Duration
	now func() time.Time
}

func NewDBSessionStore(m *db.Manager, ttl time.Duration) *DBSessionStore {
	return &DBSessionStore{db: m, ttl: ttl, now: time.Now}
}

func (s *DBSessionStore) Create(ctx context.Context, userID int64) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	row := models.UserToken{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	if err := s.db.Write(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

func (s *DBSessionStore) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrSessionNotFound
	}
	var row models.UserToken
	err := s.db.Write(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, err
	}
	if s.now().After(row.ExpiresAt) {
		_ = s.Delete(ctx, token)
		return 0, ErrSessionNotFound
	}
	return row.UserID, nil
}

func (s *DBSessionStore) Delete(ctx context.Context, token string) error {
	return s.db.Write(ctx).Where("token = ?", token).Delete(&models.UserToken{}).Error
}

// Authenticator turns a session token into an Identity.
type Authenticator struct {
	store SessionStore
	users *UserService
}

func NewAuthenticator(store SessionStore, users *UserService) *Authenticator {
	return &Authenticator{store: store, users: users}
}

// Login verifies credentials and opens a session.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Identity, string, error) {
	user, err := a.users.Login(ctx, username, password)
	if err != nil {
		return nil, "", err
	}
	return a.StartSession(ctx, user)
}

func (a *Authenticator) StartSession(ctx context.Context, user *models.User) (*Identity, string, error) {
	token, err := a.store.Create(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return &Identity{UserID: user.ID, Username: user.Username}, token, nil
}

func (a *Authenticator) Identify(ctx context.Context, token string) (*Identity, error) {
	userID, err := a.store.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		_ = a.store.Delete(ctx, token)
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: user.ID, Username: user.Username}, nil
}

func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.store.Delete(ctx, token)
}
