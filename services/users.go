package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"network/db"
	"network/logger"
	"network/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}

type UserService struct {
	db *db.Manager
}

func NewUserService(m *db.Manager) *UserService {
	return &UserService{db: m}
}

// Register creates a user. A taken username yields ErrUsernameTaken and
// never a second row, also when two registrations race.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, newValidationError("Username must not be empty.")
	}
	if in.Password == "" {
		return nil, newValidationError("Password must not be empty.")
	}
	if in.Password != in.Confirmation {
		return nil, newValidationError("Passwords must match.")
	}

	var alreadyExists int64
	err := s.db.Read(ctx).Model(&models.User{}).Where("username = ?", username).Count(&alreadyExists).Error
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if alreadyExists > 0 {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    strings.TrimSpace(in.Email),
		Password: passwordHash,
	}
	err = s.db.Write(ctx).Create(user).Error
	if isUniqueViolation(err) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.L.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks credentials. Unknown user and wrong password are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := checkPassword(user.Password, password)
	if err != nil {
		logger.L.Warn("stored password hash unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.Read(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{What: "User"}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.Read(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{What: "User"}
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user; posts, likes, follows, comments and
// sessions go with it through ON DELETE CASCADE.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	res := s.db.Write(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{What: "User"}
	}
	return nil
}

// hashPassword returns argon2id "salt$hash", both hex encoded.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

func checkPassword(stored, password string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid password format")
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false, err
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
