package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"network/db"
	"network/logger"
	"network/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PostService struct {
	db       *db.Manager
	notifier *Notifier
	now      func() time.Time
}

func NewPostService(m *db.Manager, notifier *Notifier) *PostService {
	return &PostService{db: m, notifier: notifier, now: time.Now}
}

func validatePostContent(content, emptyMessage string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newValidationError(emptyMessage)
	}
	if utf8.RuneCountInString(content) > models.PostMaxLength {
		return "", newValidationError(fmt.Sprintf("Post content cannot exceed %d characters.", models.PostMaxLength))
	}
	return content, nil
}

// CreatePost stores a post by the requester and tells their followers.
func (ps *PostService) CreatePost(ctx context.Context, who Identity, content string) (*models.PostView, error) {
	content, err := validatePostContent(content, "Post content cannot be empty.")
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		AuthorID:  who.UserID,
		Content:   content,
		Timestamp: ps.now().UTC(),
	}
	if err := ps.db.Write(ctx).Create(post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	logger.L.Debug("post created", zap.Int64("post_id", post.ID), zap.Int64("author_id", who.UserID))

	ps.notifyFollowers(ctx, who, post)

	return &models.PostView{
		ID:        post.ID,
		Author:    who.Username,
		Content:   post.Content,
		Timestamp: post.Timestamp.Format(models.TimestampLayout),
		Likes:     0,
		Comments:  []models.CommentView{},
	}, nil
}

// GetOwnedPost loads a post the requester may modify: NotFound when it
// does not exist, PermissionError when someone else wrote it.
func (ps *PostService) GetOwnedPost(ctx context.Context, who Identity, postID int64) (*models.Post, error) {
	var post models.Post
	err := ps.db.Write(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{What: "Post"}
	}
	if err != nil {
		return nil, err
	}
	if post.AuthorID != who.UserID {
		return nil, &PermissionError{Message: "You cannot edit another user's post."}
	}
	return &post, nil
}

// EditPost replaces the content of a post already loaded by GetOwnedPost.
func (ps *PostService) EditPost(ctx context.Context, post *models.Post, content string) (*models.Post, error) {
	content, err := validatePostContent(content, "Content cannot be empty.")
	if err != nil {
		return nil, err
	}

	now := ps.now().UTC()
	err = ps.db.Write(ctx).Model(post).Updates(map[string]interface{}{
		"content":    content,
		"updated_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	post.Content = content
	post.UpdatedAt = now
	return post, nil
}

// DeletePost removes the requester's post with its likes and comments.
func (ps *PostService) DeletePost(ctx context.Context, who Identity, postID int64) error {
	post, err := ps.GetOwnedPost(ctx, who, postID)
	if err != nil {
		return err
	}
	if err := ps.db.Write(ctx).Delete(post).Error; err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (ps *PostService) notifyFollowers(ctx context.Context, who Identity, post *models.Post) {
	if ps.notifier == nil {
		return
	}
	var followerIDs []int64
	err := ps.db.Read(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ?", who.UserID).
		Pluck("follower_id", &followerIDs).Error
	if err != nil {
		logger.L.Warn("failed to load followers for notification", zap.Int64("user_id", who.UserID), zap.Error(err))
		return
	}
	for _, followerID := range followerIDs {
		ps.notifier.Notify(ctx, Event{
			Type:        EventPostCreated,
			RecipientID: followerID,
			ActorID:     who.UserID,
			Actor:       who.Username,
			PostID:      post.ID,
			Content:     post.Content,
			CreatedAt:   post.Timestamp,
		})
	}
}
