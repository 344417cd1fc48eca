package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"network/db"
	"network/models"

	"gorm.io/gorm"
)

type CommentService struct {
	db       *db.Manager
	notifier *Notifier
}

func NewCommentService(m *db.Manager, notifier *Notifier) *CommentService {
	return &CommentService{db: m, notifier: notifier}
}

type commentRow struct {
	ID        int64
	PostID    int64
	Username  string
	Content   string
	Timestamp time.Time
}

func (r commentRow) view() models.CommentView {
	return models.CommentView{
		ID:        r.ID,
		Author:    r.Username,
		Content:   r.Content,
		Timestamp: r.Timestamp.UTC().Format(models.CommentTimestampLayout),
	}
}

// listComments returns the comments of postIDs, oldest first.
func listComments(ctx context.Context, m *db.Manager, postIDs []int64) ([]commentRow, error) {
	var rows []commentRow
	err := m.Read(ctx).
		Table("comments").
		Select("comments.id, comments.post_id, users.username, comments.content, comments.timestamp").
		Joins("JOIN users ON users.id = comments.author_id").
		Where("comments.post_id IN ?", postIDs).
		Order("comments.timestamp ASC, comments.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	return rows, nil
}

// CreateComment adds a comment by the requester to postID.
func (cs *CommentService) CreateComment(ctx context.Context, who Identity, postID int64, content string) (*models.CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newValidationError("Comment cannot be empty.")
	}

	var post models.Post
	err := cs.db.Write(ctx).Select("id", "author_id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{What: "Post"}
	}
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: who.UserID,
		Content:  content,
	}
	if err := cs.db.Write(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	cs.notifier.Notify(ctx, Event{
		Type:        EventCommentAdded,
		RecipientID: post.AuthorID,
		ActorID:     who.UserID,
		Actor:       who.Username,
		PostID:      post.ID,
		Content:     comment.Content,
		CreatedAt:   comment.Timestamp,
	})

	view := commentRow{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Username:  who.Username,
		Content:   comment.Content,
		Timestamp: comment.Timestamp,
	}.view()
	return &view, nil
}

// ListComments returns the comments of one post, oldest first.
func (cs *CommentService) ListComments(ctx context.Context, postID int64) ([]models.CommentView, error) {
	var exists int64
	if err := cs.db.Read(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, &NotFoundError{What: "Post"}
	}

	rows, err := listComments(ctx, cs.db, []int64{postID})
	if err != nil {
		return nil, err
	}
	views := make([]models.CommentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.view())
	}
	return views, nil
}
