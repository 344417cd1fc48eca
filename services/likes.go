package services

import (
	"context"
	"errors"
	"fmt"

	"network/db"
	"network/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ToggleLikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

type LikeService struct {
	db       *db.Manager
	notifier *Notifier
}

func NewLikeService(m *db.Manager, notifier *Notifier) *LikeService {
	return &LikeService{db: m, notifier: notifier}
}

// ToggleLike flips the requester's like on postID and returns the new
// state with the post's like count, all inside one transaction. Deleting
// first and inserting with ON CONFLICT DO NOTHING means a concurrent
// toggle can't produce a duplicate row or a constraint error.
func (ls *LikeService) ToggleLike(ctx context.Context, who Identity, postID int64) (*ToggleLikeResult, error) {
	var (
		result ToggleLikeResult
		post   models.Post
	)
	err := ls.db.Write(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Select("id", "author_id").First(&post, postID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{What: "Post"}
		}
		if err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", who.UserID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.Like{UserID: who.UserID, PostID: postID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		result.LikesCount, err = countLikes(tx, postID)
		return err
	})
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to toggle like: %w", err)
	}

	if result.Liked {
		ls.notifier.Notify(ctx, Event{
			Type:        EventPostLiked,
			RecipientID: post.AuthorID,
			ActorID:     who.UserID,
			Actor:       who.Username,
			PostID:      post.ID,
		})
	}
	return &result, nil
}

// countLikes is the number of likes on postID as seen by tx.
func countLikes(tx *gorm.DB, postID int64) (int64, error) {
	var count int64
	err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
