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

type ToggleFollowResult struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followers_count"`
}

type FollowService struct {
	db       *db.Manager
	users    *UserService
	notifier *Notifier
}

func NewFollowService(m *db.Manager, users *UserService, notifier *Notifier) *FollowService {
	return &FollowService{db: m, users: users, notifier: notifier}
}

// ToggleFollow flips whether the requester follows username. Following
// oneself is rejected before anything is written.
func (fs *FollowService) ToggleFollow(ctx context.Context, who Identity, username string) (*ToggleFollowResult, error) {
	target, err := fs.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == who.UserID {
		return nil, newValidationError("You cannot follow yourself.")
	}

	var result ToggleFollowResult
	err = fs.db.Write(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followed_id = ?", who.UserID, target.ID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			follow := models.Follow{FollowerID: who.UserID, FollowedID: target.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
				return err
			}
			result.Following = true
		}

		return tx.Model(&models.Follow{}).Where("followed_id = ?", target.ID).Count(&result.FollowersCount).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to toggle follow: %w", err)
	}

	if result.Following {
		fs.notifier.Notify(ctx, Event{
			Type:        EventUserFollowed,
			RecipientID: target.ID,
			ActorID:     who.UserID,
			Actor:       who.Username,
		})
	}
	return &result, nil
}

func (fs *FollowService) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := fs.db.Read(ctx).Model(&models.Follow{}).Where("followed_id = ?", userID).Count(&count).Error
	return count, err
}

func (fs *FollowService) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := fs.db.Read(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

func (fs *FollowService) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	var follow models.Follow
	err := fs.db.Read(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
