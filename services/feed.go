package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"network/db"
	"network/models"

	"gorm.io/gorm"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

// ParsePage reads the page query parameter; anything unparsable or below
// one selects the first page.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

type FeedService struct {
	db      *db.Manager
	users   *UserService
	follows *FollowService
}

func NewFeedService(m *db.Manager, users *UserService, follows *FollowService) *FeedService {
	return &FeedService{db: m, users: users, follows: follows}
}

type feedRow struct {
	ID        int64
	AuthorID  int64
	Username  string
	Content   string
	Timestamp time.Time
}

// Index is every post, newest first.
func (fs *FeedService) Index(ctx context.Context, viewer *Identity, page int) (*models.FeedPage, error) {
	return fs.page(ctx, viewer, page, func(tx *gorm.DB) *gorm.DB { return tx })
}

// Following is the posts of everyone the viewer follows.
func (fs *FeedService) Following(ctx context.Context, viewer Identity, page int) (*models.FeedPage, error) {
	followed := fs.db.Read(ctx).
		Model(&models.Follow{}).
		Select("followed_id").
		Where("follower_id = ?", viewer.UserID)
	return fs.page(ctx, &viewer, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.author_id IN (?)", followed)
	})
}

// Profile is the posts of one user plus their follow statistics.
func (fs *FeedService) Profile(ctx context.Context, viewer *Identity, username string, page int) (*models.ProfilePage, error) {
	user, err := fs.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	feed, err := fs.FindPostsByAuthor(ctx, viewer, user.ID, page)
	if err != nil {
		return nil, err
	}

	profile := &models.ProfilePage{FeedPage: *feed, Username: user.Username}
	if profile.FollowersCount, err = fs.follows.CountFollowers(ctx, user.ID); err != nil {
		return nil, err
	}
	if profile.FollowingCount, err = fs.follows.CountFollowing(ctx, user.ID); err != nil {
		return nil, err
	}
	if viewer != nil {
		if profile.IsFollowing, err = fs.follows.IsFollowing(ctx, viewer.UserID, user.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (fs *FeedService) FindPostsByAuthor(ctx context.Context, viewer *Identity, authorID int64, page int) (*models.FeedPage, error) {
	return fs.page(ctx, viewer, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("posts.author_id = ?", authorID)
	})
}

// page runs filter against posts and assembles one page. A page past the
// end is empty rather than clamped.
func (fs *FeedService) page(ctx context.Context, viewer *Identity, page int, filter func(*gorm.DB) *gorm.DB) (*models.FeedPage, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	err := fs.db.Read(ctx).
		Model(&models.Post{}).
		Scopes(filter).
		Count(&total).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	var rows []feedRow
	err = fs.db.Read(ctx).
		Table("posts").
		Select("posts.id, posts.author_id, users.username, posts.content, posts.timestamp").
		Joins("JOIN users ON users.id = posts.author_id").
		Scopes(filter).
		Order("posts.timestamp DESC, posts.id DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get feed posts: %w", err)
	}

	numPages := int((total + PageSize - 1) / PageSize)
	if numPages < 1 {
		numPages = 1
	}
	result := &models.FeedPage{
		Posts:        make([]models.PostView, 0, len(rows)),
		Page:         page,
		NumPages:     numPages,
		Total:        total,
		HasNext:      page < numPages,
		HasPrevious:  page > 1,
		LikedPostIDs: []int64{},
	}

	if viewer != nil {
		if result.LikedPostIDs, err = fs.LikedPostIDs(ctx, viewer.UserID); err != nil {
			return nil, err
		}
	}
	if len(rows) == 0 {
		return result, nil
	}

	postIDs := make([]int64, len(rows))
	for i, row := range rows {
		postIDs[i] = row.ID
	}
	likes, err := fs.countLikesByPost(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := fs.commentsByPost(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	liked := make(map[int64]bool, len(result.LikedPostIDs))
	for _, id := range result.LikedPostIDs {
		liked[id] = true
	}

	for _, row := range rows {
		postComments := comments[row.ID]
		if postComments == nil {
			postComments = []models.CommentView{}
		}
		result.Posts = append(result.Posts, models.PostView{
			ID:        row.ID,
			Author:    row.Username,
			Content:   row.Content,
			Timestamp: row.Timestamp.UTC().Format(models.TimestampLayout),
			Likes:     likes[row.ID],
			Liked:     liked[row.ID],
			Comments:  postComments,
		})
	}
	return result, nil
}

// LikedPostIDs is every post the user has liked.
func (fs *FeedService) LikedPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := fs.db.Read(ctx).
		Model(&models.Like{}).
		Where("user_id = ?", userID).
		Order("post_id").
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get liked posts: %w", err)
	}
	return ids, nil
}

func (fs *FeedService) countLikesByPost(ctx context.Context, postIDs []int64) (map[int64]int64, error) {
	var counts []struct {
		PostID int64
		Count  int64
	}
	err := fs.db.Read(ctx).
		Model(&models.Like{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	result := make(map[int64]int64, len(counts))
	for _, c := range counts {
		result[c.PostID] = c.Count
	}
	return result, nil
}

func (fs *FeedService) commentsByPost(ctx context.Context, postIDs []int64) (map[int64][]models.CommentView, error) {
	rows, err := listComments(ctx, fs.db, postIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[int64][]models.CommentView)
	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.view())
	}
	return result, nil
}
