package models

import "time"

const (
	// PostMaxLength is the content limit in characters.
	PostMaxLength = 1000

	TimestampLayout        = "2006-01-02 15:04"
	CommentTimestampLayout = "2006-01-02 15:04:05"
)

type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  int64     `gorm:"not null;index:idx_posts_author_timestamp,priority:1" json:"author_id"`
	Author    *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null;index;index:idx_posts_author_timestamp,priority:2" json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// PostView is a post as returned to clients.
type PostView struct {
	ID        int64         `json:"id"`
	Author    string        `json:"author"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp"`
	Likes     int64         `json:"likes"`
	Liked     bool          `json:"liked"`
	Comments  []CommentView `json:"comments"`
}

// FeedPage is one page of a feed together with the viewer's liked posts.
type FeedPage struct {
	Posts        []PostView `json:"posts"`
	Page         int        `json:"page"`
	NumPages     int        `json:"num_pages"`
	Total        int64      `json:"total"`
	HasNext      bool       `json:"has_next"`
	HasPrevious  bool       `json:"has_previous"`
	LikedPostIDs []int64    `json:"liked_post_ids"`
}

// ProfilePage is the feed of a single author plus follow statistics.
type ProfilePage struct {
	FeedPage
	Username       string `json:"username"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}
