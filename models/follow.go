package models

import "time"

// Follow - FollowerID follows FollowedID. The pair is unique; following
// oneself is rejected by the service, not the schema.
type Follow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FollowerID int64     `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	Follower   *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	FollowedID int64     `gorm:"not null;index;uniqueIndex:idx_follows_pair,priority:2" json:"followed_id"`
	Followed   *User     `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Follow) TableName() string {
	return "follows"
}
