package services

import (
	"context"
	"time"
)

type EventType string

const (
	EventPostCreated  EventType = "post_created"
	EventPostLiked    EventType = "post_liked"
	EventUserFollowed EventType = "user_followed"
	EventCommentAdded EventType = "comment_added"
)

// Event is a notification addressed to RecipientID about something Actor did.
type Event struct {
	Type        EventType `json:"event"`
	RecipientID int64     `json:"recipient_id"`
	ActorID     int64     `json:"actor_id"`
	Actor       string    `json:"actor"`
	PostID      int64     `json:"post_id,omitempty"`
	Content     string    `json:"content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
