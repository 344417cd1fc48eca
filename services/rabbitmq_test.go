package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rabbitForTest dials RABBITMQ_URL on a throwaway exchange and skips when
// unset.
func rabbitForTest(t *testing.T) (*RabbitPublisher, string) {
	t.Helper()
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	suffix := time.Now().UnixNano()
	exchange := fmt.Sprintf("network_events_test_%d", suffix)
	queue := fmt.Sprintf("network_notifications_test_%d", suffix)

	p, err := DialRabbitMQ(url, exchange)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = p.channel.QueueDelete(queue, false, false, false)
		_ = p.channel.ExchangeDelete(exchange, false, false)
		_ = p.Close()
	})
	return p, queue
}

func TestRabbitPublisherDeliversToSocket(t *testing.T) {
	p, queue := rabbitForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := NewWSConnManager()
	client := dialWS(t, ws, 7)
	require.NoError(t, p.StartConsumer(ctx, queue, ws))

	sent := Event{
		Type:        EventUserFollowed,
		RecipientID: 7,
		ActorID:     3,
		Actor:       "carol",
		CreatedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, p.Publish(ctx, sent))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.True(t, sent.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = sent.CreatedAt
	assert.Equal(t, sent, got)
}

func TestRabbitPublisherThroughNotifier(t *testing.T) {
	p, queue := rabbitForTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := NewWSConnManager()
	other := dialWS(t, ws, 8)
	target := dialWS(t, ws, 9)
	require.NoError(t, p.StartConsumer(ctx, queue, ws))

	NewNotifier(p).Notify(ctx, Event{Type: EventPostLiked, RecipientID: 9, ActorID: 1, Actor: "alice", PostID: 5})

	require.NoError(t, target.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := target.ReadMessage()
	require.NoError(t, err)
	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, EventPostLiked, got.Type)
	assert.Equal(t, int64(5), got.PostID)

	// routed by recipient: user 8 hears nothing
	require.NoError(t, other.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err = other.ReadMessage()
	assert.Error(t, err)
}
