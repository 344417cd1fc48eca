package services

import (
	"context"
	"encoding/json"
	"time"

	"network/logger"

	"go.uber.org/zap"
)

const notifyPreviewLength = 100

// DirectPublisher pushes events straight to the recipient's sockets. Used
// when no broker is configured.
type DirectPublisher struct {
	ws *WSConnManager
}

func NewDirectPublisher(ws *WSConnManager) *DirectPublisher {
	return &DirectPublisher{ws: ws}
}

func (p *DirectPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.ws.Send(event.RecipientID, data)
	return nil
}

// Notifier delivers events on a best-effort basis: failures are logged and
// never reach the request that caused them. A nil Notifier drops events.
type Notifier struct {
	publisher EventPublisher
	now       func() time.Time
}

func NewNotifier(p EventPublisher) *Notifier {
	return &Notifier{publisher: p, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, event Event) {
	if n == nil || n.publisher == nil {
		return
	}
	// nobody is told about their own actions
	if event.RecipientID == 0 || event.RecipientID == event.ActorID {
		return
	}
	if len([]rune(event.Content)) > notifyPreviewLength {
		event.Content = string([]rune(event.Content)[:notifyPreviewLength]) + "..."
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = n.now().UTC()
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		logger.L.Warn("failed to publish event",
			zap.String("event", string(event.Type)),
			zap.Int64("recipient_id", event.RecipientID),
			zap.Error(err))
	}
}
