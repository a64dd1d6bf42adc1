package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quiz-exam-platform/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*Publisher)(nil)

// Envelope is the JSON message published on a user channel.
type Envelope struct {
	Event   string    `json:"event"`
	UserID  string    `json:"user_id"`
	Payload any       `json:"payload,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

// Publisher pushes user events to the Redis channel user:<id>:events.
type Publisher struct {
	client RedisClient
}

func NewPublisher(client RedisClient) *Publisher {
	return &Publisher{client: client}
}

func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}

func (p *Publisher) Publish(ctx context.Context, userID, event string, payload any) error {
	b, err := json.Marshal(Envelope{Event: event, UserID: userID, Payload: payload, SentAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	return p.client.Publish(ctx, UserChannel(userID), b)
}
