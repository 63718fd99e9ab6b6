package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier fans events out across engine instances through redis
// pub/sub, one channel per resource and per holder.
type RedisNotifier struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisNotifier(client redis.UniversalClient, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) Publish(ctx context.Context, event model.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	for _, topic := range event.Topics() {
		if err := n.client.Publish(ctx, topic, payload).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}
	return nil
}

// Subscribe follows topics published by any engine instance. The
// returned channel closes when ctx is cancelled. Undecodable payloads
// are dropped; subscribers recover by re-query.
func (n *RedisNotifier) Subscribe(ctx context.Context, topics ...string) <-chan model.Event {
	sub := n.client.Subscribe(ctx, topics...)
	out := make(chan model.Event, subscriberBuffer)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					n.logger.Warn("Dropping undecodable change event",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				select {
				case out <- event:
				default:
				}
			}
		}
	}()
	return out
}
