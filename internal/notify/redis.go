package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix = "transcript:"
	publishTTL    = 5 * time.Second
)

// RedisPubSub implements Publisher and Subscriber over Redis pub/sub so
// observers on any instance see events from any worker.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for job events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishJobEvent publishes the event to the transcript's Redis channel.
func (r *RedisPubSub) PublishJobEvent(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTTL)
	defer cancel()
	return r.client.Publish(ctx, channelPrefix+event.TranscriptID.String(), body).Err()
}

// SubscribeJob subscribes to a transcript's Redis channel and calls handler
// for each event. Returns a cancel function to stop the subscription.
func (r *RedisPubSub) SubscribeJob(transcriptID uuid.UUID, handler func(Event)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channelPrefix+transcriptID.String())
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("invalid job event payload", zap.Error(err))
					continue
				}
				handler(event)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
