package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gosuda/kira/internal/domain"
)

type PubSub struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &PubSub{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) *PubSub {
	return &PubSub{client: client}
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// PublishBoardEvent publishes evt on its board's channel.
func (ps *PubSub) PublishBoardEvent(ctx context.Context, evt domain.BoardEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("redis.PubSub.PublishBoardEvent: marshal: %w", err)
	}
	if err := ps.Publish(ctx, BoardChannel(evt.BoardID), payload); err != nil {
		return fmt.Errorf("redis.PubSub.PublishBoardEvent: %w", err)
	}
	return nil
}

func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// Invalidations subscribes to a board's channel and reduces every message to
// a bare "something changed" signal. Signals are dropped, not queued, while
// one is already waiting: a single pending refetch covers them all.
func (ps *PubSub) Invalidations(ctx context.Context, boardID uuid.UUID) (<-chan struct{}, func(), error) {
	messages, cleanup, err := ps.Subscribe(ctx, BoardChannel(boardID))
	if err != nil {
		return nil, nil, fmt.Errorf("redis.PubSub.Invalidations: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range messages {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	return out, cleanup, nil
}

// BoardChannel returns the Redis channel name for a board.
func BoardChannel(boardID uuid.UUID) string {
	return "board:" + boardID.String()
}
