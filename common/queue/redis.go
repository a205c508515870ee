package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fnhub/ingest/common/logger"
	rediscommon "github.com/fnhub/ingest/common/redis"
)

// ErrClosed is returned when publishing to or subscribing on a closed queue
var ErrClosed = errors.New("queue closed")

// RedisStreamQueue publishes to Redis streams, one stream per topic.
// Subscribers join a consumer group, so each message is handled once per group.
type RedisStreamQueue struct {
	client   *rediscommon.Client
	group    string
	consumer string
	maxLen   int64
	block    time.Duration
	log      *logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
	ctx    context.Context
}

// NewRedisStreamQueue creates a stream-backed queue. maxLen caps each stream
// approximately; zero leaves streams untrimmed.
func NewRedisStreamQueue(client *rediscommon.Client, group, consumer string, maxLen int64, log *logger.Logger) *RedisStreamQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisStreamQueue{
		client:   client,
		group:    group,
		consumer: consumer,
		maxLen:   maxLen,
		block:    2 * time.Second,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Publish appends a message to the topic stream
func (q *RedisStreamQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}

	_, err := q.client.AddToStream(ctx, topic, q.maxLen, map[string]interface{}{
		"key":   key,
		"value": message,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe reads the topic through the queue's consumer group in a
// background goroutine. Messages are acked after the handler returns,
// including on handler error, which is logged.
func (q *RedisStreamQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	if q.ctx.Err() != nil {
		return ErrClosed
	}

	if err := q.client.CreateStreamGroup(ctx, topic, q.group); err != nil {
		return err
	}

	q.log.Info("subscribing to stream", "stream", topic, "group", q.group, "consumer", q.consumer)

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.consume(ctx, topic, handler)
	}()

	return nil
}

func (q *RedisStreamQueue) consume(ctx context.Context, topic string, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.ctx.Done():
			return
		default:
		}

		streams, err := q.client.ReadFromStreamGroup(ctx, q.group, q.consumer, topic, 10, q.block)
		if err != nil {
			if ctx.Err() != nil || q.ctx.Err() != nil {
				return
			}
			q.log.Warn("stream read failed, backing off", "stream", topic, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			case <-q.ctx.Done():
				return
			}
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				key, _ := msg.Values["key"].(string)
				value, _ := msg.Values["value"].(string)

				if err := handler(ctx, key, []byte(value)); err != nil {
					q.log.Error("message handler error", "stream", topic, "id", msg.ID, "error", err)
				}

				if err := q.client.AckStreamMessage(ctx, topic, q.group, msg.ID); err != nil {
					q.log.Warn("ack failed", "stream", topic, "id", msg.ID, "error", err)
				}
			}
		}
	}
}

// Close stops subscribers and waits for them to exit
func (q *RedisStreamQueue) Close() error {
	q.cancel()
	q.wg.Wait()
	return nil
}
