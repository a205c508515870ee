package queue

import (
	"context"
	"sync"

	"github.com/fnhub/ingest/common/logger"
)

// Queue interface for message passing
type Queue interface {
	Publish(ctx context.Context, topic string, key string, message []byte) error
	Subscribe(ctx context.Context, topic string, handler MessageHandler) error
	Close() error
}

// MessageHandler processes messages
type MessageHandler func(ctx context.Context, key string, value []byte) error

// Message represents a queue message
type Message struct {
	Topic string
	Key   string
	Value []byte
}

// topicBuffer bounds each in-memory topic
const topicBuffer = 1000

// MemoryQueue is an in-process queue for development and tests.
// Messages published to a topic nobody in the process subscribes to are
// discarded. Messages published while a topic buffer is full are dropped
// with a warning.
type MemoryQueue struct {
	topics map[string]chan *Message
	subs   map[string]int
	mu     sync.Mutex
	closed bool
	log    *logger.Logger
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(log *logger.Logger) *MemoryQueue {
	return &MemoryQueue{
		topics: make(map[string]chan *Message),
		subs:   make(map[string]int),
		log:    log,
	}
}

// topic returns the channel for name, creating it. Caller holds q.mu.
func (q *MemoryQueue) topic(name string) chan *Message {
	ch, exists := q.topics[name]
	if !exists {
		ch = make(chan *Message, topicBuffer)
		q.topics[name] = ch
	}
	return ch
}

// Publish publishes a message to a topic
func (q *MemoryQueue) Publish(ctx context.Context, topic string, key string, message []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.subs[topic] == 0 {
		q.log.Debug("no subscriber, message discarded", "topic", topic, "key", key)
		return nil
	}

	msg := &Message{
		Topic: topic,
		Key:   key,
		Value: message,
	}

	select {
	case q.topic(topic) <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		q.log.Warn("queue full, message dropped", "topic", topic, "key", key)
		return nil
	}
}

// Subscribe consumes a topic in a background goroutine until ctx is done
// or the queue is closed. Only messages published while a subscription is
// live are delivered.
func (q *MemoryQueue) Subscribe(ctx context.Context, topic string, handler MessageHandler) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	ch := q.topic(topic)
	q.subs[topic]++
	q.mu.Unlock()

	q.log.Info("subscribing to topic", "topic", topic)

	go func() {
		defer func() {
			q.mu.Lock()
			q.subs[topic]--
			q.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				q.log.Info("subscription cancelled", "topic", topic)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := handler(ctx, msg.Key, msg.Value); err != nil {
					q.log.Error("message handler error", "topic", topic, "key", msg.Key, "error", err)
				}
			}
		}
	}()

	return nil
}

// Close closes every topic
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true

	for topic, ch := range q.topics {
		close(ch)
		q.log.Debug("closed topic", "topic", topic)
	}

	return nil
}
