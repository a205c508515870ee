package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fnhub/ingest/common/logger"
	rediscommon "github.com/fnhub/ingest/common/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	key   string
	value string
}

func collect(ch chan received) MessageHandler {
	return func(ctx context.Context, key string, value []byte) error {
		ch <- received{key: key, value: string(value)}
		return nil
	}
}

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 1)
	require.NoError(t, q.Subscribe(ctx, "deploy_requests", collect(got)))
	require.NoError(t, q.Publish(ctx, "deploy_requests", "a1", []byte("hello")))

	select {
	case msg := <-got:
		assert.Equal(t, received{key: "a1", value: "hello"}, msg)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_Closed(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, "t", "k", []byte("v")))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	assert.ErrorIs(t, q.Publish(ctx, "t", "k", []byte("v")), ErrClosed)
	assert.ErrorIs(t, q.Subscribe(ctx, "t", collect(make(chan received))), ErrClosed)
}

func TestMemoryQueue_NoSubscriberDiscards(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < topicBuffer+10; i++ {
		require.NoError(t, q.Publish(ctx, "deploy_requests", "early", nil))
	}

	got := make(chan received, 1)
	require.NoError(t, q.Subscribe(ctx, "deploy_requests", collect(got)))
	require.NoError(t, q.Publish(ctx, "deploy_requests", "late", []byte("v")))

	select {
	case msg := <-got:
		assert.Equal(t, "late", msg.key)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestMemoryQueue_SubscriptionEndStopsBuffering(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Subscribe(ctx, "t", collect(make(chan received, 1))))
	cancel()

	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return q.subs["t"] == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryQueue_FullTopicDrops(t *testing.T) {
	q := NewMemoryQueue(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	defer close(release)
	require.NoError(t, q.Subscribe(ctx, "t", func(ctx context.Context, key string, value []byte) error {
		<-release
		return nil
	}))

	for i := 0; i < topicBuffer; i++ {
		require.NoError(t, q.Publish(ctx, "t", "k", nil))
	}
	// full buffer is not an error for publishers
	assert.NoError(t, q.Publish(ctx, "t", "k", nil))
}

func newStreamQueue(t *testing.T) (*RedisStreamQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.Discard()
	q := NewRedisStreamQueue(rediscommon.NewClient(rdb, log), "ingestctl", "test", 100, log)
	q.block = 50 * time.Millisecond
	return q, mr
}

func TestRedisStreamQueue_Publish(t *testing.T) {
	q, mr := newStreamQueue(t)
	defer q.Close()

	require.NoError(t, q.Publish(context.Background(), "deploy_requests", "a1", []byte(`{"id":"x"}`)))

	entries, err := mr.Stream("deploy_requests")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fields := map[string]string{}
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		fields[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	assert.Equal(t, map[string]string{"key": "a1", "value": `{"id":"x"}`}, fields)
}

func TestRedisStreamQueue_Subscribe(t *testing.T) {
	q, _ := newStreamQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan received, 1)
	require.NoError(t, q.Subscribe(ctx, "deploy_requests", collect(got)))
	require.NoError(t, q.Publish(ctx, "deploy_requests", "a1", []byte("payload")))

	select {
	case msg := <-got:
		assert.Equal(t, received{key: "a1", value: "payload"}, msg)
	case <-time.After(3 * time.Second):
		t.Fatal("message not delivered")
	}

	cancel()
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Publish(context.Background(), "deploy_requests", "a1", nil), ErrClosed)
}
