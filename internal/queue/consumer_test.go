package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerFunc func(ctx context.Context, msg redis.XMessage) error

func (f handlerFunc) Handle(ctx context.Context, msg redis.XMessage) error { return f(ctx, msg) }

func setup(t *testing.T, h MessageHandler) (*Consumer, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewConsumer(client, Options{
		Stream:        "swap:events",
		Group:         "swap-workers",
		Consumer:      "test",
		ClaimInterval: time.Millisecond,
		Block:         10 * time.Millisecond,
	}, zerolog.Nop(), h)
	require.NoError(t, c.EnsureGroup(context.Background()))
	require.NoError(t, c.EnsureGroup(context.Background()), "second call tolerates BUSYGROUP")
	return c, client
}

func TestReadAcksHandledMessages(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c, client := setup(t, handlerFunc(func(_ context.Context, msg redis.XMessage) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Values["type"].(string))
		return nil
	}))
	ctx := context.Background()

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: "swap:events", Values: map[string]any{"type": "item.claimed"}}).Err())

	n, err := c.read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"item.claimed"}, seen)

	pending, err := client.XPending(ctx, "swap:events", "swap-workers").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Count)
}

func TestFailedMessagesAreReclaimed(t *testing.T) {
	attempts := 0
	c, client := setup(t, handlerFunc(func(context.Context, redis.XMessage) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient")
		}
		return nil
	}))
	ctx := context.Background()

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{Stream: "swap:events", Values: map[string]any{"type": "item.moderated"}}).Err())

	n, err := c.read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, c.claimStalled(ctx))
	assert.Equal(t, 2, attempts)

	pending, err := client.XPending(ctx, "swap:events", "swap-workers").Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending.Count)
}
