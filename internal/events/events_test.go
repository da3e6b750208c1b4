package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDecode(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pub := NewStreamPublisher(client, "swap:events")
	require.NoError(t, pub.Publish(context.Background(), Event{Type: ItemClaimed, ItemID: "i1", UserID: "u1", At: at}))
	require.NoError(t, pub.Publish(context.Background(), Event{Type: ModerationBacklog, Pending: 3, At: at}))

	msgs, err := client.XRange(context.Background(), "swap:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	claimed, err := Decode(msgs[0].Values)
	require.NoError(t, err)
	assert.Equal(t, Event{Type: ItemClaimed, ItemID: "i1", UserID: "u1", At: at}, claimed)

	backlog, err := Decode(msgs[1].Values)
	require.NoError(t, err)
	assert.EqualValues(t, 3, backlog.Pending)
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := Decode(map[string]any{"item_id": "x"})
	assert.Error(t, err)

	_, err = Decode(map[string]any{"type": "item.claimed", "at": "yesterday"})
	assert.Error(t, err)
}
