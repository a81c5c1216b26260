package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAssetEvent_RoundTrip(t *testing.T) {
	event := NewAssetDiscardedEvent("profile_images/a.jpg", 7, ReasonProfileReplaced)

	values, err := event.ToMap()
	require.NoError(t, err)
	assert.Equal(t, EventAssetDiscarded, values["type"])

	parsed, err := ParseAssetEvent(values)
	require.NoError(t, err)
	assert.Equal(t, event, parsed)
}

func TestParseAssetEvent_MissingData(t *testing.T) {
	_, err := ParseAssetEvent(map[string]interface{}{"type": EventAssetDiscarded})
	assert.Error(t, err)
}

func TestPublishConsumeAck(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	pub := NewPublisher(client)
	con := NewConsumer(client)

	require.NoError(t, con.EnsureGroup(ctx, StreamAssets, ConsumerGroupAssets))
	require.NoError(t, con.EnsureGroup(ctx, StreamAssets, ConsumerGroupAssets), "second call tolerates BUSYGROUP")

	_, err := pub.Publish(ctx, StreamAssets, NewAssetDiscardedEvent("post_images/x.jpg", 1, ReasonPostImage))
	require.NoError(t, err)

	msgs, err := con.Read(ctx, StreamAssets, ConsumerGroupAssets, "worker-1", 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "post_images/x.jpg", msgs[0].Event.Key)

	pending, err := con.Pending(ctx, StreamAssets, ConsumerGroupAssets)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	redelivered, err := con.ReadPending(ctx, StreamAssets, ConsumerGroupAssets, "worker-1", 10)
	require.NoError(t, err)
	require.Len(t, redelivered, 1)
	assert.Equal(t, msgs[0].ID, redelivered[0].ID)

	require.NoError(t, con.Ack(ctx, StreamAssets, ConsumerGroupAssets, msgs[0].ID))

	pending, err = con.Pending(ctx, StreamAssets, ConsumerGroupAssets)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending)
}
