package pubsub

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelRoundTrip(t *testing.T) {
	topic, key, err := splitChannel(Channel("notifications", "01HX"))
	require.NoError(t, err)
	assert.Equal(t, "notifications", topic)
	assert.Equal(t, "01HX", key)

	for _, bad := range []string{"", "notifications", ":key", "topic:"} {
		_, _, err := splitChannel(bad)
		assert.Error(t, err, bad)
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "notifications:p1")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisherFromClient(client)
	evt, err := NewEvent("liked", "p1", map[string]string{"diary_id": "d1"})
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, Channel("notifications", "p1"), evt))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Payload, `"type":"liked"`)
	assert.Contains(t, msg.Payload, `"diary_id":"d1"`)

	require.NoError(t, pub.Close())
	assert.NoError(t, client.Ping(ctx).Err(), "borrowed client stays open")
}

func TestNewPublisher_None(t *testing.T) {
	pub, err := NewPublisher(Config{Driver: "none"})
	require.NoError(t, err)
	assert.NoError(t, pub.Publish(context.Background(), "x:y", &Event{}))

	_, err = NewPublisher(Config{Driver: "nats"})
	assert.Error(t, err)
}
