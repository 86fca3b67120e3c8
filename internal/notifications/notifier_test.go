package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierPublishUserReachesSubscriber(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == UserChannel(42) {
			received <- payload
		}
	}))

	// Subscription setup races with the publish on a fresh connection.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, n.PublishUser(ctx, 42, `{"type":"new_like"}`))

	select {
	case payload := <-received:
		assert.JSONEq(t, `{"type":"new_like"}`, payload)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never arrived")
	}
}

func TestNotifierNilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "x"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "x"))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:15", UserChannel(15))
}
