package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestNotificationEvent_JSON(t *testing.T) {
	event := &NotificationEvent{
		Type:           "fee_notification",
		UserID:         "u-1",
		NotificationID: "n-1",
		Title:          "Tagihan IPL 2025-03",
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "notification_id")
	_, hasMessage := raw["message"]
	_, hasAmount := raw["amount"]
	assert.False(t, hasMessage, "empty message should be omitted")
	assert.False(t, hasAmount, "zero amount should be omitted")
}

func TestPublisherSubscriber(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	received := make(chan *NotificationEvent, 1)
	go func() {
		subscriber.Subscribe(ctx, func(event *NotificationEvent) {
			received <- event
		})
	}()

	// 等待订阅建立
	time.Sleep(100 * time.Millisecond)

	err := publisher.PublishNotification(ctx, &NotificationEvent{
		UserID: "u-1",
		FeeID:  "f-1",
		Month:  "2025-03",
		Amount: 150000,
		Title:  "Tagihan IPL 2025-03",
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "fee_notification", event.Type)
		assert.Equal(t, "u-1", event.UserID)
		assert.Equal(t, int64(150000), event.Amount)
	case <-ctx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestSubscriber_StopsOnCancel(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(client).Subscribe(ctx, func(*NotificationEvent) {})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
