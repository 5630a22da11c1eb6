package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelFeeNotifications = "fee_notifications"
)

// NotificationEvent 推送给在线住户的通知
type NotificationEvent struct {
	Type           string `json:"type"`
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
	Title          string `json:"title"`
	Message        string `json:"message,omitempty"`
	FeeID          string `json:"fee_id,omitempty"`
	Month          string `json:"month,omitempty"`
	Amount         int64  `json:"amount,omitempty"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishNotification 发布通知消息
func (p *Publisher) PublishNotification(ctx context.Context, event *NotificationEvent) error {
	event.Type = "fee_notification"

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	return p.client.Publish(ctx, ChannelFeeNotifications, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 订阅通知消息，ctx 取消时返回
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*NotificationEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelFeeNotifications)
	defer pubsub.Close()

	// 确认订阅成功后再开始消费
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
