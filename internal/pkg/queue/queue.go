package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 账单事件
const (
	EventFeeCreated  = "fee_created"
	EventFeeRestored = "fee_restored"
)

type Queue struct {
	client    *redis.Client
	queueName string
}

// NotificationMessage 待投递给住户的账单通知
type NotificationMessage struct {
	Event    string `json:"event"`
	UserID   string `json:"user_id"`
	FeeID    string `json:"fee_id"`
	Month    string `json:"month"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
	DueDate  string `json:"due_date"`
	Version  int    `json:"version"`
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将通知加入队列
func (q *Queue) Push(ctx context.Context, msg *NotificationMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// PushBatch 一次写入多条，管道提交
func (q *Queue) PushBatch(ctx context.Context, msgs []*NotificationMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	pipe := q.client.TxPipeline()
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		pipe.LPush(ctx, q.queueName, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push batch: %w", err)
	}
	return nil
}

// Pop 从队列获取通知（阻塞）
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*NotificationMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，无消息
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg NotificationMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
