package service

import (
	"context"
	"time"

	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/pkg/queue"
)

// QueueNotifier 把账单事件写入 redis 队列，由 worker 落库并推送
type QueueNotifier struct {
	queue *queue.Queue
}

func NewQueueNotifier(q *queue.Queue) *QueueNotifier {
	return &QueueNotifier{queue: q}
}

func (n *QueueNotifier) Notify(ctx context.Context, event string, fees []*model.Fee) error {
	msgs := make([]*queue.NotificationMessage, 0, len(fees))
	for _, f := range fees {
		msgs = append(msgs, &queue.NotificationMessage{
			Event:    event,
			UserID:   f.UserID,
			FeeID:    f.ID,
			Month:    f.Month,
			Category: f.Category,
			Amount:   f.Amount,
			DueDate:  f.DueDate.Format(time.DateOnly),
			Version:  f.Version,
		})
	}
	return n.queue.PushBatch(ctx, msgs)
}
