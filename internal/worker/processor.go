package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/pkg/pubsub"
	"github.com/qs3c/ipl_server/internal/pkg/queue"
	"github.com/qs3c/ipl_server/internal/repository"
)

// Publisher 在线推送
type Publisher interface {
	PublishNotification(ctx context.Context, event *pubsub.NotificationEvent) error
}

// Processor 把队列中的账单事件落库为站内通知并推送
type Processor struct {
	notificationRepo *repository.NotificationRepository
	publisher        Publisher
}

// NewProcessor 创建通知处理器，publisher 为 nil 时只落库
func NewProcessor(notificationRepo *repository.NotificationRepository, publisher Publisher) *Processor {
	return &Processor{
		notificationRepo: notificationRepo,
		publisher:        publisher,
	}
}

// Process 处理一条账单通知
func (p *Processor) Process(ctx context.Context, msg *queue.NotificationMessage) error {
	title, body, err := render(msg)
	if err != nil {
		return err
	}

	n := &model.Notification{
		UserID:  msg.UserID,
		Type:    model.NotificationTypeBill,
		Title:   title,
		Message: body,
	}
	if err := p.notificationRepo.Create(n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	if p.publisher == nil {
		return nil
	}
	// 推送失败不影响已落库的通知，住户下次拉取列表可见
	if err := p.publisher.PublishNotification(ctx, &pubsub.NotificationEvent{
		UserID:         msg.UserID,
		NotificationID: n.ID,
		Title:          title,
		Message:        body,
		FeeID:          msg.FeeID,
		Month:          msg.Month,
		Amount:         msg.Amount,
	}); err != nil {
		log.Printf("Failed to publish notification %s: %v", n.ID, err)
	}
	return nil
}

func render(msg *queue.NotificationMessage) (title, body string, err error) {
	switch msg.Event {
	case queue.EventFeeCreated:
		title = fmt.Sprintf("Tagihan IPL %s", msg.Month)
		if msg.Version > 1 {
			title = fmt.Sprintf("Tagihan IPL %s diperbarui", msg.Month)
		}
	case queue.EventFeeRestored:
		title = fmt.Sprintf("Tagihan IPL %s dipulihkan", msg.Month)
	default:
		return "", "", fmt.Errorf("unknown notification event %q", msg.Event)
	}
	body = fmt.Sprintf("Tagihan %s sebesar Rp%d, jatuh tempo %s", msg.Category, msg.Amount, msg.DueDate)
	return title, body, nil
}

// Run 启动 n 个消费者，直到 ctx 取消
func Run(ctx context.Context, q *queue.Queue, p *Processor, n int) {
	if n <= 0 {
		n = 1
	}
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func(workerID int) {
			defer func() { done <- struct{}{} }()
			consume(ctx, workerID, q, p)
		}(i)
	}
	for i := 0; i < n; i++ {
		<-done
	}
}

func consume(ctx context.Context, workerID int, q *queue.Queue, p *Processor) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		msg, err := q.Pop(ctx, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Worker %d: failed to pop notification: %v", workerID, err)
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		if err := p.Process(ctx, msg); err != nil {
			log.Printf("Worker %d: notification for fee %s failed: %v", workerID, msg.FeeID, err)
		}
	}
}
