package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationListLimit = 50

type NotificationService struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationService(notificationRepo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// List 最近的通知
func (s *NotificationService) List(userID string) ([]*dto.NotificationItem, error) {
	list, err := s.notificationRepo.ListByUserID(userID, notificationListLimit)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.NotificationItem, 0, len(list))
	for _, n := range list {
		items = append(items, &dto.NotificationItem{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return items, nil
}

func (s *NotificationService) MarkRead(id, userID string) error {
	n, err := s.notificationRepo.GetForUser(id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	if n.IsRead {
		return nil
	}
	_, err = s.notificationRepo.MarkRead(id, userID)
	return err
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}
