package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/repository"
)

var (
	ErrNoRegeneration = errors.New("no regeneration recorded for this month")
	ErrAuditNotFound  = errors.New("audit entry not found")
)

// LedgerService 重新生成 / 回滚的审计账本，只追加
type LedgerService struct {
	auditRepo *repository.AuditRepository
}

func NewLedgerService(auditRepo *repository.AuditRepository) *LedgerService {
	return &LedgerService{auditRepo: auditRepo}
}

// Record 追加一条审计记录
func (s *LedgerService) Record(entry *model.FeeAuditLog) error {
	if err := s.auditRepo.Create(entry); err != nil {
		return fmt.Errorf("record %s audit entry: %w", entry.Action, err)
	}
	return nil
}

// History 某月的重新生成记录，新的在前
func (s *LedgerService) History(month string) ([]*dto.AuditEntry, error) {
	entries, err := s.auditRepo.ListByMonthAndAction(month, model.AuditActionRegenerate)
	if err != nil {
		return nil, err
	}
	return toAuditEntries(entries), nil
}

// AllActions 某月的重新生成和回滚记录，新的在前
func (s *LedgerService) AllActions(month string) ([]*dto.AuditEntry, error) {
	entries, err := s.auditRepo.ListByMonth(month)
	if err != nil {
		return nil, err
	}
	return toAuditEntries(entries), nil
}

// Get 按 id 读取审计记录
func (s *LedgerService) Get(id string) (*dto.AuditEntry, error) {
	entry, err := s.auditRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditNotFound
		}
		return nil, err
	}
	return toAuditEntry(entry), nil
}

// LatestRegeneration 最近一次尚未被回滚的重新生成
func (s *LedgerService) LatestRegeneration(month string) (*dto.AuditEntry, error) {
	entry, err := s.latest(month)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNoRegeneration
	}
	return toAuditEntry(entry), nil
}

// latest 没有记录时返回 nil, nil
func (s *LedgerService) latest(month string) (*model.FeeAuditLog, error) {
	entry, err := s.auditRepo.LatestLiveRegeneration(month)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest regeneration: %w", err)
	}
	return entry, nil
}

func toAuditEntries(entries []*model.FeeAuditLog) []*dto.AuditEntry {
	out := make([]*dto.AuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditEntry(e))
	}
	return out
}

func toAuditEntry(e *model.FeeAuditLog) *dto.AuditEntry {
	item := &dto.AuditEntry{
		ID:                e.ID,
		Action:            e.Action,
		Month:             e.Month,
		AdminUser:         e.AdminUser,
		Timestamp:         e.Timestamp.Format(time.RFC3339),
		Details:           e.Details,
		AffectedFeesCount: e.AffectedFeesCount,
		PaidFeesPreserved: e.PaidFeesPreserved,
		FeesSuperseded:    e.FeesSuperseded,
		FeesCreated:       e.FeesCreated,
		Reason:            e.Reason,
		SnapshotURL:       e.SnapshotURL,
	}
	if e.ParentAuditID != nil {
		item.ParentAuditID = *e.ParentAuditID
	}
	if e.TargetAuditID != nil {
		item.TargetAuditID = *e.TargetAuditID
	}
	return item
}
