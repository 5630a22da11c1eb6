package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/config"
	"github.com/qs3c/ipl_server/internal/model"
	"github.com/qs3c/ipl_server/internal/model/dto"
	"github.com/qs3c/ipl_server/internal/pkg/billing"
	"github.com/qs3c/ipl_server/internal/pkg/clock"
	"github.com/qs3c/ipl_server/internal/pkg/lock"
	"github.com/qs3c/ipl_server/internal/pkg/metrics"
	"github.com/qs3c/ipl_server/internal/pkg/queue"
	"github.com/qs3c/ipl_server/internal/repository"
)

// SupersedeReason 重新生成时写入被作废账单的原因
const SupersedeReason = "Admin regenerate with new rates"

const defaultSystemAdmin = "system"

var (
	ErrMonthLocked        = errors.New("another fee operation is running for this month")
	ErrDuplicateActiveFee = errors.New("more than one active fee for the same user, category and month")
	ErrFeeNotFound        = errors.New("fee not found")
	ErrFeeSuperseded      = errors.New("fee has been superseded")
	ErrInvalidStatus      = errors.New("invalid fee status")
)

// Notifier 新建或恢复的账单通知住户
type Notifier interface {
	Notify(ctx context.Context, event string, fees []*model.Fee) error
}

// Archiver 归档重新生成前的账单快照，返回访问 URL
type Archiver interface {
	ArchiveSnapshot(month, auditID string, data []byte) (string, error)
}

type FeeService struct {
	txm         *repository.TxManager
	feeRepo     *repository.FeeRepository
	locker      lock.Locker
	clock       clock.Clock
	systemAdmin string
	notifier    Notifier
	archiver    Archiver
}

func NewFeeService(
	txm *repository.TxManager,
	feeRepo *repository.FeeRepository,
	locker lock.Locker,
	clk clock.Clock,
	cfg *config.Config,
) *FeeService {
	systemAdmin := cfg.Billing.SystemAdmin
	if systemAdmin == "" {
		systemAdmin = defaultSystemAdmin
	}
	return &FeeService{
		txm:         txm,
		feeRepo:     feeRepo,
		locker:      locker,
		clock:       clk,
		systemAdmin: systemAdmin,
	}
}

// SetNotifier 设置通知投递，未设置时不发通知
func (s *FeeService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetArchiver 设置快照归档，未设置时不归档
func (s *FeeService) SetArchiver(a Archiver) {
	s.archiver = a
}

// GenerateMonthlyFees 为所有住户生成某月账单，已有有效账单的住户跳过
func (s *FeeService) GenerateMonthlyFees(ctx context.Context, month string, rates billing.RateTable) (*dto.GenerateFeesResponse, error) {
	start := time.Now()

	unlock, err := s.acquire(ctx, month)
	if err != nil {
		metrics.ObserveOperation(metrics.OpGenerate, metrics.ResultError, start)
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	var created []*model.Fee
	err = s.txm.RunInTx(ctx, func(r *repository.Repos) error {
		var err error
		created, err = s.generate(r, month, rates, now, nil)
		return err
	})
	if err != nil {
		metrics.ObserveOperation(metrics.OpGenerate, metrics.ResultError, start)
		return nil, err
	}

	metrics.FeesCreated(metrics.OpGenerate, len(created))
	metrics.ObserveOperation(metrics.OpGenerate, metrics.ResultOK, start)
	log.Printf("Generated %d fees for %s", len(created), month)

	s.notify(ctx, queue.EventFeeCreated, created)

	return &dto.GenerateFeesResponse{
		Message:      fmt.Sprintf("%d fees generated for %s", len(created), month),
		CreatedCount: len(created),
	}, nil
}

// RegenerateFeesForMonth 按新费率重新生成：已支付的保留，未结清的作废后重建
func (s *FeeService) RegenerateFeesForMonth(ctx context.Context, month string, rates billing.RateTable, adminID string) (*dto.RegenerateFeesResponse, error) {
	start := time.Now()
	if adminID == "" {
		adminID = s.systemAdmin
	}

	unlock, err := s.acquire(ctx, month)
	if err != nil {
		metrics.ObserveOperation(metrics.OpRegenerate, metrics.ResultError, start)
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	auditID := uuid.NewString()

	var (
		preserved  []*model.Fee
		superseded int
		created    []*model.Fee
	)
	err = s.txm.RunInTx(ctx, func(r *repository.Repos) error {
		var err error
		ledger := NewLedgerService(r.Audits)

		preserved, err = r.Fees.ListByMonthAndStatuses(month, model.SettledFeeStatuses)
		if err != nil {
			return fmt.Errorf("list settled fees: %w", err)
		}

		candidates, err := r.Fees.ListByMonthAndStatuses(month, model.UnresolvedFeeStatuses)
		if err != nil {
			return fmt.Errorf("list unresolved fees: %w", err)
		}
		snapshotURL := s.archive(month, auditID, candidates)

		n, err := r.Fees.SupersedeByStatuses(month, model.UnresolvedFeeStatuses, auditID, SupersedeReason, now)
		if err != nil {
			return fmt.Errorf("supersede fees: %w", err)
		}
		superseded = int(n)

		created, err = s.generate(r, month, rates, now, &auditID)
		if err != nil {
			return err
		}

		parent, err := ledger.latest(month)
		if err != nil {
			return err
		}

		entry := &model.FeeAuditLog{
			ID:        auditID,
			Action:    model.AuditActionRegenerate,
			Month:     month,
			AdminUser: adminID,
			Timestamp: now,
			Details: model.JSONMap{
				"rates":              map[string]any(rates),
				"preserved_fee_ids":  feeIDs(preserved),
				"superseded_fee_ids": feeIDs(candidates),
				"created_fee_ids":    feeIDs(created),
			},
			AffectedFeesCount: superseded + len(created),
			PaidFeesPreserved: len(preserved),
			FeesSuperseded:    superseded,
			FeesCreated:       len(created),
			Reason:            SupersedeReason,
			SnapshotURL:       snapshotURL,
		}
		if parent != nil {
			entry.ParentAuditID = &parent.ID
		}
		return ledger.Record(entry)
	})
	if err != nil {
		metrics.ObserveOperation(metrics.OpRegenerate, metrics.ResultError, start)
		return nil, err
	}

	metrics.FeesSuperseded(superseded)
	metrics.FeesCreated(metrics.OpRegenerate, len(created))
	metrics.ObserveOperation(metrics.OpRegenerate, metrics.ResultOK, start)
	log.Printf("Regenerated fees for %s by %s: preserved=%d superseded=%d created=%d audit=%s",
		month, adminID, len(preserved), superseded, len(created), auditID)

	s.notify(ctx, queue.EventFeeCreated, created)

	message := fmt.Sprintf("%d fees regenerated for %s", len(created), month)
	if len(preserved) > 0 {
		message += fmt.Sprintf(", %d paid fees preserved", len(preserved))
	}

	return &dto.RegenerateFeesResponse{
		Message:         message,
		AuditID:         auditID,
		PreservedCount:  len(preserved),
		SupersededCount: superseded,
		CreatedCount:    len(created),
	}, nil
}

// RollbackRegeneration 撤销某月最近一次尚未回滚的重新生成
func (s *FeeService) RollbackRegeneration(ctx context.Context, month, adminID string) (*dto.RollbackResponse, error) {
	start := time.Now()
	if adminID == "" {
		adminID = s.systemAdmin
	}

	unlock, err := s.acquire(ctx, month)
	if err != nil {
		metrics.ObserveOperation(metrics.OpRollback, metrics.ResultError, start)
		return nil, err
	}
	defer unlock()

	now := s.clock.Now()
	result := metrics.ResultOK

	var (
		resp     *dto.RollbackResponse
		restored []*model.Fee
	)
	err = s.txm.RunInTx(ctx, func(r *repository.Repos) error {
		ledger := NewLedgerService(r.Audits)

		target, err := ledger.latest(month)
		if err != nil {
			return err
		}
		if target == nil {
			result = metrics.ResultNoop
			resp = &dto.RollbackResponse{
				Message: fmt.Sprintf("No regeneration to roll back for %s", month),
			}
			return nil
		}

		// 重新生成的账单一旦有人付款就不能再回滚
		settled, err := r.Fees.CountSettledGenerated(month, target.ID)
		if err != nil {
			return fmt.Errorf("count settled fees: %w", err)
		}
		if settled > 0 {
			result = metrics.ResultBlocked
			resp = &dto.RollbackResponse{
				Message: fmt.Sprintf("Cannot roll back %s: %d regenerated fees are already paid", month, settled),
			}
			return nil
		}

		restored, err = r.Fees.ListSupersededBy(month, target.ID)
		if err != nil {
			return fmt.Errorf("list superseded fees: %w", err)
		}

		nRestored, err := r.Fees.RestoreSuperseded(month, target.ID, target.Timestamp)
		if err != nil {
			return fmt.Errorf("restore fees: %w", err)
		}
		nDeleted, err := r.Fees.DeleteGenerated(month, target.ID, target.Timestamp)
		if err != nil {
			return fmt.Errorf("delete regenerated fees: %w", err)
		}

		entry := &model.FeeAuditLog{
			Action:    model.AuditActionRollback,
			Month:     month,
			AdminUser: adminID,
			Timestamp: now,
			Details: model.JSONMap{
				"restored_count": nRestored,
				"deleted_count":  nDeleted,
				"target_time":    target.Timestamp.Format(time.RFC3339),
			},
			AffectedFeesCount: int(nRestored),
			Reason:            "Admin rollback",
			TargetAuditID:     &target.ID,
		}
		if err := ledger.Record(entry); err != nil {
			return err
		}

		resp = &dto.RollbackResponse{
			Message:       fmt.Sprintf("Rollback succeeded, %d fees restored to unpaid", nRestored),
			Success:       true,
			RestoredCount: int(nRestored),
			DeletedCount:  int(nDeleted),
		}
		return nil
	})
	if err != nil {
		metrics.ObserveOperation(metrics.OpRollback, metrics.ResultError, start)
		return nil, err
	}

	metrics.ObserveOperation(metrics.OpRollback, result, start)
	if resp.Success {
		metrics.FeesRestored(resp.RestoredCount)
		metrics.FeesDeleted(resp.DeletedCount)
		log.Printf("Rolled back regeneration for %s by %s: restored=%d deleted=%d",
			month, adminID, resp.RestoredCount, resp.DeletedCount)
		s.notify(ctx, queue.EventFeeRestored, restored)
	}

	return resp, nil
}

// ListUserFees 住户当前账单，每个月只返回最新版本，按月份倒序
func (s *FeeService) ListUserFees(userID string) ([]*dto.FeeItem, error) {
	fees, err := s.feeRepo.ListActiveByUser(userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	items := make([]*dto.FeeItem, 0, len(fees))
	for _, f := range fees {
		if seen[f.Month] {
			continue
		}
		seen[f.Month] = true
		items = append(items, toFeeItem(f))
	}
	return items, nil
}

func (s *FeeService) ListAllFees(includeSuperseded bool) ([]*dto.FeeItem, error) {
	fees, err := s.feeRepo.ListAll(includeSuperseded)
	if err != nil {
		return nil, err
	}
	return toFeeItems(fees), nil
}

func (s *FeeService) ListFeesByMonth(month string, includeSuperseded bool) ([]*dto.FeeItem, error) {
	fees, err := s.feeRepo.ListByMonth(month, includeSuperseded)
	if err != nil {
		return nil, err
	}
	return toFeeItems(fees), nil
}

// UpdateFeeStatus 管理员或支付回调修改账单状态
func (s *FeeService) UpdateFeeStatus(feeID, status string) (*dto.FeeItem, error) {
	if !model.ValidFeeStatus(status) {
		return nil, ErrInvalidStatus
	}

	fee, err := s.feeRepo.GetByID(feeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeNotFound
		}
		return nil, err
	}
	if fee.Superseded {
		return nil, ErrFeeSuperseded
	}
	// MySQL 对未变化的行返回 0，不能当作已作废
	if fee.Status == status {
		return toFeeItem(fee), nil
	}

	n, err := s.feeRepo.UpdateStatus(feeID, status)
	if err != nil {
		return nil, err
	}
	// 读取之后被作废
	if n == 0 {
		return nil, ErrFeeSuperseded
	}

	fee.Status = status
	return toFeeItem(fee), nil
}

// GetFeeVersions 同一 (user, category, month) 的全部版本，旧的在前
func (s *FeeService) GetFeeVersions(feeID string) ([]*dto.FeeItem, error) {
	fee, err := s.feeRepo.GetByID(feeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeeNotFound
		}
		return nil, err
	}

	lineage, err := s.feeRepo.ListLineage(fee.UserID, fee.Category, fee.Month)
	if err != nil {
		return nil, err
	}
	return toFeeItems(lineage), nil
}

// generate 逐个住户生成账单，generationID 非空时记录创建它的重新生成
func (s *FeeService) generate(r *repository.Repos, month string, rates billing.RateTable, now time.Time, generationID *string) ([]*model.Fee, error) {
	users, err := r.Users.ListBillable()
	if err != nil {
		return nil, fmt.Errorf("list billable users: %w", err)
	}

	dueDate := billing.DueDate(month, now)
	var created []*model.Fee
	for _, u := range users {
		category, amount, ok := billing.Resolve(u.HouseTypeLabel(), rates)
		if !ok {
			continue
		}

		count, err := r.Fees.CountActive(u.ID, string(category), month)
		if err != nil {
			return nil, fmt.Errorf("count active fees: %w", err)
		}
		if count == 1 {
			continue
		}
		if count > 1 {
			return nil, fmt.Errorf("%w: user=%s category=%s month=%s", ErrDuplicateActiveFee, u.ID, category, month)
		}

		fee := &model.Fee{
			UserID:       u.ID,
			Category:     string(category),
			Amount:       amount,
			Month:        month,
			Status:       model.FeeStatusUnpaid,
			DueDate:      dueDate,
			CreatedAt:    now,
			Version:      1,
			GenerationID: generationID,
		}

		previous, err := r.Fees.LatestInLineage(u.ID, string(category), month)
		switch {
		case err == nil:
			fee.Version = previous.Version + 1
			fee.ParentFeeID = &previous.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("load fee lineage: %w", err)
		}

		if err := r.Fees.Create(fee); err != nil {
			return nil, fmt.Errorf("create fee: %w", err)
		}
		created = append(created, fee)
	}
	return created, nil
}

func (s *FeeService) acquire(ctx context.Context, month string) (func(), error) {
	unlock, err := s.locker.Acquire(ctx, month)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrMonthLocked
		}
		return nil, fmt.Errorf("acquire month lock: %w", err)
	}
	return unlock, nil
}

// archive 归档失败只记日志
func (s *FeeService) archive(month, auditID string, fees []*model.Fee) string {
	if s.archiver == nil || len(fees) == 0 {
		return ""
	}

	data, err := json.Marshal(fees)
	if err != nil {
		log.Printf("Failed to marshal fee snapshot for %s: %v", month, err)
		return ""
	}

	url, err := s.archiver.ArchiveSnapshot(month, auditID, data)
	if err != nil {
		log.Printf("Failed to archive fee snapshot for %s: %v", month, err)
		return ""
	}
	return url
}

func (s *FeeService) notify(ctx context.Context, event string, fees []*model.Fee) {
	if s.notifier == nil || len(fees) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, event, fees); err != nil {
		log.Printf("Failed to enqueue %d %s notifications: %v", len(fees), event, err)
	}
}

func feeIDs(fees []*model.Fee) []string {
	ids := make([]string, 0, len(fees))
	for _, f := range fees {
		ids = append(ids, f.ID)
	}
	return ids
}

func toFeeItems(fees []*model.Fee) []*dto.FeeItem {
	items := make([]*dto.FeeItem, 0, len(fees))
	for _, f := range fees {
		items = append(items, toFeeItem(f))
	}
	return items
}

func toFeeItem(f *model.Fee) *dto.FeeItem {
	item := &dto.FeeItem{
		ID:         f.ID,
		UserID:     f.UserID,
		Category:   f.Category,
		Amount:     f.Amount,
		Month:      f.Month,
		Status:     f.Status,
		DueDate:    f.DueDate.Format(time.RFC3339),
		CreatedAt:  f.CreatedAt.Format(time.RFC3339),
		Version:    f.Version,
		Superseded: f.Superseded,
	}
	if f.SupersededAt != nil {
		item.SupersededAt = f.SupersededAt.Format(time.RFC3339)
	}
	if f.ParentFeeID != nil {
		item.ParentFeeID = *f.ParentFeeID
	}
	return item
}
