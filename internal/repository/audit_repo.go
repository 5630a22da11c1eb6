package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model"
)

// AuditRepository 审计记录只提供追加和查询
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(entry *model.FeeAuditLog) error {
	return r.db.Create(entry).Error
}

func (r *AuditRepository) GetByID(id string) (*model.FeeAuditLog, error) {
	var entry model.FeeAuditLog
	err := r.db.Where("id = ?", id).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByMonthAndAction 按时间倒序
func (r *AuditRepository) ListByMonthAndAction(month, action string) ([]*model.FeeAuditLog, error) {
	var entries []*model.FeeAuditLog
	err := r.db.Where("month = ? AND action = ?", month, action).
		Order("timestamp DESC").
		Find(&entries).Error
	return entries, err
}

// ListByMonth 某账期的全部操作，按时间倒序
func (r *AuditRepository) ListByMonth(month string) ([]*model.FeeAuditLog, error) {
	var entries []*model.FeeAuditLog
	err := r.db.Where("month = ?", month).
		Order("timestamp DESC").
		Find(&entries).Error
	return entries, err
}

// LatestLiveRegeneration 最近一次尚未被回滚的重新生成
func (r *AuditRepository) LatestLiveRegeneration(month string) (*model.FeeAuditLog, error) {
	rolledBack := r.db.Model(&model.FeeAuditLog{}).
		Select("target_audit_id").
		Where("month = ? AND action = ? AND target_audit_id IS NOT NULL", month, model.AuditActionRollback)

	var entry model.FeeAuditLog
	err := r.db.Where("month = ? AND action = ?", month, model.AuditActionRegenerate).
		Where("id NOT IN (?)", rolledBack).
		Order("timestamp DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
