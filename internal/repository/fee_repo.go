package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model"
)

type FeeRepository struct {
	db *gorm.DB
}

func NewFeeRepository(db *gorm.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

func (r *FeeRepository) Create(fee *model.Fee) error {
	return r.db.Create(fee).Error
}

func (r *FeeRepository) GetByID(id string) (*model.Fee, error) {
	var fee model.Fee
	err := r.db.Where("id = ?", id).First(&fee).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// ListAll 全部账单，includeSuperseded 为 false 时只返回当前有效的
func (r *FeeRepository) ListAll(includeSuperseded bool) ([]*model.Fee, error) {
	var fees []*model.Fee
	query := r.db.Model(&model.Fee{})
	if !includeSuperseded {
		query = query.Where("superseded = ?", false)
	}
	err := query.Order("month DESC").Order("created_at ASC").Find(&fees).Error
	return fees, err
}

func (r *FeeRepository) ListByMonth(month string, includeSuperseded bool) ([]*model.Fee, error) {
	var fees []*model.Fee
	query := r.db.Where("month = ?", month)
	if !includeSuperseded {
		query = query.Where("superseded = ?", false)
	}
	err := query.Order("created_at ASC").Find(&fees).Error
	return fees, err
}

// ListByMonthAndStatuses 某账期内状态属于 statuses 的有效账单
func (r *FeeRepository) ListByMonthAndStatuses(month string, statuses []string) ([]*model.Fee, error) {
	var fees []*model.Fee
	err := r.db.Where("month = ? AND status IN ? AND superseded = ?", month, statuses, false).
		Order("created_at ASC").
		Find(&fees).Error
	return fees, err
}

// ListActiveByUser 住户当前有效的账单
func (r *FeeRepository) ListActiveByUser(userID string) ([]*model.Fee, error) {
	var fees []*model.Fee
	err := r.db.Where("user_id = ? AND superseded = ?", userID, false).
		Order("month DESC").
		Order("version DESC").
		Find(&fees).Error
	return fees, err
}

// CountActive 同一 (user, category, month) 的有效账单数
func (r *FeeRepository) CountActive(userID, category, month string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Fee{}).
		Where("user_id = ? AND category = ? AND month = ? AND superseded = ?", userID, category, month, false).
		Count(&count).Error
	return count, err
}

// LatestInLineage 同一 (user, category, month) 中版本号最大的一条
func (r *FeeRepository) LatestInLineage(userID, category, month string) (*model.Fee, error) {
	var fee model.Fee
	err := r.db.Where("user_id = ? AND category = ? AND month = ?", userID, category, month).
		Order("version DESC").
		First(&fee).Error
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

// ListLineage 同一 (user, category, month) 的所有版本，按时间正序
func (r *FeeRepository) ListLineage(userID, category, month string) ([]*model.Fee, error) {
	var fees []*model.Fee
	err := r.db.Where("user_id = ? AND category = ? AND month = ?", userID, category, month).
		Order("version ASC").
		Order("created_at ASC").
		Find(&fees).Error
	return fees, err
}

// ListSupersededBy 被指定重新生成作废的账单
func (r *FeeRepository) ListSupersededBy(month, auditID string) ([]*model.Fee, error) {
	var fees []*model.Fee
	err := r.db.Where("month = ? AND superseded_by = ? AND superseded = ?", month, auditID, true).
		Order("created_at ASC").
		Find(&fees).Error
	return fees, err
}

// SupersedeByStatuses 将账期内未结清的有效账单批量作废（软删除）
func (r *FeeRepository) SupersedeByStatuses(month string, statuses []string, auditID, reason string, at time.Time) (int64, error) {
	result := r.db.Model(&model.Fee{}).
		Where("month = ? AND status IN ? AND superseded = ?", month, statuses, false).
		Updates(map[string]interface{}{
			"status":           model.FeeStatusSuperseded,
			"superseded":       true,
			"superseded_at":    at,
			"supersede_reason": reason,
			"superseded_by":    auditID,
		})
	return result.RowsAffected, result.Error
}

// RestoreSuperseded 将指定重新生成作废的账单恢复为未支付
func (r *FeeRepository) RestoreSuperseded(month, auditID string, since time.Time) (int64, error) {
	result := r.db.Model(&model.Fee{}).
		Where("month = ? AND status = ? AND superseded_by = ? AND superseded_at >= ?",
			month, model.FeeStatusSuperseded, auditID, since).
		Updates(map[string]interface{}{
			"status":           model.FeeStatusUnpaid,
			"superseded":       false,
			"superseded_at":    nil,
			"supersede_reason": nil,
			"superseded_by":    nil,
		})
	return result.RowsAffected, result.Error
}

// CountSettledGenerated 指定重新生成创建、且已结清的账单数
func (r *FeeRepository) CountSettledGenerated(month, auditID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Fee{}).
		Where("month = ? AND generation_id = ? AND status IN ?", month, auditID, model.SettledFeeStatuses).
		Count(&count).Error
	return count, err
}

// DeleteGenerated 删除指定重新生成创建的有效账单
func (r *FeeRepository) DeleteGenerated(month, auditID string, since time.Time) (int64, error) {
	result := r.db.
		Where("month = ? AND generation_id = ? AND superseded = ? AND created_at >= ?", month, auditID, false, since).
		Delete(&model.Fee{})
	return result.RowsAffected, result.Error
}

// UpdateStatus 修改有效账单的状态，已作废的账单不受影响
func (r *FeeRepository) UpdateStatus(id, status string) (int64, error) {
	result := r.db.Model(&model.Fee{}).
		Where("id = ? AND superseded = ?", id, false).
		Update("status", status)
	return result.RowsAffected, result.Error
}
