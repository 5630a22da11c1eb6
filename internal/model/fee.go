package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 账单状态
const (
	FeeStatusUnpaid     = "unpaid"
	FeeStatusPending    = "pending" // 等待支付确认
	FeeStatusPaid       = "paid"
	FeeStatusSettled    = "settled"
	FeeStatusFailed     = "failed"
	FeeStatusSuperseded = "superseded"
)

// SettledFeeStatuses 已结清，重新生成时保留
var SettledFeeStatuses = []string{FeeStatusPaid, FeeStatusSettled}

// UnresolvedFeeStatuses 未结清，重新生成时作废
var UnresolvedFeeStatuses = []string{FeeStatusUnpaid, FeeStatusPending, FeeStatusFailed}

// Fee 一个住户某个账期的一笔 IPL 账单。
// 同一 (user, category, month) 任意时刻最多一条 superseded=false 的记录。
type Fee struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"size:36;not null;index:idx_fee_lineage" json:"user_id"`
	Category        string     `gorm:"size:20;not null;index:idx_fee_lineage" json:"category"`
	Amount          int64      `gorm:"not null" json:"amount"`
	Month           string     `gorm:"size:7;not null;index:idx_fee_lineage;index:idx_fee_month_status" json:"month"`
	Status          string     `gorm:"size:20;not null;index:idx_fee_month_status" json:"status"`
	DueDate         time.Time  `gorm:"not null" json:"due_date"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	Version         int        `gorm:"not null;default:1" json:"version"`
	Superseded      bool       `gorm:"not null;default:false" json:"superseded"`
	SupersededAt    *time.Time `json:"superseded_at,omitempty"`
	SupersedeReason *string    `gorm:"size:200" json:"supersede_reason,omitempty"`
	SupersededBy    *string    `gorm:"size:36;index" json:"superseded_by,omitempty"`  // 作废该账单的重新生成记录
	ParentFeeID     *string    `gorm:"size:36" json:"parent_fee_id,omitempty"`        // 上一版本
	GenerationID    *string    `gorm:"size:36;index" json:"generation_id,omitempty"` // 创建该账单的重新生成记录
}

func (Fee) TableName() string {
	return "fees"
}

func (f *Fee) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// IsSettled 是否已结清
func (f *Fee) IsSettled() bool {
	for _, s := range SettledFeeStatuses {
		if f.Status == s {
			return true
		}
	}
	return false
}

// ValidFeeStatus 可由管理员或支付流程设置的状态
func ValidFeeStatus(status string) bool {
	switch status {
	case FeeStatusUnpaid, FeeStatusPending, FeeStatusPaid, FeeStatusSettled, FeeStatusFailed:
		return true
	}
	return false
}
