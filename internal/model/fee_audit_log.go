package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AuditActionRegenerate = "regenerate"
	AuditActionRollback   = "rollback"
)

// JSONMap 用于 JSON 对象字段
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONMap source type %T", value)
	}
	return json.Unmarshal(data, m)
}

// FeeAuditLog 重新生成 / 回滚的审计记录，只追加，不修改不删除
type FeeAuditLog struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Action            string    `gorm:"size:20;not null;index:idx_audit_month_action" json:"action"`
	Month             string    `gorm:"size:7;not null;index:idx_audit_month_action" json:"month"`
	AdminUser         string    `gorm:"size:50;not null" json:"admin_user"`
	Timestamp         time.Time `gorm:"not null;index" json:"timestamp"`
	Details           JSONMap   `gorm:"type:json" json:"details"`
	AffectedFeesCount int       `json:"affected_fees_count"`
	PaidFeesPreserved int       `json:"paid_fees_preserved"`
	FeesSuperseded    int       `json:"fees_superseded"`
	FeesCreated       int       `json:"fees_created"`
	Reason            string    `gorm:"size:200" json:"reason,omitempty"`
	ParentAuditID     *string   `gorm:"size:36" json:"parent_audit_id,omitempty"`       // 本次重新生成之前生效的那次
	TargetAuditID     *string   `gorm:"size:36;index" json:"target_audit_id,omitempty"` // 回滚记录指向被回滚的重新生成
	SnapshotURL       string    `gorm:"size:500" json:"snapshot_url,omitempty"`
}

func (FeeAuditLog) TableName() string {
	return "fee_audit_logs"
}

func (a *FeeAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
