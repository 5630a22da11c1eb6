package dto

// GenerateFeesRequest 生成月度账单请求
type GenerateFeesRequest struct {
	Month string                 `json:"month" binding:"required"`
	Rates map[string]interface{} `json:"rates" binding:"required"`
}

// GenerateFeesResponse 生成月度账单结果
type GenerateFeesResponse struct {
	Message      string `json:"message"`
	CreatedCount int    `json:"created_count"`
}

// RegenerateFeesRequest 按新费率重新生成请求
type RegenerateFeesRequest struct {
	Month string                 `json:"month" binding:"required"`
	Rates map[string]interface{} `json:"rates" binding:"required"`
}

// RegenerateFeesResponse 重新生成结果
type RegenerateFeesResponse struct {
	Message         string `json:"message"`
	AuditID         string `json:"audit_id"`
	PreservedCount  int    `json:"preserved_count"`
	SupersededCount int    `json:"superseded_count"`
	CreatedCount    int    `json:"created_count"`
}

// RollbackRequest 回滚请求
type RollbackRequest struct {
	Month string `json:"month" binding:"required"`
}

// RollbackResponse 回滚结果
type RollbackResponse struct {
	Message       string `json:"message"`
	Success       bool   `json:"success"`
	RestoredCount int    `json:"restored_count"`
	DeletedCount  int    `json:"deleted_count"`
}

// UpdateFeeStatusRequest 修改账单状态
type UpdateFeeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=unpaid pending paid settled failed"`
}

// FeeItem 账单
type FeeItem struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Category     string `json:"category"`
	Amount       int64  `json:"amount"`
	Month        string `json:"month"`
	Status       string `json:"status"`
	DueDate      string `json:"due_date"`
	CreatedAt    string `json:"created_at"`
	Version      int    `json:"version"`
	Superseded   bool   `json:"superseded"`
	SupersededAt string `json:"superseded_at,omitempty"`
	ParentFeeID  string `json:"parent_fee_id,omitempty"`
}

// AuditEntry 审计记录
type AuditEntry struct {
	ID                string                 `json:"id"`
	Action            string                 `json:"action"`
	Month             string                 `json:"month"`
	AdminUser         string                 `json:"admin_user"`
	Timestamp         string                 `json:"timestamp"`
	Details           map[string]interface{} `json:"details"`
	AffectedFeesCount int                    `json:"affected_fees_count"`
	PaidFeesPreserved int                    `json:"paid_fees_preserved"`
	FeesSuperseded    int                    `json:"fees_superseded"`
	FeesCreated       int                    `json:"fees_created"`
	Reason            string                 `json:"reason,omitempty"`
	ParentAuditID     string                 `json:"parent_audit_id,omitempty"`
	TargetAuditID     string                 `json:"target_audit_id,omitempty"`
	SnapshotURL       string                 `json:"snapshot_url,omitempty"`
}
