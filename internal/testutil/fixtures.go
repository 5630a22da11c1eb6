package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/ipl_server/internal/model"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试住户，默认房屋类型为 60M2
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	houseType := "60M2"
	user := &model.User{
		Username:     fmt.Sprintf("resident_%d", n),
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Name:         fmt.Sprintf("Resident %d", n),
		Address:      "Jl. Melati",
		HouseNumber:  fmt.Sprintf("A-%d", n),
		HouseType:    &houseType,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithHouseType 设置房屋类型，空串表示未填写
func WithHouseType(houseType string) func(*model.User) {
	return func(u *model.User) {
		if houseType == "" {
			u.HouseType = nil
			return
		}
		u.HouseType = &houseType
	}
}

// WithAdmin 设置为管理员
func WithAdmin() func(*model.User) {
	return func(u *model.User) {
		u.IsAdmin = true
		u.HouseType = nil
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.PasswordHash = hash
	}
}

// TestFee 创建测试账单，默认 unpaid、版本 1
func TestFee(t *testing.T, db *gorm.DB, userID, month string, opts ...func(*model.Fee)) *model.Fee {
	t.Helper()

	now := time.Now()
	fee := &model.Fee{
		UserID:    userID,
		Category:  "60M2",
		Amount:    100000,
		Month:     month,
		Status:    model.FeeStatusUnpaid,
		DueDate:   now.AddDate(0, 0, 30),
		CreatedAt: now,
		Version:   1,
	}

	for _, opt := range opts {
		opt(fee)
	}

	if err := db.Create(fee).Error; err != nil {
		t.Fatalf("Failed to create test fee: %v", err)
	}

	return fee
}

// WithFeeStatus 设置账单状态
func WithFeeStatus(status string) func(*model.Fee) {
	return func(f *model.Fee) {
		f.Status = status
	}
}

// WithCategory 设置类型和金额
func WithCategory(category string, amount int64) func(*model.Fee) {
	return func(f *model.Fee) {
		f.Category = category
		f.Amount = amount
	}
}

// WithVersion 设置版本号
func WithVersion(version int) func(*model.Fee) {
	return func(f *model.Fee) {
		f.Version = version
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Fee) {
	return func(f *model.Fee) {
		f.CreatedAt = at
	}
}

// WithSuperseded 标记为已被指定重新生成作废
func WithSuperseded(auditID string, at time.Time) func(*model.Fee) {
	return func(f *model.Fee) {
		reason := "Admin regenerate with new rates"
		f.Status = model.FeeStatusSuperseded
		f.Superseded = true
		f.SupersededAt = &at
		f.SupersedeReason = &reason
		f.SupersededBy = &auditID
	}
}

// WithGeneration 标记为指定重新生成创建
func WithGeneration(auditID string) func(*model.Fee) {
	return func(f *model.Fee) {
		f.GenerationID = &auditID
	}
}

// TestAudit 创建测试审计记录
func TestAudit(t *testing.T, db *gorm.DB, action, month string, at time.Time, opts ...func(*model.FeeAuditLog)) *model.FeeAuditLog {
	t.Helper()

	entry := &model.FeeAuditLog{
		Action:    action,
		Month:     month,
		AdminUser: "admin",
		Timestamp: at,
		Details:   model.JSONMap{},
	}

	for _, opt := range opts {
		opt(entry)
	}

	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create test audit entry: %v", err)
	}

	return entry
}

// WithTarget 回滚记录指向的重新生成
func WithTarget(auditID string) func(*model.FeeAuditLog) {
	return func(a *model.FeeAuditLog) {
		a.TargetAuditID = &auditID
	}
}
