package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos 同一事务内的仓储集合
type Repos struct {
	Users  *UserRepository
	Fees   *FeeRepository
	Audits *AuditRepository
}

// TxManager 账单生成、重新生成、回滚的多步写入放在一个事务里
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx fn 返回错误或 panic 时整个事务回滚
func (m *TxManager) RunInTx(ctx context.Context, fn func(repos *Repos) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repos{
			Users:  NewUserRepository(tx),
			Fees:   NewFeeRepository(tx),
			Audits: NewAuditRepository(tx),
		})
	})
}
