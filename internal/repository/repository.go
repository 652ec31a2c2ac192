package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	Writer          WriterRepository
	WriterStatusLog WriterStatusLogRepository
	Shift           ShiftRepository
	Order           OrderRepository
	Submission      SubmissionRepository
	Payment         PaymentRepository
	PaymentLog      PaymentLogRepository
	SystemConfig    SystemConfigRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		Writer:          NewWriterRepo(db),
		WriterStatusLog: NewWriterStatusLogRepo(db),
		Shift:           NewShiftRepo(db),
		Order:           NewOrderRepo(db),
		Submission:      NewSubmissionRepo(db),
		Payment:         NewPaymentRepo(db),
		PaymentLog:      NewPaymentLogRepo(db),
		SystemConfig:    NewSystemConfigRepo(db),
	}
}

// BeginTx 开启事务
// 单元测试中 db 为 nil（仅注入 mock），此时返回 nil 事务，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 副本
// tx 为 nil 时原样返回，保证 mock 仓储在测试中继续生效
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
