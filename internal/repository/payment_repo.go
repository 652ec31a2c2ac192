package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easypro/backend/internal/model"
)

// PaymentRepository 付款数据访问接口
type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Payment, error)
	Update(ctx context.Context, payment *model.Payment) error
	List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error)
	SumByStatus(ctx context.Context, writerID string) ([]StatusSum, error)
}

// PaymentLogRepository 付款审计日志数据访问接口（只追加）
type PaymentLogRepository interface {
	Create(ctx context.Context, log *model.PaymentLog) error
	ListByPayment(ctx context.Context, paymentID string) ([]model.PaymentLog, error)
}

// ── Payment Repository 实现 ──

type paymentRepo struct {
	db *gorm.DB
}

// NewPaymentRepo 创建 PaymentRepository 实例
func NewPaymentRepo(db *gorm.DB) PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Omit("Writer").Create(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Preload("Writer").Preload("Writer.User").
		Where("payment_id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDForUpdate 行级锁读取付款（须在事务中调用），防止重复结算
func (r *paymentRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) Update(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Omit("Writer").Save(payment).Error
}

func (r *paymentRepo) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Payment{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.WriterID != "" {
		db = db.Where("writer_id = ?", filter.WriterID)
	}
	if filter.From != nil {
		db = db.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("created_at < ?", *filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		db = db.Offset(filter.Offset).Limit(filter.Limit)
	}
	if err := db.Preload("Writer").Preload("Writer.User").
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// SumByStatus 按状态汇总付款金额；writerID 为空时统计全部
func (r *paymentRepo) SumByStatus(ctx context.Context, writerID string) ([]StatusSum, error) {
	var rows []StatusSum
	db := r.db.WithContext(ctx).Model(&model.Payment{})
	if writerID != "" {
		db = db.Where("writer_id = ?", writerID)
	}
	err := db.Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// ── PaymentLog Repository 实现 ──

type paymentLogRepo struct {
	db *gorm.DB
}

// NewPaymentLogRepo 创建 PaymentLogRepository 实例
func NewPaymentLogRepo(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepo{db: db}
}

func (r *paymentLogRepo) Create(ctx context.Context, log *model.PaymentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *paymentLogRepo) ListByPayment(ctx context.Context, paymentID string) ([]model.PaymentLog, error) {
	var logs []model.PaymentLog
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
