package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easypro/backend/internal/model"
)

// WriterRepository 写手档案数据访问接口
type WriterRepository interface {
	Create(ctx context.Context, writer *model.Writer) error
	GetByID(ctx context.Context, id string) (*model.Writer, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Writer, error)
	GetByUserID(ctx context.Context, userID string) (*model.Writer, error)
	Update(ctx context.Context, writer *model.Writer) error
	List(ctx context.Context, filter WriterFilter) ([]model.Writer, int64, error)
	ListAll(ctx context.Context) ([]model.Writer, error)
	ListExpiredPenalties(ctx context.Context, now time.Time) ([]model.Writer, error)
	ResetAllShiftCounters(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	SumBalance(ctx context.Context) (decimal.Decimal, error)
}

// WriterStatusLogRepository 写手状态日志数据访问接口（只追加）
type WriterStatusLogRepository interface {
	Create(ctx context.Context, log *model.WriterStatusLog) error
	ListByWriter(ctx context.Context, writerID string, offset, limit int) ([]model.WriterStatusLog, int64, error)
}

// ── Writer Repository 实现 ──

type writerRepo struct {
	db *gorm.DB
}

// NewWriterRepo 创建 WriterRepository 实例
func NewWriterRepo(db *gorm.DB) WriterRepository {
	return &writerRepo{db: db}
}

func (r *writerRepo) Create(ctx context.Context, writer *model.Writer) error {
	return r.db.WithContext(ctx).Omit("User").Create(writer).Error
}

func (r *writerRepo) GetByID(ctx context.Context, id string) (*model.Writer, error) {
	var writer model.Writer
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("writer_id = ?", id).
		First(&writer).Error
	if err != nil {
		return nil, err
	}
	return &writer, nil
}

// GetByIDForUpdate 行级锁读取写手（须在事务中调用）
func (r *writerRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Writer, error) {
	var writer model.Writer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("writer_id = ?", id).
		First(&writer).Error
	if err != nil {
		return nil, err
	}
	return &writer, nil
}

func (r *writerRepo) GetByUserID(ctx context.Context, userID string) (*model.Writer, error) {
	var writer model.Writer
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&writer).Error
	if err != nil {
		return nil, err
	}
	return &writer, nil
}

func (r *writerRepo) Update(ctx context.Context, writer *model.Writer) error {
	return r.db.WithContext(ctx).Omit("User").Save(writer).Error
}

func (r *writerRepo) List(ctx context.Context, filter WriterFilter) ([]model.Writer, int64, error) {
	var writers []model.Writer
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Writer{}).
		Joins("JOIN users ON users.user_id = writers.user_id")

	if filter.Status != "" {
		db = db.Where("writers.status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("users.name ILIKE ? OR users.email ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("writers.created_at DESC").
		Find(&writers).Error; err != nil {
		return nil, 0, err
	}

	return writers, total, nil
}

// ListAll 全部写手（用于导出）
func (r *writerRepo) ListAll(ctx context.Context) ([]model.Writer, error) {
	var writers []model.Writer
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("lifetime_earnings DESC").
		Find(&writers).Error
	return writers, err
}

// ListExpiredPenalties 处罚已到期但状态仍未恢复的写手
func (r *writerRepo) ListExpiredPenalties(ctx context.Context, now time.Time) ([]model.Writer, error) {
	var writers []model.Writer
	err := r.db.WithContext(ctx).
		Where("status IN ? AND status_expires_at IS NOT NULL AND status_expires_at <= ?",
			[]model.WriterStatus{model.WriterProbation, model.WriterSuspended}, now).
		Find(&writers).Error
	return writers, err
}

// ResetAllShiftCounters 清零所有写手的本班次计数
func (r *writerRepo) ResetAllShiftCounters(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Writer{}).
		Where("1 = 1").
		Updates(map[string]interface{}{
			"current_shift_pages":  0,
			"current_shift_orders": 0,
		})
	return result.RowsAffected, result.Error
}

func (r *writerRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Writer{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// SumBalance 全部写手未结余额合计
func (r *writerRepo) SumBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Writer{}).
		Select("COALESCE(SUM(balance_usd), 0)").
		Scan(&total).Error
	return total, err
}

// ── WriterStatusLog Repository 实现 ──

type writerStatusLogRepo struct {
	db *gorm.DB
}

// NewWriterStatusLogRepo 创建 WriterStatusLogRepository 实例
func NewWriterStatusLogRepo(db *gorm.DB) WriterStatusLogRepository {
	return &writerStatusLogRepo{db: db}
}

func (r *writerStatusLogRepo) Create(ctx context.Context, log *model.WriterStatusLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *writerStatusLogRepo) ListByWriter(ctx context.Context, writerID string, offset, limit int) ([]model.WriterStatusLog, int64, error) {
	var logs []model.WriterStatusLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.WriterStatusLog{}).
		Where("writer_id = ?", writerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
