package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easypro/backend/internal/model"
)

// SubmissionRepository 提交数据访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Submission, error)
	Update(ctx context.Context, sub *model.Submission) error
	List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error)
	ExistsForOrderInShift(ctx context.Context, writerID, orderID, shiftID string) (bool, error)
	CountByOrder(ctx context.Context, orderID string) (int64, error)
	SumPagesByOrder(ctx context.Context, orderID string, statuses []model.SubmissionStatus) (decimal.Decimal, error)
	SumPagesByWriterSince(ctx context.Context, writerID string, since time.Time) ([]StatusSum, error)
	CountByStatus(ctx context.Context, writerID string) ([]StatusCount, error)
	SumApprovedPagesSince(ctx context.Context, since time.Time) (decimal.Decimal, error)
	DailyApproved(ctx context.Context, since time.Time) ([]DailyAmount, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Omit("Order", "Writer").Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Writer").Preload("Writer.User").
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByIDForUpdate 行级锁读取提交（须在事务中调用），防止并发重复审核
func (r *submissionRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) Update(ctx context.Context, sub *model.Submission) error {
	return r.db.WithContext(ctx).Omit("Order", "Writer").Save(sub).Error
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Submission{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.WriterID != "" {
		db = db.Where("writer_id = ?", filter.WriterID)
	}
	if filter.OrderID != "" {
		db = db.Where("order_id = ?", filter.OrderID)
	}
	if filter.ShiftID != "" {
		db = db.Where("shift_id = ?", filter.ShiftID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Order").
		Preload("Writer").Preload("Writer.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

// ExistsForOrderInShift 写手本班次是否已对该订单提交过
func (r *submissionRepo) ExistsForOrderInShift(ctx context.Context, writerID, orderID, shiftID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("writer_id = ? AND order_id = ? AND shift_id = ?", writerID, orderID, shiftID).
		Count(&count).Error
	return count > 0, err
}

func (r *submissionRepo) CountByOrder(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}

// SumPagesByOrder 订单下指定状态的提交页数合计
func (r *submissionRepo) SumPagesByOrder(ctx context.Context, orderID string, statuses []model.SubmissionStatus) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("COALESCE(SUM(pages_worked), 0)").
		Where("order_id = ? AND status IN ?", orderID, statuses).
		Scan(&total).Error
	return total, err
}

// SumPagesByWriterSince 写手自 since 起按状态汇总的页数（Total 为页数）
func (r *submissionRepo) SumPagesByWriterSince(ctx context.Context, writerID string, since time.Time) ([]StatusSum, error) {
	var rows []StatusSum
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(pages_worked), 0) AS total").
		Where("writer_id = ? AND created_at >= ?", writerID, since).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// CountByStatus 按状态计数；writerID 为空时统计全部
func (r *submissionRepo) CountByStatus(ctx context.Context, writerID string) ([]StatusCount, error) {
	var rows []StatusCount
	db := r.db.WithContext(ctx).Model(&model.Submission{})
	if writerID != "" {
		db = db.Where("writer_id = ?", writerID)
	}
	err := db.Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// SumApprovedPagesSince 自 since 起创建且已通过的提交页数
func (r *submissionRepo) SumApprovedPagesSince(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("COALESCE(SUM(pages_worked), 0)").
		Where("status = ? AND created_at >= ?", model.SubmissionApproved, since).
		Scan(&total).Error
	return total, err
}

// DailyApproved 按审核日期汇总已通过的金额与页数
func (r *submissionRepo) DailyApproved(ctx context.Context, since time.Time) ([]DailyAmount, error) {
	var rows []DailyAmount
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Select("DATE_TRUNC('day', reviewed_at) AS day, COALESCE(SUM(amount), 0) AS amount, COALESCE(SUM(pages_worked), 0) AS pages").
		Where("status = ? AND reviewed_at >= ?", model.SubmissionApproved, since).
		Group("DATE_TRUNC('day', reviewed_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}
