package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easypro/backend/internal/model"
)

// ShiftRepository 班次数据访问接口
type ShiftRepository interface {
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetActive(ctx context.Context) (*model.Shift, error)
	LockActive(ctx context.Context) ([]model.Shift, error)
	ClearActive(ctx context.Context) error
	Update(ctx context.Context, shift *model.Shift) error
	List(ctx context.Context, offset, limit int) ([]model.Shift, int64, error)
	ListSince(ctx context.Context, since time.Time) ([]model.Shift, error)
}

type shiftRepo struct {
	db *gorm.DB
}

// NewShiftRepo 创建 ShiftRepository 实例
func NewShiftRepo(db *gorm.DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Create(shift).Error
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", id).
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func (r *shiftRepo) GetActive(ctx context.Context) (*model.Shift, error) {
	var shift model.Shift
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("start_time DESC").
		First(&shift).Error
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// LockActive 对当前活动班次加行锁（须在事务中调用）
// 并发换班时第二个事务在此阻塞，直到第一个提交
func (r *shiftRepo) LockActive(ctx context.Context) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_active = ?", true).
		Find(&shifts).Error
	return shifts, err
}

// ClearActive 将所有班次的 is_active 设为 false
func (r *shiftRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error
}

func (r *shiftRepo) Update(ctx context.Context, shift *model.Shift) error {
	return r.db.WithContext(ctx).Save(shift).Error
}

func (r *shiftRepo) List(ctx context.Context, offset, limit int) ([]model.Shift, int64, error) {
	var shifts []model.Shift
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Shift{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("start_time DESC").
		Find(&shifts).Error; err != nil {
		return nil, 0, err
	}

	return shifts, total, nil
}

// ListSince 开始时间不早于 since 的班次（升序）
func (r *shiftRepo) ListSince(ctx context.Context, since time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := r.db.WithContext(ctx).
		Where("start_time >= ?", since).
		Order("start_time ASC").
		Find(&shifts).Error
	return shifts, err
}
