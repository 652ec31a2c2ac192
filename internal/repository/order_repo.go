package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"easypro/backend/internal/model"
	pkgerrors "easypro/backend/pkg/errors"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error)
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
	LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error)
	CountByStatus(ctx context.Context) ([]StatusCount, error)
}

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepo 创建 OrderRepository 实例
func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("Writer").Create(order).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Writer").Preload("Writer.User").
		Where("order_id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 行级锁读取订单（须在事务中调用）
func (r *orderRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *orderRepo) Update(ctx context.Context, order *model.Order) error {
	oldVersion := order.Version
	result := r.db.WithContext(ctx).
		Model(order).
		Where("order_id = ? AND version = ?", order.OrderID, oldVersion).
		Updates(map[string]interface{}{
			"subject":                  order.Subject,
			"description":              order.Description,
			"deadline":                 order.Deadline,
			"pages":                    order.Pages,
			"cost_per_page":            order.CostPerPage,
			"total_amount":             order.TotalAmount,
			"writer_id":                order.WriterID,
			"status":                   order.Status,
			"cancellation_reason":      order.CancellationReason,
			"cancellation_consequence": order.CancellationConsequence,
			"cancelled_by":             order.CancelledBy,
			"cancelled_at":             order.CancelledAt,
			"file_paths":               order.FilePaths,
			"file_names":               order.FileNames,
			"updated_by":               order.UpdatedBy,
			"version":                  oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	order.Version = oldVersion + 1
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&model.Order{}).Error
}

func (r *orderRepo) List(ctx context.Context, filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Order{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.WriterID != "" {
		db = db.Where("writer_id = ?", filter.WriterID)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("order_number ILIKE ? OR subject ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Writer").Preload("Writer.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// CountByNumberPrefix 当天（同前缀）订单数
func (r *orderRepo) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// LatestNumberWithPrefix 同前缀中字典序最大的订单号，不存在时返回空串
func (r *orderRepo) LatestNumberWithPrefix(ctx context.Context, prefix string) (string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

func (r *orderRepo) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
