package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"easypro/backend/config"
	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/queue"
	"easypro/backend/pkg/redis"
	"easypro/backend/pkg/storage"
)

// ── 订单模块业务错误 ──

var (
	ErrOrderNotFound          = pkgerrors.New(pkgerrors.ErrNotFound, "订单不存在")
	ErrOrderForbidden         = pkgerrors.New(pkgerrors.ErrForbidden, "无权访问该订单")
	ErrOrderNumberExists      = pkgerrors.New(pkgerrors.ErrConflict, "订单号已存在")
	ErrOrderInvalidAmount     = pkgerrors.New(pkgerrors.ErrInvalidInput, "页数与单价必须大于 0")
	ErrOrderClosed            = pkgerrors.New(pkgerrors.ErrInvalidState, "订单已提交或已取消，不能修改")
	ErrOrderTransition        = pkgerrors.New(pkgerrors.ErrInvalidState, "订单当前状态不允许该操作")
	ErrOrderNotAssigned       = pkgerrors.New(pkgerrors.ErrInvalidState, "订单尚未指派写手")
	ErrOrderNotCancellable    = pkgerrors.New(pkgerrors.ErrInvalidState, "订单已提交或已取消，不能取消")
	ErrOrderNotDeletable      = pkgerrors.New(pkgerrors.ErrInvalidState, "仅可删除无提交记录的待开始订单")
	ErrWriterCannotTakeOrders = pkgerrors.New(pkgerrors.ErrInvalidState, "写手已停职，不能接单")
	ErrInvalidConsequence     = pkgerrors.New(pkgerrors.ErrInvalidInput, "无效的取消处罚类型")
)

// orderNumberRetries 自动生成订单号并发冲突时的重试次数
const orderNumberRetries = 3

// OrderService 订单业务接口
// scopeWriterID 非空时表示写手视角，只能访问自己的订单
type OrderService interface {
	Create(ctx context.Context, req *dto.CreateOrderRequest, files []storage.StoredFile, callerID string) (*dto.OrderResponse, error)
	CreateExternal(ctx context.Context, req *dto.CreateExternalOrderRequest, files []storage.StoredFile, writerID, callerID string) (*dto.OrderResponse, error)
	Get(ctx context.Context, id, scopeWriterID string) (*dto.OrderResponse, error)
	List(ctx context.Context, req *dto.OrderListRequest, scopeWriterID string) ([]dto.OrderResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateOrderRequest, callerID string) (*dto.OrderResponse, error)
	AssignToWriter(ctx context.Context, id, writerID, callerID string) (*dto.OrderResponse, error)
	MarkInProgress(ctx context.Context, id, scopeWriterID, callerID string) (*dto.OrderResponse, error)
	MarkSubmitted(ctx context.Context, id, scopeWriterID, callerID string) (*dto.OrderResponse, error)
	CancelOrder(ctx context.Context, id string, req *dto.CancelOrderRequest, callerID string) (*dto.OrderResponse, error)
	Delete(ctx context.Context, id string) ([]string, error)
}

type orderService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	pub    queue.Publisher
	logger *zap.Logger
}

// NewOrderService 创建 OrderService 实例
func NewOrderService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	pub queue.Publisher,
	logger *zap.Logger,
) OrderService {
	return &orderService{cfg: cfg, repo: repo, rdb: rdb, pub: pub, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *orderService) Create(ctx context.Context, req *dto.CreateOrderRequest, files []storage.StoredFile, callerID string) (*dto.OrderResponse, error) {
	pages, cpp, err := orderAmounts(req.Pages, req.CostPerPage)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Deadline:    req.Deadline.UTC(),
		Pages:       pages,
		CostPerPage: cpp,
		Status:      model.OrderAssigned,
	}
	order.CreatedBy = &callerID
	order.RecomputeTotal()
	order.FilePaths, order.FileNames = storage.Split(files)

	if req.WriterID != "" {
		writer, err := getWriter(ctx, s.repo, s.logger, req.WriterID)
		if err != nil {
			return nil, err
		}
		if !writer.Status.CanReceiveWork() {
			return nil, ErrWriterCannotTakeOrders
		}
		order.WriterID = &writer.WriterID
	}

	if err := s.insert(ctx, order, req.OrderNumber); err != nil {
		return nil, err
	}

	s.logger.Info("订单已创建",
		zap.String("order_id", order.OrderID),
		zap.String("order_number", order.OrderNumber),
		zap.String("created_by", callerID),
	)
	return s.Get(ctx, order.OrderID, "")
}

// ────────────────────── CreateExternal ──────────────────────

// CreateExternal 写手登记外部订单，直接指派给自己
func (s *orderService) CreateExternal(ctx context.Context, req *dto.CreateExternalOrderRequest, files []storage.StoredFile, writerID, callerID string) (*dto.OrderResponse, error) {
	pages, cpp, err := orderAmounts(req.Pages, req.CostPerPage)
	if err != nil {
		return nil, err
	}

	writer, err := getWriter(ctx, s.repo, s.logger, writerID)
	if err != nil {
		return nil, err
	}
	if !writer.Status.CanReceiveWork() {
		return nil, ErrWriterCannotTakeOrders
	}

	order := &model.Order{
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Deadline:    req.Deadline.UTC(),
		Pages:       pages,
		CostPerPage: cpp,
		WriterID:    &writer.WriterID,
		Status:      model.OrderAssigned,
		IsExternal:  true,
	}
	order.CreatedBy = &callerID
	order.RecomputeTotal()
	order.FilePaths, order.FileNames = storage.Split(files)

	if err := s.insert(ctx, order, req.OrderNumber); err != nil {
		return nil, err
	}
	return s.Get(ctx, order.OrderID, writerID)
}

// ────────────────────── Get ──────────────────────

func (s *orderService) Get(ctx context.Context, id, scopeWriterID string) (*dto.OrderResponse, error) {
	order, err := s.getOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if scopeWriterID != "" && !order.IsAssignedTo(scopeWriterID) {
		return nil, ErrOrderForbidden
	}
	return toOrderResponse(order), nil
}

// ────────────────────── List ──────────────────────

func (s *orderService) List(ctx context.Context, req *dto.OrderListRequest, scopeWriterID string) ([]dto.OrderResponse, int64, error) {
	filter := repository.OrderFilter{
		Status:   req.Status,
		WriterID: req.WriterID,
		Keyword:  req.Keyword,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	}
	if scopeWriterID != "" {
		filter.WriterID = scopeWriterID
	}

	orders, total, err := s.repo.Order.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出订单失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		list = append(list, *toOrderResponse(&orders[i]))
	}
	return list, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *orderService) Update(ctx context.Context, id string, req *dto.UpdateOrderRequest, callerID string) (*dto.OrderResponse, error) {
	var pages, cpp decimal.Decimal
	if req.Pages != nil {
		p, ok := roundPositive(*req.Pages)
		if !ok {
			return nil, ErrOrderInvalidAmount
		}
		pages = p
	}
	if req.CostPerPage != nil {
		c, ok := roundPositive(*req.CostPerPage)
		if !ok {
			return nil, ErrOrderInvalidAmount
		}
		cpp = c
	}

	order, err := s.getOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, ErrOrderClosed
	}

	if req.Subject != nil {
		order.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		order.Description = *req.Description
	}
	if req.Deadline != nil {
		order.Deadline = req.Deadline.UTC()
	}
	if req.Pages != nil {
		order.Pages = pages
	}
	if req.CostPerPage != nil {
		order.CostPerPage = cpp
	}
	order.RecomputeTotal()
	if !order.TotalAmount.IsPositive() {
		return nil, ErrOrderInvalidAmount
	}
	order.UpdatedBy = &callerID
	// 乐观锁：以客户端读取时的版本为准
	order.Version = req.Version

	if err := s.repo.Order.Update(ctx, order); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新订单失败", zap.String("order_id", id), zap.Error(err))
		}
		return nil, err
	}
	return toOrderResponse(order), nil
}

// ────────────────────── AssignToWriter ──────────────────────

func (s *orderService) AssignToWriter(ctx context.Context, id, writerID, callerID string) (*dto.OrderResponse, error) {
	var order *model.Order
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		o, err := s.lockOrder(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(model.OrderAssigned) {
			return ErrOrderTransition
		}

		writer, err := getWriter(ctx, txRepo, s.logger, writerID)
		if err != nil {
			return err
		}
		if !writer.Status.CanReceiveWork() {
			return ErrWriterCannotTakeOrders
		}

		o.WriterID = &writer.WriterID
		o.Status = model.OrderAssigned
		o.UpdatedBy = &callerID
		if err := txRepo.Order.Update(ctx, o); err != nil {
			s.logger.Error("指派订单失败", zap.String("order_id", id), zap.Error(err))
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("订单已指派",
		zap.String("order_id", id),
		zap.String("writer_id", writerID),
		zap.String("assigned_by", callerID),
	)
	return s.Get(ctx, order.OrderID, "")
}

// ────────────────────── MarkInProgress / MarkSubmitted ──────────────────────

func (s *orderService) MarkInProgress(ctx context.Context, id, scopeWriterID, callerID string) (*dto.OrderResponse, error) {
	return s.advance(ctx, id, scopeWriterID, callerID, model.OrderAssigned, model.OrderInProgress)
}

func (s *orderService) MarkSubmitted(ctx context.Context, id, scopeWriterID, callerID string) (*dto.OrderResponse, error) {
	return s.advance(ctx, id, scopeWriterID, callerID, model.OrderInProgress, model.OrderSubmitted)
}

// advance 单步推进订单状态，from 为唯一允许的起始状态
func (s *orderService) advance(ctx context.Context, id, scopeWriterID, callerID string, from, to model.OrderStatus) (*dto.OrderResponse, error) {
	var order *model.Order
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		o, err := s.lockOrder(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if scopeWriterID != "" && !o.IsAssignedTo(scopeWriterID) {
			return ErrOrderForbidden
		}
		if o.WriterID == nil {
			return ErrOrderNotAssigned
		}
		if o.Status != from || !o.Status.CanTransitionTo(to) {
			return ErrOrderTransition
		}

		o.Status = to
		o.UpdatedBy = &callerID
		if err := txRepo.Order.Update(ctx, o); err != nil {
			s.logger.Error("更新订单状态失败", zap.String("order_id", id), zap.Error(err))
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, order.OrderID, "")
}

// ────────────────────── CancelOrder ──────────────────────

// CancelOrder 取消订单；指定处罚且已有写手时，在同一事务内对写手追加处罚
func (s *orderService) CancelOrder(ctx context.Context, id string, req *dto.CancelOrderRequest, callerID string) (*dto.OrderResponse, error) {
	var consequence *model.StatusAction
	if req.Consequence != "" {
		c := model.StatusAction(req.Consequence)
		if !c.Valid() || c == model.ActionActivation {
			return nil, ErrInvalidConsequence
		}
		consequence = &c
	}

	st := loadSettings(ctx, s.cfg, s.repo, s.logger)
	now := nowFunc()

	var (
		order        *model.Order
		entry        *model.WriterStatusLog
		penalizedUID string
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		o, err := s.lockOrder(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(model.OrderCancelled) {
			return ErrOrderNotCancellable
		}

		reason := strings.TrimSpace(req.Reason)
		o.Status = model.OrderCancelled
		o.CancellationReason = &reason
		o.CancellationConsequence = consequence
		o.CancelledBy = &callerID
		o.CancelledAt = &now
		o.UpdatedBy = &callerID
		if err := txRepo.Order.Update(ctx, o); err != nil {
			s.logger.Error("取消订单失败", zap.String("order_id", id), zap.Error(err))
			return err
		}

		if consequence != nil && o.WriterID != nil {
			w, err := txRepo.Writer.GetByIDForUpdate(ctx, *o.WriterID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWriterNotFound
				}
				return err
			}
			entry, err = applyStatusAction(ctx, txRepo, st, w, statusChange{
				Action:       *consequence,
				Reason:       fmt.Sprintf("订单 %s 取消：%s", o.OrderNumber, reason),
				AdminID:      &callerID,
				Now:          now,
				EscalateOnly: true,
			})
			if err != nil {
				return err
			}
			if *consequence != model.ActionWarning {
				if err := txRepo.User.IncrementTokenVersion(ctx, w.UserID); err != nil {
					s.logger.Error("递增 token_version 失败", zap.String("user_id", w.UserID), zap.Error(err))
					return err
				}
				penalizedUID = w.UserID
			}
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if penalizedUID != "" {
		syncTokenVersion(ctx, s.repo, s.rdb, s.cfg.Auth.AccessTokenTTL, s.logger, penalizedUID)
	}
	publishStatusChange(ctx, s.pub, s.logger, entry)

	event := queue.OrderCancelledEvent{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		WriterID:    derefString(order.WriterID),
		Reason:      derefString(order.CancellationReason),
		CancelledBy: callerID,
		CancelledAt: now,
	}
	if consequence != nil {
		event.Consequence = string(*consequence)
	}
	publish(ctx, s.pub, s.logger, queue.RoutingOrderCancelled, event)

	s.logger.Info("订单已取消",
		zap.String("order_id", id),
		zap.String("consequence", event.Consequence),
		zap.String("cancelled_by", callerID),
	)
	return s.Get(ctx, order.OrderID, "")
}

// ────────────────────── Delete ──────────────────────

// Delete 删除订单，返回需要清理的附件路径
func (s *orderService) Delete(ctx context.Context, id string) ([]string, error) {
	order, err := s.getOrder(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderAssigned {
		return nil, ErrOrderNotDeletable
	}

	count, err := s.repo.Submission.CountByOrder(ctx, id)
	if err != nil {
		s.logger.Error("统计订单提交失败", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	if count > 0 {
		return nil, ErrOrderNotDeletable
	}

	if err := s.repo.Order.Delete(ctx, id); err != nil {
		s.logger.Error("删除订单失败", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return order.FilePaths, nil
}

// ── 内部方法 ──

// insert 写入订单；未指定订单号时自动生成，唯一冲突时重试
func (s *orderService) insert(ctx context.Context, order *model.Order, requested string) error {
	if requested != "" {
		if _, err := s.repo.Order.GetByNumber(ctx, requested); err == nil {
			return ErrOrderNumberExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		order.OrderNumber = requested
		if err := s.repo.Order.Create(ctx, order); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrOrderNumberExists
			}
			s.logger.Error("创建订单失败", zap.Error(err))
			return err
		}
		return nil
	}

	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		number, err := nextOrderNumber(ctx, s.repo, nowFunc().In(s.cfg.Shift.Location()))
		if err != nil {
			s.logger.Error("生成订单号失败", zap.Error(err))
			return err
		}
		order.OrderNumber = number
		err = s.repo.Order.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("创建订单失败", zap.Error(err))
			return err
		}
		s.logger.Warn("订单号冲突，重试", zap.String("order_number", number), zap.Int("attempt", attempt+1))
	}
	return ErrOrderNumberExists
}

// nextOrderNumber 生成 {YYYYMMDD}{NNN}
// NNN = 1 + max(当天订单数, 当天字典序最大订单号的序号)
func nextOrderNumber(ctx context.Context, repo *repository.Repository, day time.Time) (string, error) {
	prefix := day.Format("20060102")

	count, err := repo.Order.CountByNumberPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	latest, err := repo.Order.LatestNumberWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := count
	if suffix := strings.TrimPrefix(latest, prefix); latest != "" && suffix != "" {
		if n, err := strconv.ParseInt(suffix, 10, 64); err == nil && n > seq {
			seq = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

func (s *orderService) getOrder(ctx context.Context, repo *repository.Repository, id string) (*model.Order, error) {
	order, err := repo.Order.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("查询订单失败", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return order, nil
}

// orderAmounts 页数与单价按列精度取整后校验，总额取整后也须大于 0
func orderAmounts(pages, cpp decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	p, okPages := roundPositive(pages)
	c, okCpp := roundPositive(cpp)
	if !okPages || !okCpp || !p.Mul(c).Round(2).IsPositive() {
		return decimal.Zero, decimal.Zero, ErrOrderInvalidAmount
	}
	return p, c, nil
}

func (s *orderService) lockOrder(ctx context.Context, txRepo *repository.Repository, id string) (*model.Order, error) {
	order, err := txRepo.Order.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		s.logger.Error("锁定订单失败", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return order, nil
}

func toAttachments(paths, names []string) []dto.AttachmentResponse {
	if len(paths) == 0 {
		return nil
	}
	list := make([]dto.AttachmentResponse, 0, len(paths))
	for i, p := range paths {
		name := p
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		list = append(list, dto.AttachmentResponse{Path: p, Name: name})
	}
	return list
}

func toOrderResponse(o *model.Order) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:                 o.OrderID,
		OrderNumber:        o.OrderNumber,
		Subject:            o.Subject,
		Description:        o.Description,
		Deadline:           formatTime(o.Deadline),
		Pages:              o.Pages,
		CostPerPage:        o.CostPerPage,
		TotalAmount:        o.TotalAmount,
		WriterID:           derefString(o.WriterID),
		Status:             string(o.Status),
		CancellationReason: derefString(o.CancellationReason),
		CancelledAt:        formatTimePtr(o.CancelledAt),
		IsExternal:         o.IsExternal,
		Attachments:        toAttachments(o.FilePaths, o.FileNames),
		Version:            o.Version,
		CreatedAt:          formatTime(o.CreatedAt),
		UpdatedAt:          formatTime(o.UpdatedAt),
	}
	if o.CancellationConsequence != nil {
		resp.CancellationConsequence = string(*o.CancellationConsequence)
	}
	if o.Writer != nil && o.Writer.User != nil {
		resp.WriterName = o.Writer.User.Name
	}
	return resp
}

