package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/queue"
)

// ── 付款模块业务错误 ──

var (
	ErrPaymentNotFound       = pkgerrors.New(pkgerrors.ErrNotFound, "付款记录不存在")
	ErrPaymentForbidden      = pkgerrors.New(pkgerrors.ErrForbidden, "无权访问该付款记录")
	ErrPaymentInvalidAmount  = pkgerrors.New(pkgerrors.ErrInvalidInput, "付款金额必须大于 0")
	ErrInsufficientBalance   = pkgerrors.New(pkgerrors.ErrInvalidState, "付款金额超过写手当前余额")
	ErrPaymentAlreadySettled = pkgerrors.New(pkgerrors.ErrInvalidState, "付款已到账或已失败，不能重复处理")
	ErrInvalidPaymentStatus  = pkgerrors.New(pkgerrors.ErrInvalidInput, "无效的付款状态")
)

// PaymentService 付款结算业务接口
// scopeWriterID 非空时表示写手视角，只能访问自己的付款
type PaymentService interface {
	Create(ctx context.Context, req *dto.CreatePaymentRequest, callerID string) (*dto.PaymentResponse, error)
	MarkAsPaid(ctx context.Context, id string, req *dto.MarkPaymentPaidRequest, callerID string) (*dto.PaymentResponse, error)
	MarkAsFailed(ctx context.Context, id string, req *dto.MarkPaymentFailedRequest, callerID string) (*dto.PaymentResponse, error)
	Get(ctx context.Context, id, scopeWriterID string) (*dto.PaymentResponse, error)
	List(ctx context.Context, req *dto.PaymentListRequest, scopeWriterID string) ([]dto.PaymentResponse, int64, error)
	ListLogs(ctx context.Context, id, scopeWriterID string) ([]dto.PaymentLogResponse, error)
}

type paymentService struct {
	repo   *repository.Repository
	pub    queue.Publisher
	logger *zap.Logger
}

// NewPaymentService 创建 PaymentService 实例
func NewPaymentService(repo *repository.Repository, pub queue.Publisher, logger *zap.Logger) PaymentService {
	return &paymentService{repo: repo, pub: pub, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 创建付款：校验余额后立即扣减，付款进入 pending
func (s *paymentService) Create(ctx context.Context, req *dto.CreatePaymentRequest, callerID string) (*dto.PaymentResponse, error) {
	amount, ok := roundPositive(req.Amount)
	if !ok {
		return nil, ErrPaymentInvalidAmount
	}

	var payment *model.Payment
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		w, err := txRepo.Writer.GetByIDForUpdate(ctx, req.WriterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWriterNotFound
			}
			s.logger.Error("锁定写手失败", zap.String("writer_id", req.WriterID), zap.Error(err))
			return err
		}
		if amount.GreaterThan(w.BalanceUSD) {
			return ErrInsufficientBalance
		}

		w.BalanceUSD = w.BalanceUSD.Sub(amount)
		if err := txRepo.Writer.Update(ctx, w); err != nil {
			s.logger.Error("扣减写手余额失败", zap.String("writer_id", w.WriterID), zap.Error(err))
			return err
		}

		p := &model.Payment{
			WriterID:  w.WriterID,
			Amount:    amount,
			Status:    model.PaymentPending,
			Notes:     strPtr(strings.TrimSpace(req.Notes)),
			CreatedBy: callerID,
		}
		if err := txRepo.Payment.Create(ctx, p); err != nil {
			s.logger.Error("创建付款失败", zap.Error(err))
			return err
		}
		if err := txRepo.PaymentLog.Create(ctx, model.NewPaymentLog(p, model.PaymentEventCreated, &callerID)); err != nil {
			s.logger.Error("写入付款日志失败", zap.String("payment_id", p.PaymentID), zap.Error(err))
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("付款已创建",
		zap.String("payment_id", payment.PaymentID),
		zap.String("writer_id", payment.WriterID),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("created_by", callerID),
	)
	return s.Get(ctx, payment.PaymentID, "")
}

// ────────────────────── MarkAsPaid ──────────────────────

func (s *paymentService) MarkAsPaid(ctx context.Context, id string, req *dto.MarkPaymentPaidRequest, callerID string) (*dto.PaymentResponse, error) {
	now := nowFunc()
	payment, err := s.settle(ctx, id, model.PaymentPaid, callerID, func(txRepo *repository.Repository, p *model.Payment) error {
		p.Method = strPtr(strings.TrimSpace(req.Method))
		p.TransactionReference = strPtr(strings.TrimSpace(req.TransactionReference))
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			p.Notes = &notes
		}
		p.PaidAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, payment.PaymentID, "")
}

// ────────────────────── MarkAsFailed ──────────────────────

// MarkAsFailed 标记付款失败，并在同一事务内把金额退回写手余额
func (s *paymentService) MarkAsFailed(ctx context.Context, id string, req *dto.MarkPaymentFailedRequest, callerID string) (*dto.PaymentResponse, error) {
	now := nowFunc()
	payment, err := s.settle(ctx, id, model.PaymentFailed, callerID, func(txRepo *repository.Repository, p *model.Payment) error {
		reason := strings.TrimSpace(req.Reason)
		p.Notes = &reason
		p.FailedAt = &now

		w, err := txRepo.Writer.GetByIDForUpdate(ctx, p.WriterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWriterNotFound
			}
			return err
		}
		w.BalanceUSD = w.BalanceUSD.Add(p.Amount)
		if err := txRepo.Writer.Update(ctx, w); err != nil {
			s.logger.Error("退回写手余额失败", zap.String("writer_id", w.WriterID), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, payment.PaymentID, "")
}

// settle 付款终态处理：加锁 → 校验跳转 → apply → 保存 → 写日志 → 发布事件
func (s *paymentService) settle(
	ctx context.Context,
	id string,
	target model.PaymentStatus,
	callerID string,
	apply func(txRepo *repository.Repository, p *model.Payment) error,
) (*model.Payment, error) {
	var payment *model.Payment
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		p, err := txRepo.Payment.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			s.logger.Error("锁定付款失败", zap.String("payment_id", id), zap.Error(err))
			return err
		}
		if !p.Status.CanTransitionTo(target) {
			return ErrPaymentAlreadySettled
		}

		if err := apply(txRepo, p); err != nil {
			return err
		}
		p.Status = target
		p.ProcessedBy = &callerID
		if err := txRepo.Payment.Update(ctx, p); err != nil {
			s.logger.Error("更新付款失败", zap.String("payment_id", id), zap.Error(err))
			return err
		}

		event := model.PaymentEventPaid
		if target == model.PaymentFailed {
			event = model.PaymentEventFailed
		}
		if err := txRepo.PaymentLog.Create(ctx, model.NewPaymentLog(p, event, &callerID)); err != nil {
			s.logger.Error("写入付款日志失败", zap.String("payment_id", id), zap.Error(err))
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("付款已结算",
		zap.String("payment_id", id),
		zap.String("status", string(target)),
		zap.String("processed_by", callerID),
	)
	publish(ctx, s.pub, s.logger, queue.RoutingPaymentSettled, queue.PaymentSettledEvent{
		PaymentID:  payment.PaymentID,
		WriterID:   payment.WriterID,
		Amount:     payment.Amount,
		Status:     string(payment.Status),
		Reference:  derefString(payment.TransactionReference),
		OccurredAt: nowFunc(),
	})
	return payment, nil
}

// ────────────────────── Get ──────────────────────

func (s *paymentService) Get(ctx context.Context, id, scopeWriterID string) (*dto.PaymentResponse, error) {
	p, err := s.getPayment(ctx, id, scopeWriterID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(p), nil
}

// ────────────────────── List ──────────────────────

func (s *paymentService) List(ctx context.Context, req *dto.PaymentListRequest, scopeWriterID string) ([]dto.PaymentResponse, int64, error) {
	filter := repository.PaymentFilter{
		WriterID: req.WriterID,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	}
	if req.Status != "" {
		status, ok := model.ParsePaymentStatus(req.Status)
		if !ok {
			return nil, 0, ErrInvalidPaymentStatus
		}
		filter.Status = string(status)
	}
	if scopeWriterID != "" {
		filter.WriterID = scopeWriterID
	}

	payments, total, err := s.repo.Payment.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出付款失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		list = append(list, *toPaymentResponse(&payments[i]))
	}
	return list, total, nil
}

// ────────────────────── ListLogs ──────────────────────

func (s *paymentService) ListLogs(ctx context.Context, id, scopeWriterID string) ([]dto.PaymentLogResponse, error) {
	if _, err := s.getPayment(ctx, id, scopeWriterID); err != nil {
		return nil, err
	}

	logs, err := s.repo.PaymentLog.ListByPayment(ctx, id)
	if err != nil {
		s.logger.Error("查询付款日志失败", zap.String("payment_id", id), zap.Error(err))
		return nil, err
	}

	list := make([]dto.PaymentLogResponse, 0, len(logs))
	for _, l := range logs {
		list = append(list, dto.PaymentLogResponse{
			ID:        l.PaymentLogID,
			Event:     l.Event,
			Amount:    l.Amount,
			Status:    string(l.Status),
			ActorID:   derefString(l.ActorID),
			Snapshot:  l.Snapshot,
			CreatedAt: formatTime(l.CreatedAt),
		})
	}
	return list, nil
}

// ── 内部方法 ──

func (s *paymentService) getPayment(ctx context.Context, id, scopeWriterID string) (*model.Payment, error) {
	p, err := s.repo.Payment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		s.logger.Error("查询付款失败", zap.String("payment_id", id), zap.Error(err))
		return nil, err
	}
	if scopeWriterID != "" && p.WriterID != scopeWriterID {
		return nil, ErrPaymentForbidden
	}
	return p, nil
}

func toPaymentResponse(p *model.Payment) *dto.PaymentResponse {
	resp := &dto.PaymentResponse{
		ID:                   p.PaymentID,
		WriterID:             p.WriterID,
		Amount:               p.Amount,
		Status:               string(p.Status),
		Method:               derefString(p.Method),
		TransactionReference: derefString(p.TransactionReference),
		Notes:                derefString(p.Notes),
		CreatedBy:            p.CreatedBy,
		ProcessedBy:          derefString(p.ProcessedBy),
		PaidAt:               formatTimePtr(p.PaidAt),
		FailedAt:             formatTimePtr(p.FailedAt),
		CreatedAt:            formatTime(p.CreatedAt),
	}
	if p.Writer != nil && p.Writer.User != nil {
		resp.WriterName = p.Writer.User.Name
	}
	return resp
}
