package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"easypro/backend/internal/dto"
	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
	"easypro/backend/pkg/queue"
	"easypro/backend/pkg/storage"
)

// ── 提交模块业务错误 ──

var (
	ErrSubmissionNotFound        = pkgerrors.New(pkgerrors.ErrNotFound, "提交记录不存在")
	ErrSubmissionForbidden       = pkgerrors.New(pkgerrors.ErrForbidden, "无权访问该提交记录")
	ErrWriterSuspended           = pkgerrors.New(pkgerrors.ErrForbidden, "写手已停职，不能提交")
	ErrOrderClosedForSubmission  = pkgerrors.New(pkgerrors.ErrInvalidState, "订单已提交或已取消，不能继续提交")
	ErrSubmissionAlreadyReviewed = pkgerrors.New(pkgerrors.ErrInvalidState, "提交已审核，不能重复审核")
	ErrInvalidReviewStatus       = pkgerrors.New(pkgerrors.ErrInvalidInput, "审核结果只能是 approved 或 rejected")
	ErrInvalidPages              = pkgerrors.New(pkgerrors.ErrInvalidInput, "页数与单价必须大于 0")
)

// SubmissionService 提交审核业务接口
// scopeWriterID 非空时表示写手视角，只能访问自己的提交
type SubmissionService interface {
	Create(ctx context.Context, req *dto.CreateSubmissionRequest, files []storage.StoredFile, writerID string) (*dto.CreateSubmissionResponse, error)
	Review(ctx context.Context, id string, req *dto.ReviewSubmissionRequest, callerID string) (*dto.SubmissionResponse, error)
	Get(ctx context.Context, id, scopeWriterID string) (*dto.SubmissionResponse, error)
	List(ctx context.Context, req *dto.SubmissionListRequest, scopeWriterID string) ([]dto.SubmissionResponse, int64, error)
	CalculateWriterProgress(ctx context.Context, writerID string) (*dto.ProgressResponse, error)
}

type submissionService struct {
	repo   *repository.Repository
	shift  ShiftService
	pub    queue.Publisher
	logger *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, shift ShiftService, pub queue.Publisher, logger *zap.Logger) SubmissionService {
	return &submissionService{repo: repo, shift: shift, pub: pub, logger: logger}
}

// ────────────────────── Create ──────────────────────

// Create 写手提交工作量
// 页数配额仅作参考：超出不拒绝，响应中以 exceeds_quota 标注
func (s *submissionService) Create(ctx context.Context, req *dto.CreateSubmissionRequest, files []storage.StoredFile, writerID string) (*dto.CreateSubmissionResponse, error) {
	pages, ok := roundPositive(req.PagesWorked)
	if !ok {
		return nil, ErrInvalidPages
	}
	var reqCpp *decimal.Decimal
	if req.CostPerPage != nil {
		c, ok := roundPositive(*req.CostPerPage)
		if !ok {
			return nil, ErrInvalidPages
		}
		reqCpp = &c
	}

	shift, err := s.shift.Current(ctx)
	if err != nil {
		s.logger.Error("获取当前班次失败", zap.Error(err))
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	now := nowFunc()
	var (
		sub    *model.Submission
		writer *model.Writer
	)
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		order, err := txRepo.Order.GetByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			s.logger.Error("锁定订单失败", zap.String("order_id", req.OrderID), zap.Error(err))
			return err
		}

		w, err := txRepo.Writer.GetByIDForUpdate(ctx, writerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWriterNotFound
			}
			s.logger.Error("锁定写手失败", zap.String("writer_id", writerID), zap.Error(err))
			return err
		}
		if w.Status == model.WriterSuspended {
			return ErrWriterSuspended
		}
		if !order.IsAssignedTo(writerID) {
			return ErrOrderForbidden
		}
		if order.Status.IsTerminal() {
			return ErrOrderClosedForSubmission
		}

		cpp := order.CostPerPage
		if reqCpp != nil {
			cpp = *reqCpp
		}
		amount := pages.Mul(cpp).Round(2)
		if !amount.IsPositive() {
			return ErrInvalidPages
		}

		seen, err := txRepo.Submission.ExistsForOrderInShift(ctx, writerID, order.OrderID, shift.ShiftID)
		if err != nil {
			s.logger.Error("查询本班次提交失败", zap.Error(err))
			return err
		}

		created := &model.Submission{
			OrderID:     order.OrderID,
			WriterID:    writerID,
			ShiftID:     shift.ShiftID,
			PagesWorked: pages,
			CostPerPage: cpp,
			Amount:      amount,
			Notes:       strings.TrimSpace(req.Notes),
			Status:      model.SubmissionPending,
		}
		created.FilePaths, created.FileNames = storage.Split(files)
		if err := txRepo.Submission.Create(ctx, created); err != nil {
			s.logger.Error("创建提交失败", zap.Error(err))
			return err
		}

		w.CurrentShiftPages = w.CurrentShiftPages.Add(pages)
		if !seen {
			w.CurrentShiftOrders++
		}
		w.LastSubmissionDate = &now
		if err := txRepo.Writer.Update(ctx, w); err != nil {
			s.logger.Error("更新写手班次计数失败", zap.String("writer_id", writerID), zap.Error(err))
			return err
		}

		if order.Status == model.OrderAssigned {
			order.Status = model.OrderInProgress
			if err := txRepo.Order.Update(ctx, order); err != nil {
				s.logger.Error("订单转为进行中失败", zap.String("order_id", order.OrderID), zap.Error(err))
				return err
			}
		}

		created.Order = order
		sub = created
		writer = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	exceeds := writer.CurrentShiftPages.GreaterThan(decimal.NewFromInt(int64(shift.MaxPagesPerShift)))
	if exceeds {
		s.logger.Info("写手本班次页数超出配额",
			zap.String("writer_id", writerID),
			zap.String("current_shift_pages", writer.CurrentShiftPages.String()),
			zap.Int("max_pages", shift.MaxPagesPerShift),
		)
	}

	publish(ctx, s.pub, s.logger, queue.RoutingSubmissionCreated, queue.SubmissionEvent{
		SubmissionID: sub.SubmissionID,
		OrderID:      sub.OrderID,
		WriterID:     sub.WriterID,
		Status:       string(sub.Status),
		PagesWorked:  sub.PagesWorked,
		Amount:       sub.Amount,
		OrderStatus:  string(sub.Order.Status),
		ExceedsQuota: exceeds,
		OccurredAt:   now,
	})

	return &dto.CreateSubmissionResponse{
		Submission:        *toSubmissionResponse(sub),
		CurrentShiftPages: writer.CurrentShiftPages,
		MaxPagesPerShift:  shift.MaxPagesPerShift,
		ExceedsQuota:      exceeds,
	}, nil
}

// ────────────────────── Review ──────────────────────

// Review 审核提交；通过时写手入账与订单完成判定在同一事务内完成
func (s *submissionService) Review(ctx context.Context, id string, req *dto.ReviewSubmissionRequest, callerID string) (*dto.SubmissionResponse, error) {
	status := model.SubmissionStatus(req.Status)
	if status != model.SubmissionApproved && status != model.SubmissionRejected {
		return nil, ErrInvalidReviewStatus
	}

	now := nowFunc()
	var (
		sub         *model.Submission
		orderStatus model.OrderStatus
	)
	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		sb, err := txRepo.Submission.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			s.logger.Error("锁定提交失败", zap.String("submission_id", id), zap.Error(err))
			return err
		}
		if !sb.Status.CanTransitionTo(status) {
			return ErrSubmissionAlreadyReviewed
		}

		sb.Status = status
		sb.ReviewedBy = &callerID
		sb.ReviewNotes = strPtr(strings.TrimSpace(req.ReviewNotes))
		sb.ReviewedAt = &now
		if err := txRepo.Submission.Update(ctx, sb); err != nil {
			s.logger.Error("更新提交审核结果失败", zap.String("submission_id", id), zap.Error(err))
			return err
		}
		sub = sb

		if status != model.SubmissionApproved {
			return nil
		}

		// 锁顺序与其他事务一致：订单 → 写手
		order, err := txRepo.Order.GetByIDForUpdate(ctx, sb.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		// 写手入账
		w, err := txRepo.Writer.GetByIDForUpdate(ctx, sb.WriterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWriterNotFound
			}
			return err
		}
		w.Credit(sb.Amount, sb.PagesWorked)
		if err := txRepo.Writer.Update(ctx, w); err != nil {
			s.logger.Error("写手入账失败", zap.String("writer_id", w.WriterID), zap.Error(err))
			return err
		}

		// 订单完成判定：pending + approved 页数达到订单页数即视为已提交
		orderStatus = order.Status
		if order.Status.IsTerminal() {
			return nil
		}

		total, err := txRepo.Submission.SumPagesByOrder(ctx, order.OrderID,
			[]model.SubmissionStatus{model.SubmissionPending, model.SubmissionApproved})
		if err != nil {
			s.logger.Error("汇总订单提交页数失败", zap.String("order_id", order.OrderID), zap.Error(err))
			return err
		}
		if total.LessThan(order.Pages) {
			return nil
		}

		if order.Status == model.OrderAssigned {
			order.Status = model.OrderInProgress
		}
		if !order.Status.CanTransitionTo(model.OrderSubmitted) {
			return nil
		}
		order.Status = model.OrderSubmitted
		order.UpdatedBy = &callerID
		if err := txRepo.Order.Update(ctx, order); err != nil {
			s.logger.Error("订单标记为已提交失败", zap.String("order_id", order.OrderID), zap.Error(err))
			return err
		}
		orderStatus = order.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("提交已审核",
		zap.String("submission_id", id),
		zap.String("status", string(status)),
		zap.String("reviewed_by", callerID),
	)
	publish(ctx, s.pub, s.logger, queue.RoutingSubmissionReviewed, queue.SubmissionEvent{
		SubmissionID: sub.SubmissionID,
		OrderID:      sub.OrderID,
		WriterID:     sub.WriterID,
		Status:       string(sub.Status),
		PagesWorked:  sub.PagesWorked,
		Amount:       sub.Amount,
		OrderStatus:  string(orderStatus),
		OccurredAt:   now,
	})

	return s.Get(ctx, id, "")
}

// ────────────────────── Get ──────────────────────

func (s *submissionService) Get(ctx context.Context, id, scopeWriterID string) (*dto.SubmissionResponse, error) {
	sub, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("查询提交失败", zap.String("submission_id", id), zap.Error(err))
		return nil, err
	}
	if scopeWriterID != "" && sub.WriterID != scopeWriterID {
		return nil, ErrSubmissionForbidden
	}
	return toSubmissionResponse(sub), nil
}

// ────────────────────── List ──────────────────────

func (s *submissionService) List(ctx context.Context, req *dto.SubmissionListRequest, scopeWriterID string) ([]dto.SubmissionResponse, int64, error) {
	filter := repository.SubmissionFilter{
		Status:   req.Status,
		WriterID: req.WriterID,
		OrderID:  req.OrderID,
		ShiftID:  req.ShiftID,
		Offset:   req.GetOffset(),
		Limit:    req.GetPageSize(),
	}
	if scopeWriterID != "" {
		filter.WriterID = scopeWriterID
	}

	subs, total, err := s.repo.Submission.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出提交失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		list = append(list, *toSubmissionResponse(&subs[i]))
	}
	return list, total, nil
}

// ────────────────────── CalculateWriterProgress ──────────────────────

// CalculateWriterProgress 写手本班次进度（只读投影）
func (s *submissionService) CalculateWriterProgress(ctx context.Context, writerID string) (*dto.ProgressResponse, error) {
	if _, err := getWriter(ctx, s.repo, s.logger, writerID); err != nil {
		return nil, err
	}

	shift, err := s.shift.Current(ctx)
	if err != nil {
		return nil, err
	}

	sums, err := s.repo.Submission.SumPagesByWriterSince(ctx, writerID, shift.StartTime)
	if err != nil {
		s.logger.Error("汇总写手本班次页数失败", zap.String("writer_id", writerID), zap.Error(err))
		return nil, err
	}

	return buildProgress(writerID, shift, sums), nil
}

// buildProgress 按状态汇总计算进度；剩余页数不为负，百分比 = round(100 × approved / target)
func buildProgress(writerID string, shift *model.Shift, sums []repository.StatusSum) *dto.ProgressResponse {
	p := &dto.ProgressResponse{
		WriterID:       writerID,
		ShiftID:        shift.ShiftID,
		TargetPages:    shift.MaxPagesPerShift,
		ApprovedPages:  decimal.Zero,
		PendingPages:   decimal.Zero,
		RejectedPages:  decimal.Zero,
		RemainingPages: decimal.Zero,
	}
	for _, row := range sums {
		switch model.SubmissionStatus(row.Status) {
		case model.SubmissionApproved:
			p.ApprovedPages = p.ApprovedPages.Add(row.Total)
		case model.SubmissionPending:
			p.PendingPages = p.PendingPages.Add(row.Total)
		case model.SubmissionRejected:
			p.RejectedPages = p.RejectedPages.Add(row.Total)
		}
	}

	target := decimal.NewFromInt(int64(p.TargetPages))
	if remaining := target.Sub(p.ApprovedPages); remaining.IsPositive() {
		p.RemainingPages = remaining
	}
	if p.TargetPages > 0 {
		p.PercentComplete = p.ApprovedPages.Mul(decimal.NewFromInt(100)).Div(target).Round(0).IntPart()
	}
	p.OnTarget = p.ApprovedPages.GreaterThanOrEqual(target)
	return p
}

func toSubmissionResponse(sb *model.Submission) *dto.SubmissionResponse {
	resp := &dto.SubmissionResponse{
		ID:          sb.SubmissionID,
		OrderID:     sb.OrderID,
		WriterID:    sb.WriterID,
		ShiftID:     sb.ShiftID,
		PagesWorked: sb.PagesWorked,
		CostPerPage: sb.CostPerPage,
		Amount:      sb.Amount,
		Attachments: toAttachments(sb.FilePaths, sb.FileNames),
		Notes:       sb.Notes,
		Status:      string(sb.Status),
		ReviewedBy:  derefString(sb.ReviewedBy),
		ReviewNotes: derefString(sb.ReviewNotes),
		ReviewedAt:  formatTimePtr(sb.ReviewedAt),
		CreatedAt:   formatTime(sb.CreatedAt),
	}
	if sb.Order != nil {
		resp.OrderNumber = sb.Order.OrderNumber
	}
	if sb.Writer != nil && sb.Writer.User != nil {
		resp.WriterName = sb.Writer.User.Name
	}
	return resp
}
