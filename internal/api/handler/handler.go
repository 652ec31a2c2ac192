package handler

import (
	"easypro/backend/config"
	"easypro/backend/internal/service"
	"easypro/backend/pkg/storage"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Writer       *WriterHandler
	Shift        *ShiftHandler
	Order        *OrderHandler
	Submission   *SubmissionHandler
	Payment      *PaymentHandler
	Analytics    *AnalyticsHandler
	Export       *ExportHandler
	SystemConfig *SystemConfigHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service, st storage.Storage) *Handler {
	limits := storage.Limits{MaxSize: cfg.Upload.MaxSize, MaxFiles: cfg.Upload.MaxFiles}
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, &cfg.Auth),
		Writer:       NewWriterHandler(svc.Writer, svc.Submission),
		Shift:        NewShiftHandler(svc.Shift),
		Order:        NewOrderHandler(svc.Order, st, limits),
		Submission:   NewSubmissionHandler(svc.Submission, st, limits),
		Payment:      NewPaymentHandler(svc.Payment),
		Analytics:    NewAnalyticsHandler(svc.Analytics),
		Export:       NewExportHandler(svc.Export),
		SystemConfig: NewSystemConfigHandler(svc.SystemConfig),
	}
}
