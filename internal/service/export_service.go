package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"easypro/backend/internal/model"
	"easypro/backend/internal/repository"
	pkgerrors "easypro/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportInvalidRange = pkgerrors.New(pkgerrors.ErrInvalidInput, "导出时间范围无效：结束日期必须晚于开始日期")
	ErrExportRangeTooLong = pkgerrors.New(pkgerrors.ErrInvalidInput, "导出时间范围不能超过 366 天")
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.ErrInvalidState, "生成 Excel 文件失败")
)

const maxExportRange = 366 * 24 * time.Hour

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportPayments 导出 [from, to) 内创建的付款明细
	ExportPayments(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error)
	// ExportWriterEarnings 导出全部写手收入与余额汇总
	ExportWriterEarnings(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportPayments — 付款明细
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "付款明细"
//   - 第 1 行标题（合并单元格），第 2 行表头，数据从第 3 行开始
//   - 末行按状态汇总金额

func (s *exportService) ExportPayments(ctx context.Context, from, to time.Time) (*bytes.Buffer, string, error) {
	if !to.After(from) {
		return nil, "", ErrExportInvalidRange
	}
	if to.Sub(from) > maxExportRange {
		return nil, "", ErrExportRangeTooLong
	}

	payments, _, err := s.repo.Payment.List(ctx, repository.PaymentFilter{From: &from, To: &to})
	if err != nil {
		s.logger.Error("查询付款失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "付款明细"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"付款 ID", "写手", "邮箱", "金额 (USD)", "状态", "支付方式", "交易流水号", "备注", "创建时间", "到账时间", "失败时间"}
	widths := []float64{38, 16, 26, 14, 10, 14, 24, 30, 22, 22, 22}
	for i, w := range widths {
		f.SetColWidth(sheetName, colName(i), colName(i), w)
	}

	headerStyle := newHeaderStyle(f)
	title := fmt.Sprintf("付款明细 %s ~ %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	writeTitle(f, sheetName, title, len(headers), headerStyle)
	writeHeaderRow(f, sheetName, 2, headers, headerStyle)

	totals := map[model.PaymentStatus]decimal.Decimal{}
	row := 3
	for _, p := range payments {
		name, email := "", ""
		if p.Writer != nil && p.Writer.User != nil {
			name, email = p.Writer.User.Name, p.Writer.User.Email
		}
		values := []interface{}{
			p.PaymentID,
			name,
			email,
			p.Amount.InexactFloat64(),
			string(p.Status),
			derefString(p.Method),
			derefString(p.TransactionReference),
			derefString(p.Notes),
			formatExportTime(&p.CreatedAt),
			formatExportTime(p.PaidAt),
			formatExportTime(p.FailedAt),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		totals[p.Status] = totals[p.Status].Add(p.Amount)
		row++
	}

	// 汇总行
	row++
	for _, st := range []model.PaymentStatus{model.PaymentPending, model.PaymentPaid, model.PaymentFailed} {
		f.SetCellValue(sheetName, cell("C", row), fmt.Sprintf("合计（%s）", st))
		f.SetCellValue(sheetName, cell("D", row), totals[st].InexactFloat64())
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("付款明细_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportWriterEarnings — 写手收入汇总
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportWriterEarnings(ctx context.Context) (*bytes.Buffer, string, error) {
	writers, err := s.repo.Writer.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询写手失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "写手收入"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"写手", "邮箱", "状态", "当前余额 (USD)", "累计收入 (USD)", "累计页数", "累计订单", "本班次页数", "本班次订单", "最近提交"}
	widths := []float64{16, 26, 10, 16, 16, 12, 10, 12, 12, 22}
	for i, w := range widths {
		f.SetColWidth(sheetName, colName(i), colName(i), w)
	}

	headerStyle := newHeaderStyle(f)
	now := nowFunc()
	writeTitle(f, sheetName, fmt.Sprintf("写手收入汇总（%s）", now.Format("2006-01-02")), len(headers), headerStyle)
	writeHeaderRow(f, sheetName, 2, headers, headerStyle)

	balance, lifetime := decimal.Zero, decimal.Zero
	row := 3
	for _, w := range writers {
		name, email := "", ""
		if w.User != nil {
			name, email = w.User.Name, w.User.Email
		}
		values := []interface{}{
			name,
			email,
			string(w.Status),
			w.BalanceUSD.InexactFloat64(),
			w.LifetimeEarnings.InexactFloat64(),
			w.TotalPagesCompleted.InexactFloat64(),
			w.TotalOrdersCompleted,
			w.CurrentShiftPages.InexactFloat64(),
			w.CurrentShiftOrders,
			formatExportTime(w.LastSubmissionDate),
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		balance = balance.Add(w.BalanceUSD)
		lifetime = lifetime.Add(w.LifetimeEarnings)
		row++
	}

	row++
	f.SetCellValue(sheetName, cell("C", row), "合计")
	f.SetCellValue(sheetName, cell("D", row), balance.InexactFloat64())
	f.SetCellValue(sheetName, cell("E", row), lifetime.InexactFloat64())

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("写手收入_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func newHeaderStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return style
}

func writeTitle(f *excelize.File, sheet, title string, columns, style int) {
	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(colName(columns-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", style)
}

func writeHeaderRow(f *excelize.File, sheet string, row int, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheet, cell("A", row), cell(colName(len(headers)-1), row), style)
}

func formatExportTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
