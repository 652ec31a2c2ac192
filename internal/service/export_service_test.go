package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"easypro/backend/internal/model"
)

func TestExportPayments(t *testing.T) {
	env := newTestEnv(t)
	w := env.seedWriter(t, "alice", model.WriterActive, "100")
	createPayment(t, env.paymentService(), w.WriterID, "30")
	createPayment(t, env.paymentService(), w.WriterID, "20")

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	buf, filename, err := NewExportService(env.repo, env.logger).ExportPayments(context.Background(), from, to)
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if filename != "付款明细_20260301_20260401.xlsx" {
		t.Errorf("文件名不正确: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("付款明细")
	if err != nil {
		t.Fatalf("读取工作表失败: %v", err)
	}
	// 标题 + 表头 + 2 条数据 + 空行 + 3 行合计
	if len(rows) < 4 {
		t.Fatalf("期望至少 4 行，实际: %d", len(rows))
	}
	if rows[1][0] != "付款 ID" {
		t.Errorf("表头不正确: %v", rows[1])
	}
	if rows[2][4] != "pending" {
		t.Errorf("期望状态 pending，实际: %s", rows[2][4])
	}
}

func TestExportPayments_InvalidRange(t *testing.T) {
	env := newTestEnv(t)
	svc := NewExportService(env.repo, env.logger)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if _, _, err := svc.ExportPayments(context.Background(), day, day); !errors.Is(err, ErrExportInvalidRange) {
		t.Errorf("期望 ErrExportInvalidRange，实际: %v", err)
	}
	if _, _, err := svc.ExportPayments(context.Background(), day, day.AddDate(2, 0, 0)); !errors.Is(err, ErrExportRangeTooLong) {
		t.Errorf("期望 ErrExportRangeTooLong，实际: %v", err)
	}
}

func TestExportWriterEarnings(t *testing.T) {
	env := newTestEnv(t)
	env.seedWriter(t, "alice", model.WriterActive, "42.5")
	env.seedWriter(t, "bob", model.WriterProbation, "0")

	buf, filename, err := NewExportService(env.repo, env.logger).ExportWriterEarnings(context.Background())
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if filename == "" || buf.Len() == 0 {
		t.Error("应生成非空文件")
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 1 {
		t.Errorf("期望 1 个工作表，实际: %v", f.GetSheetList())
	}
}

func TestColName(t *testing.T) {
	tests := map[int]string{0: "A", 25: "Z", 26: "AA", 27: "AB"}
	for idx, want := range tests {
		if got := colName(idx); got != want {
			t.Errorf("colName(%d) 期望 %s，实际: %s", idx, want, got)
		}
	}
}
