package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type pagesForm struct {
	Pages decimal.Decimal  `validate:"required,gt=0"`
	Cost  *decimal.Decimal `validate:"omitempty,gt=0"`
}

type numberForm struct {
	OrderNumber string `validate:"omitempty,order_number"`
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	if err := Setup(v); err != nil {
		t.Fatalf("注册校验规则失败: %v", err)
	}
	return v
}

func TestDecimal_Positive(t *testing.T) {
	v := newValidate(t)
	if err := v.Struct(pagesForm{Pages: decimal.RequireFromString("2.5")}); err != nil {
		t.Errorf("期望校验通过，实际: %v", err)
	}
}

func TestDecimal_ZeroRejected(t *testing.T) {
	v := newValidate(t)
	if err := v.Struct(pagesForm{Pages: decimal.Zero}); err == nil {
		t.Error("pages=0 应校验失败")
	}
}

func TestDecimal_NegativeRejected(t *testing.T) {
	v := newValidate(t)
	if err := v.Struct(pagesForm{Pages: decimal.NewFromInt(-1)}); err == nil {
		t.Error("pages<0 应校验失败")
	}
}

func TestDecimal_PointerNegativeRejected(t *testing.T) {
	v := newValidate(t)
	cost := decimal.NewFromInt(-3)
	if err := v.Struct(pagesForm{Pages: decimal.NewFromInt(1), Cost: &cost}); err == nil {
		t.Error("cost<0 应校验失败")
	}
}

func TestOrderNumber(t *testing.T) {
	v := newValidate(t)

	good := []string{"20260310001", "EXT-42", "abc"}
	for _, n := range good {
		if err := v.Struct(numberForm{OrderNumber: n}); err != nil {
			t.Errorf("订单号 %q 应合法，实际: %v", n, err)
		}
	}

	bad := []string{"ab", "-leading", "has space", "中文单号"}
	for _, n := range bad {
		if err := v.Struct(numberForm{OrderNumber: n}); err == nil {
			t.Errorf("订单号 %q 应被拒绝", n)
		}
	}
}
