package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew_IsKind(t *testing.T) {
	err := New(ErrInvalidState, "订单已提交")
	if !errors.Is(err, ErrInvalidState) {
		t.Error("业务错误应匹配其分类")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("业务错误不应匹配其他分类")
	}
	if err.Error() != "订单已提交" {
		t.Errorf("期望消息=订单已提交，实际=%s", err.Error())
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := New(ErrForbidden, "写手已停职")
	wrapped := fmt.Errorf("创建提交: %w", base)
	if KindOf(wrapped) != ErrForbidden {
		t.Errorf("期望 ErrForbidden，实际=%v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != nil {
		t.Error("无分类错误应返回 nil")
	}
}
