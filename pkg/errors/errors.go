package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ── 业务错误分类 ──
//
// Handler 层先匹配模块内的具体错误，未命中时再按分类映射 HTTP 状态码。

var (
	ErrNotFound     = errors.New("资源不存在")
	ErrForbidden    = errors.New("无权执行该操作")
	ErrInvalidState = errors.New("当前状态不允许该操作")
	ErrInvalidInput = errors.New("参数无效")
	ErrConflict     = errors.New("资源冲突")
)

// bizError 带分类的业务错误
type bizError struct {
	kind error
	msg  string
}

func (e *bizError) Error() string { return e.msg }
func (e *bizError) Unwrap() error { return e.kind }

// New 创建归属于 kind 分类的业务错误，errors.Is(err, kind) 为 true
func New(kind error, msg string) error {
	return &bizError{kind: kind, msg: msg}
}

// KindOf 返回错误所属分类，无分类时返回 nil
func KindOf(err error) error {
	for _, k := range []error{ErrNotFound, ErrForbidden, ErrInvalidState, ErrInvalidInput, ErrConflict, ErrOptimisticLock} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
