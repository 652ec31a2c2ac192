package validator

import (
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// 订单号：字母、数字、连字符，3-50 位
var orderNumberPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,49}$`)

// Register 向 gin 默认校验器注册自定义规则
// 需在路由初始化前调用一次
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return Setup(v)
}

// Setup 在给定校验器上注册 decimal 类型与 order_number 规则
func Setup(v *validator.Validate) error {
	// decimal.Decimal 按 float64 参与 required / gt / min 等数值规则
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	return v.RegisterValidation("order_number", validateOrderNumber)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return nil
}

func validateOrderNumber(fl validator.FieldLevel) bool {
	return orderNumberPattern.MatchString(fl.Field().String())
}
