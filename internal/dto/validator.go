package dto

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"pharmacy-ops/backend/internal/authz"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}(0[1-9]|1[0-2])$`)

// RegisterValidators 注册 binding 标签中使用的自定义校验规则
//
//	yearmonth  YYYYMM，月份 01-12
//	permkey    完整权限键 module.resource.action
//	policykey  策略行权限键，允许 module.* 形式的前缀通配
func RegisterValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"yearmonth": func(fl validator.FieldLevel) bool {
			return yearMonthPattern.MatchString(fl.Field().String())
		},
		"permkey": func(fl validator.FieldLevel) bool {
			return authz.ValidKey(fl.Field().String())
		},
		"policykey": func(fl validator.FieldLevel) bool {
			return authz.ValidPolicyKey(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
