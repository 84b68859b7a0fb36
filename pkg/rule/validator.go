// Package rule 提供结构体和字段验证功能的封装，基于 go-playground/validator 实现.
// 校验标签名为 rule，并内置配置校验使用的 file_ext、byte_size、folder_path、ratelimit_key 规则.
package rule

import (
	"regexp"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once

	extPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// initValidator 尝试复用 gin 的 validator 引擎；若不可用则新建.
func initValidator() {
	if engine := binding.Validator.Engine(); engine != nil {
		if v, ok := engine.(*validator.Validate); ok {
			inst = v
		}
	}

	if inst == nil {
		inst = validator.New()
	}

	inst.SetTagName("rule")
	registerBuiltins(inst)
}

func registerBuiltins(v *validator.Validate) {
	// 扩展名不含点，仅字母数字
	_ = v.RegisterValidation("file_ext", func(fl validator.FieldLevel) bool {
		return extPattern.MatchString(fl.Field().String())
	})

	// 空串或 0 表示不限制，其余需能被 humanize 解析，如 "10MB"、"512K"
	_ = v.RegisterValidation("byte_size", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		if s == "" || s == "0" {
			return true
		}

		_, err := humanize.ParseBytes(s)

		return err == nil
	})

	_ = v.RegisterValidation("folder_path", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()

		return strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") && !strings.Contains(s, "..")
	})

	// 限流维度：global、ip、role 或 header:<name>
	_ = v.RegisterValidation("ratelimit_key", func(fl validator.FieldLevel) bool {
		switch s := strings.ToLower(strings.TrimSpace(fl.Field().String())); {
		case s == "global", s == "ip", s == "role":
			return true
		default:
			return strings.HasPrefix(s, "header:") && len(s) > len("header:")
		}
	})
}

// lazyInit 初始化全局 validator（幂等）.
func lazyInit() {
	once.Do(initValidator)
}

// Engine 返回全局 *validator.Validate，若未初始化则先初始化.
func Engine() *validator.Validate {
	lazyInit()

	return inst
}

// RegisterValidation 代理 RegisterValidation，确保已初始化.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	lazyInit()

	return inst.RegisterValidation(tag, fn, opts...)
}

// ValidateStruct 对结构体执行完整校验.
func ValidateStruct(s any) error {
	lazyInit()

	return inst.Struct(s)
}

// ValidateVar 按规则对单个变量校验，例如: ValidateVar("png", "file_ext").
func ValidateVar(field any, tag string) error {
	lazyInit()

	return inst.Var(field, tag)
}
