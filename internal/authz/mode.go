package authz

import "strings"

// Mode 权限评估模式
type Mode string

const (
	ModeDisabled Mode = "disabled" // 不评估，全部放行
	ModeShadow   Mode = "shadow"   // 评估并记录拒绝，但放行（迁移期使用）
	ModeEnforce  Mode = "enforce"  // 评估并拒绝
)

// ParseMode 解析模式字符串；未知值按 enforce 处理
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeDisabled):
		return ModeDisabled
	case string(ModeShadow):
		return ModeShadow
	default:
		return ModeEnforce
	}
}
