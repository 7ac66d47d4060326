package authz

import (
	"strings"

	"pharmacy-ops/backend/internal/model"
)

// SubjectRoles 计算用户参与权限评估的角色集合：
// 档案角色 + 按属性规则派生的角色（如职称含「督导」→ supervisor）。
// 结果去重且保持规则顺序，档案角色始终在首位。
func SubjectRoles(p *model.Profile, rules []model.RoleAttributeRule) []string {
	if p == nil {
		return nil
	}
	roles := make([]string, 0, 1+len(rules))
	seen := make(map[string]bool, 1+len(rules))
	if p.Role != "" {
		roles = append(roles, p.Role)
		seen[p.Role] = true
	}
	for _, r := range rules {
		if seen[r.Role] || !matchRule(p, r) {
			continue
		}
		roles = append(roles, r.Role)
		seen[r.Role] = true
	}
	return roles
}

func matchRule(p *model.Profile, r model.RoleAttributeRule) bool {
	var value string
	switch r.Attribute {
	case model.AttributeJobTitle:
		value = p.JobTitle
	case model.AttributeDepartment:
		value = p.Department
	default:
		return false
	}
	if value == "" || r.Pattern == "" {
		return false
	}

	switch r.MatchType {
	case model.MatchContains:
		return strings.Contains(value, r.Pattern)
	case model.MatchPrefix:
		return strings.HasPrefix(value, r.Pattern)
	case model.MatchEquals:
		return value == r.Pattern
	}
	return false
}
