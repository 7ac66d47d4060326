package authz

import "regexp"

// 权限键：<模块>.<资源>.<动作>，策略侧可写 * 或 <模块>.* 作通配
const (
	KeyPolicyManage = "authz.policy.manage"

	KeyProfileRead    = "profile.profile.read"
	KeyProfileUpdate  = "profile.profile.update"
	KeyPasswordReset  = "profile.password.reset"
	KeyTemplateRead   = "task.template.read"
	KeyTemplateCreate = "task.template.create"
	KeyTemplateUpdate = "task.template.update"
	KeyTemplateDelete = "task.template.delete"

	KeyAssignmentCreate  = "task.assignment.create"
	KeyAssignmentReadAll = "task.assignment.read_all"
	KeyAssignmentArchive = "task.assignment.archive"
	KeyAssignmentDelete  = "task.assignment.delete"

	KeyCampaignRead   = "campaign.campaign.read"
	KeyCampaignCreate = "campaign.campaign.create"
	KeyCampaignUpdate = "campaign.campaign.update"
	KeyCampaignDelete = "campaign.campaign.delete"

	KeyStoreRead      = "store.store.read"
	KeyStoreSummary   = "store.summary.read"
	KeyStoreAssign    = "store.manager.assign"
	KeyInspectionTpl  = "inspection.template.manage"
	KeyInspectionRead = "inspection.inspection.read"
	KeyInspectionNew  = "inspection.inspection.create"
	KeyInspectionDel  = "inspection.inspection.delete"

	KeyEmployeeRead    = "employee.employee.read"
	KeyEmployeeCreate  = "employee.employee.create"
	KeyMovementRead    = "employee.movement.read"
	KeyMovementCreate  = "employee.movement.create"
	KeyPromotionRead   = "employee.promotion.read"
	KeyPromotionCreate = "employee.promotion.create"

	KeyStaffStatusRead = "payroll.staff_status.read"
	KeyBonusRead       = "payroll.bonus.read"
	KeyBonusWrite      = "payroll.bonus.write"
	KeyMealRead        = "payroll.meal_allowance.read"
	KeyMealWrite       = "payroll.meal_allowance.write"
	KeyTransportRead   = "payroll.transport.read"
	KeyTransportWrite  = "payroll.transport.write"

	KeyExportBonus       = "export.bonus.download"
	KeyExportStaffStatus = "export.staff_status.download"
)

var (
	keyPattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*){2}$`)
	policyPattern = regexp.MustCompile(`^(\*|[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*){0,1}(\.\*)?)$`)
)

// ValidKey 判断是否为完整的三段式权限键
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ValidPolicyKey 判断策略行中的权限键：完整键，或带 * 通配的前缀
func ValidPolicyKey(key string) bool {
	if ValidKey(key) || key == "*" {
		return true
	}
	return policyPattern.MatchString(key) && len(key) > 2 && key[len(key)-2:] == ".*"
}
