package authz

import "pharmacy-ops/backend/internal/model"

// 督导判定阈值
const (
	supervisorMinStores  = 3
	supervisorMaxPercent = 0.9
)

// IsRealSupervisor 判断某人是否为「真正的督导」。
//
// 这是一个近似规则，不是事实：store_managers 中没有区分督导与区域经理的字段，
// 因此按其管理的门店数推断。管理门店数 >= 3 且少于全部门店的 90% 视为督导；
// 管理几乎全部门店的人视为区域经理，不计入。
func IsRealSupervisor(count, totalStores int) bool {
	return count >= supervisorMinStores && float64(count) < supervisorMaxPercent*float64(totalStores)
}

// CountSupervisorStores 统计每个用户以 supervisor 身份管理的门店数
func CountSupervisorStores(rows []model.StoreManager) map[string]int {
	counts := make(map[string]int)
	seen := make(map[[2]string]bool, len(rows))
	for _, r := range rows {
		if r.RoleType != model.StoreRoleSupervisor {
			continue
		}
		k := [2]string{r.UserID, r.StoreID}
		if seen[k] {
			continue
		}
		seen[k] = true
		counts[r.UserID]++
	}
	return counts
}
