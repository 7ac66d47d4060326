package service

import (
	"sort"
	"time"

	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
)

// ReplayCheckedSteps 按创建顺序重放日志得出当前已勾选的步骤
// complete 加入、uncomplete 移除，其余动作忽略
func ReplayCheckedSteps(logs []model.TaskLog) map[string]bool {
	checked := make(map[string]bool)
	for _, l := range logs {
		switch l.Action {
		case model.LogActionComplete:
			checked[l.StepID] = true
		case model.LogActionUncomplete:
			delete(checked, l.StepID)
		}
	}
	return checked
}

// DeriveStatus 由步骤快照与已勾选集合推导状态
// 无勾选 → pending；部分 → in_progress；全部 → completed
// 已不在快照中的步骤 id 不计入
func DeriveStatus(steps model.StepList, checked map[string]bool) model.AssignmentStatus {
	done := countChecked(steps, checked)
	switch {
	case done == 0:
		return model.AssignmentPending
	case done < len(steps):
		return model.AssignmentInProgress
	default:
		return model.AssignmentCompleted
	}
}

func countChecked(steps model.StepList, checked map[string]bool) int {
	n := 0
	for _, s := range steps {
		if checked[s.ID] {
			n++
		}
	}
	return n
}

// deriveWith 返回供 AppendLog 使用的推导函数；now 为状态变为 completed 时记录的完成时间
func deriveWith(now time.Time) repository.DeriveFunc {
	return func(a *model.TaskAssignment, logs []model.TaskLog) repository.StatusChange {
		status := DeriveStatus(a.Steps, ReplayCheckedSteps(logs))
		change := repository.StatusChange{Status: status}
		if status == model.AssignmentCompleted {
			if a.Status == model.AssignmentCompleted && a.CompletedAt != nil {
				change.CompletedAt = a.CompletedAt
			} else {
				change.CompletedAt = &now
			}
		}
		return change
	}
}

// MonthGroup 按年月分组的结果
type MonthGroup[T any] struct {
	Key   string // YYYY/MM
	Items []T
}

// GroupByMonth 按 at(item) 的年月分组，组键降序，组内保持输入顺序
func GroupByMonth[T any](items []T, at func(T) time.Time) []MonthGroup[T] {
	if len(items) == 0 {
		return []MonthGroup[T]{}
	}
	index := make(map[string]int)
	var groups []MonthGroup[T]
	for _, it := range items {
		key := at(it).Format("2006/01")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup[T]{Key: key})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })
	return groups
}
