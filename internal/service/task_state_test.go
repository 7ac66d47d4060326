package service

import (
	"testing"
	"time"

	"pharmacy-ops/backend/internal/model"
)

func logSeq(actions ...[2]string) []model.TaskLog {
	logs := make([]model.TaskLog, 0, len(actions))
	for i, a := range actions {
		logs = append(logs, model.TaskLog{ID: uint64(i + 1), StepID: a[1], Action: a[0]})
	}
	return logs
}

func TestReplayCheckedSteps(t *testing.T) {
	logs := logSeq(
		[2]string{model.LogActionComplete, "1"},
		[2]string{model.LogActionComplete, "2"},
		[2]string{model.LogActionUncomplete, "1"},
	)
	got := ReplayCheckedSteps(logs)
	if len(got) != 1 || !got["2"] {
		t.Errorf("期望 {2}，实际: %v", got)
	}
}

func TestReplayCheckedSteps_IgnoresComments(t *testing.T) {
	logs := logSeq(
		[2]string{model.LogActionComplete, "1"},
		[2]string{model.LogActionComment, "1"},
		[2]string{model.LogActionUncomplete, "3"}, // 从未勾选过
	)
	got := ReplayCheckedSteps(logs)
	if len(got) != 1 || !got["1"] {
		t.Errorf("期望 {1}，实际: %v", got)
	}
}

func TestReplayCheckedSteps_Empty(t *testing.T) {
	if got := ReplayCheckedSteps(nil); len(got) != 0 {
		t.Errorf("空日志应无勾选，实际: %v", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	steps := model.StepList{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	tests := []struct {
		name    string
		checked map[string]bool
		want    model.AssignmentStatus
	}{
		{"none", map[string]bool{}, model.AssignmentPending},
		{"some", map[string]bool{"a": true}, model.AssignmentInProgress},
		{"all", map[string]bool{"a": true, "b": true, "c": true}, model.AssignmentCompleted},
		{"unknown ids", map[string]bool{"x": true}, model.AssignmentPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(steps, tt.checked); got != tt.want {
				t.Errorf("期望 %s，实际 %s", tt.want, got)
			}
		})
	}
}

func TestDeriveWith_KeepsCompletedAt(t *testing.T) {
	earlier := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	a := &model.TaskAssignment{
		Steps:       model.StepList{{ID: "a"}},
		Status:      model.AssignmentCompleted,
		CompletedAt: &earlier,
	}
	logs := logSeq([2]string{model.LogActionComplete, "a"}, [2]string{model.LogActionComment, "a"})

	change := deriveWith(now)(a, logs)
	if change.Status != model.AssignmentCompleted {
		t.Fatalf("期望 completed，实际 %s", change.Status)
	}
	if change.CompletedAt == nil || !change.CompletedAt.Equal(earlier) {
		t.Errorf("已完成任务的完成时间不应被覆盖，实际: %v", change.CompletedAt)
	}

	a.Status = model.AssignmentInProgress
	a.CompletedAt = nil
	change = deriveWith(now)(a, logs)
	if change.CompletedAt == nil || !change.CompletedAt.Equal(now) {
		t.Errorf("期望完成时间为 now，实际: %v", change.CompletedAt)
	}

	change = deriveWith(now)(a, logSeq([2]string{model.LogActionComplete, "a"}, [2]string{model.LogActionUncomplete, "a"}))
	if change.Status != model.AssignmentPending || change.CompletedAt != nil {
		t.Errorf("取消勾选后应回到 pending 且无完成时间，实际: %+v", change)
	}
}

type dated struct {
	name string
	at   time.Time
}

func TestGroupByMonth_DescendingKeys(t *testing.T) {
	items := []dated{
		{"jan-1", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"mar-1", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"jan-2", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
		{"dec", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"mar-2", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	groups := GroupByMonth(items, func(d dated) time.Time { return d.at })

	wantKeys := []string{"2024/03", "2024/01", "2023/12"}
	if len(groups) != len(wantKeys) {
		t.Fatalf("期望 %d 组，实际 %d", len(wantKeys), len(groups))
	}
	for i, k := range wantKeys {
		if groups[i].Key != k {
			t.Errorf("第 %d 组期望 %s，实际 %s", i, k, groups[i].Key)
		}
	}
	// 组内保持输入顺序
	if groups[0].Items[0].name != "mar-1" || groups[0].Items[1].name != "mar-2" {
		t.Errorf("2024/03 组内顺序错误: %+v", groups[0].Items)
	}
	if groups[1].Items[0].name != "jan-1" || groups[1].Items[1].name != "jan-2" {
		t.Errorf("2024/01 组内顺序错误: %+v", groups[1].Items)
	}
}

func TestGroupByMonth_Empty(t *testing.T) {
	groups := GroupByMonth([]dated{}, func(d dated) time.Time { return d.at })
	if groups == nil || len(groups) != 0 {
		t.Errorf("空输入应返回空结果，实际: %v", groups)
	}
}
