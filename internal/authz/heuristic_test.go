package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmacy-ops/backend/internal/model"
)

func TestIsRealSupervisor(t *testing.T) {
	tests := []struct {
		count, total int
		want         bool
	}{
		{5, 20, true},
		{19, 20, false}, // >= 90%，视为区域经理
		{18, 20, false}, // 恰好 90%
		{17, 20, true},
		{2, 20, false},
		{3, 20, true},
		{3, 3, false},
		{0, 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRealSupervisor(tt.count, tt.total), "count=%d total=%d", tt.count, tt.total)
	}
}

func TestCountSupervisorStores(t *testing.T) {
	rows := []model.StoreManager{
		{UserID: "a", StoreID: "s1", RoleType: model.StoreRoleSupervisor},
		{UserID: "a", StoreID: "s2", RoleType: model.StoreRoleSupervisor},
		{UserID: "a", StoreID: "s2", RoleType: model.StoreRoleSupervisor},
		{UserID: "a", StoreID: "s3", RoleType: model.StoreRoleStoreManager},
		{UserID: "b", StoreID: "s1", RoleType: model.StoreRoleSupervisor},
	}
	got := CountSupervisorStores(rows)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, got)
}

func TestValidKey(t *testing.T) {
	cases := map[string]bool{
		"employee.employee.create":     true,
		"payroll.meal_allowance.write": true,
		"employee.employee":            false,
		"employee.*":                   false,
		"Employee.x.y":                 false,
		"a.b.c.d":                      false,
		"":                             false,
	}
	for key, want := range cases {
		if got := ValidKey(key); got != want {
			t.Errorf("ValidKey(%q) = %v，期望 %v", key, got, want)
		}
	}
}

func TestValidPolicyKey(t *testing.T) {
	cases := map[string]bool{
		"*":                        true,
		"employee.*":               true,
		"employee.movement.*":      true,
		"employee.movement.read":   true,
		"employee":                 false,
		"employee.movement":        false,
		"employee.movement.read.*": false,
		"*.read":                   false,
	}
	for key, want := range cases {
		if got := ValidPolicyKey(key); got != want {
			t.Errorf("ValidPolicyKey(%q) = %v，期望 %v", key, got, want)
		}
	}
}
