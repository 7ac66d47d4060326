package service

import (
	"context"
	"errors"
	"testing"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
)

func setupTestEmployeeService() (EmployeeService, *testRepos) {
	repos, repo := newTestRepos()
	repos.store.add(&model.Store{ID: "store-01", StoreCode: "S01", IsActive: true})
	repos.store.add(&model.Store{ID: "store-02", StoreCode: "S02", IsActive: true})
	return NewEmployeeService(repo, testLogger()), repos
}

func movementReq(kind string, from, to *string) *dto.CreateMovementRequest {
	return &dto.CreateMovementRequest{
		EmployeeCode:  "E001",
		EmployeeName:  "张三",
		MovementType:  kind,
		FromStoreID:   from,
		ToStoreID:     to,
		EffectiveDate: "2024-03-01",
	}
}

// ── 异动测试 ──

func TestEmployeeService_CreateMovement_StoreRules(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()
	s1, s2 := strPtr("store-01"), strPtr("store-02")

	tests := []struct {
		name string
		req  *dto.CreateMovementRequest
		want error
	}{
		{"入职", movementReq(model.MovementOnboard, nil, s1), nil},
		{"入职缺调入门店", movementReq(model.MovementOnboard, nil, nil), ErrMovementStores},
		{"调动", movementReq(model.MovementTransfer, s1, s2), nil},
		{"调动同一门店", movementReq(model.MovementTransfer, s1, s1), ErrMovementSameStore},
		{"调动缺调出门店", movementReq(model.MovementTransfer, nil, s2), ErrMovementStores},
		{"离职", movementReq(model.MovementResign, s1, nil), nil},
		{"停薪带调入门店", movementReq(model.MovementLeave, s1, s2), ErrMovementStores},
		{"空字符串视为未填", movementReq(model.MovementResign, s1, strPtr("")), nil},
		{"门店不存在", movementReq(model.MovementOnboard, nil, strPtr("store-99")), ErrStoreNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateMovement(ctx, tt.req, "user-hr")
			if tt.want == nil && err != nil {
				t.Errorf("应成功: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestEmployeeService_ListMovements_ByStore(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()
	s1, s2 := strPtr("store-01"), strPtr("store-02")
	for _, req := range []*dto.CreateMovementRequest{
		movementReq(model.MovementOnboard, nil, s1),
		movementReq(model.MovementTransfer, s1, s2),
		movementReq(model.MovementOnboard, nil, s2),
	} {
		if _, err := svc.CreateMovement(ctx, req, "user-hr"); err != nil {
			t.Fatalf("CreateMovement 应成功: %v", err)
		}
	}

	items, total, err := svc.ListMovements(ctx, &dto.MovementListRequest{StoreID: "store-01"})
	if err != nil {
		t.Fatalf("ListMovements 应成功: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("按门店过滤应匹配调出或调入，期望 2，实际=%d", total)
	}
}

// ── 升迁测试 ──

func TestEmployeeService_CreatePromotion_Pending(t *testing.T) {
	svc, _ := setupTestEmployeeService()

	resp, err := svc.CreatePromotion(context.Background(), &dto.CreatePromotionRequest{
		EmployeeCode: "E001", EmployeeName: "张三", StoreID: "store-01",
		OldPosition: "店员", NewPosition: "副店长", EffectiveDate: "2024-04-01",
	}, "user-hr")
	if err != nil {
		t.Fatalf("CreatePromotion 应成功: %v", err)
	}
	if resp.Status != model.PromotionPending {
		t.Errorf("新升迁记录应为 pending，实际=%s", resp.Status)
	}
}

func TestEmployeeService_CreateEmployee_Duplicate(t *testing.T) {
	svc, _ := setupTestEmployeeService()
	ctx := context.Background()
	req := &dto.CreateStoreEmployeeRequest{EmployeeCode: "E001", Name: "张三", StoreID: "store-01"}

	if _, err := svc.CreateEmployee(ctx, req); err != nil {
		t.Fatalf("CreateEmployee 应成功: %v", err)
	}
	if _, err := svc.CreateEmployee(ctx, req); !errors.Is(err, ErrEmployeeDuplicate) {
		t.Errorf("期望 ErrEmployeeDuplicate，实际: %v", err)
	}
}
