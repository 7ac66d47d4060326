package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestPayrollService() (*payrollService, *testRepos) {
	repos, repo := newTestRepos()
	repos.store.add(&model.Store{ID: "store-01", StoreCode: "S01", Name: "城东店", IsActive: true})
	svc := NewPayrollService(repo, testLogger()).(*payrollService)
	svc.now = func() time.Time { return time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC) }
	return svc, repos
}

var march = &dto.StoreMonthQuery{StoreID: "store-01", YearMonth: "202403"}

func bonusItem(code string, amount int64) dto.BonusItemInput {
	return dto.BonusItemInput{
		EmployeeCode: code,
		EmployeeName: "员工" + code,
		SupportDays:  decimal.NewFromInt(2),
		Amount:       decimal.NewFromInt(amount),
	}
}

func mealFile(t *testing.T, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("单元格坐标错误: %v", err)
		}
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("写入表格失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成表格失败: %v", err)
	}
	return buf
}

// ── 支援奖金测试 ──

func TestPayrollService_ReplaceBonus(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()

	_, err := svc.ReplaceBonus(ctx, &dto.ReplaceBonusRequest{
		StoreID: "store-01", YearMonth: "202403",
		Items: []dto.BonusItemInput{bonusItem("E1", 100), bonusItem("E2", 200)},
	}, "user-admin")
	if err != nil {
		t.Fatalf("ReplaceBonus 应成功: %v", err)
	}
	repos.payroll.bonus = append(repos.payroll.bonus, model.SupportStaffBonus{
		StoreID: "store-01", YearMonth: "202402", EmployeeCode: "E9", Amount: decimal.NewFromInt(50),
	})

	resp, err := svc.ReplaceBonus(ctx, &dto.ReplaceBonusRequest{
		StoreID: "store-01", YearMonth: "202403",
		Items: []dto.BonusItemInput{bonusItem("E3", 300)},
	}, "user-admin")
	if err != nil {
		t.Fatalf("ReplaceBonus 应成功: %v", err)
	}
	if !resp.Total.Equal(decimal.NewFromInt(300)) || len(resp.Items) != 1 {
		t.Errorf("整批替换后期望 1 行合计 300，实际 %d 行合计 %s", len(resp.Items), resp.Total)
	}

	listed, err := svc.ListBonus(ctx, march)
	if err != nil {
		t.Fatalf("ListBonus 应成功: %v", err)
	}
	if len(listed.Items) != 1 || listed.Items[0].EmployeeCode != "E3" {
		t.Errorf("旧批次应被整体替换，实际=%+v", listed.Items)
	}
	if len(repos.payroll.bonus) != 2 {
		t.Errorf("其他月份的奖金不应受影响，实际总行数=%d", len(repos.payroll.bonus))
	}
}

func TestPayrollService_ReplaceBonus_Validation(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	negative := bonusItem("E2", 10)
	negative.SupportDays = decimal.NewFromInt(-1)

	tests := []struct {
		name  string
		store string
		items []dto.BonusItemInput
		want  error
	}{
		{"重复工号", "store-01", []dto.BonusItemInput{bonusItem("E1", 1), bonusItem("E1", 2)}, ErrBonusDuplicateEmployee},
		{"负金额", "store-01", []dto.BonusItemInput{bonusItem("E1", -5)}, ErrNegativeAmount},
		{"负天数", "store-01", []dto.BonusItemInput{negative}, ErrNegativeAmount},
		{"门店不存在", "store-99", []dto.BonusItemInput{bonusItem("E1", 1)}, ErrStoreNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ReplaceBonus(ctx, &dto.ReplaceBonusRequest{StoreID: tt.store, YearMonth: "202403", Items: tt.items}, "user-admin")
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
	if len(repos.payroll.bonus) != 0 {
		t.Errorf("校验失败时不应写入，实际=%d", len(repos.payroll.bonus))
	}
}

func TestPayrollService_ReplaceBonus_RepoFailureKeepsOldBatch(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	if _, err := svc.ReplaceBonus(ctx, &dto.ReplaceBonusRequest{
		StoreID: "store-01", YearMonth: "202403", Items: []dto.BonusItemInput{bonusItem("E1", 100)},
	}, "user-admin"); err != nil {
		t.Fatalf("ReplaceBonus 应成功: %v", err)
	}

	repos.payroll.replaceErr = errors.New("connection reset")
	_, err := svc.ReplaceBonus(ctx, &dto.ReplaceBonusRequest{
		StoreID: "store-01", YearMonth: "202403", Items: []dto.BonusItemInput{bonusItem("E2", 200)},
	}, "user-admin")
	if err == nil {
		t.Fatal("仓储失败时应返回错误")
	}
	if len(repos.payroll.bonus) != 1 || repos.payroll.bonus[0].EmployeeCode != "E1" {
		t.Errorf("失败后应保留原批次，实际=%+v", repos.payroll.bonus)
	}
}

// ── 伙食补贴测试 ──

func TestPayrollService_UpsertMealAllowance(t *testing.T) {
	svc, repos := setupTestPayrollService()
	ctx := context.Background()
	req := &dto.UpsertMealAllowanceRequest{
		EmployeeCode: "E1", EmployeeName: "张三", StoreID: "store-01", YearMonth: "202403",
		Days: decimal.NewFromInt(20), Amount: decimal.NewFromInt(400),
	}

	first, err := svc.UpsertMealAllowance(ctx, req, "user-admin")
	if err != nil {
		t.Fatalf("UpsertMealAllowance 应成功: %v", err)
	}
	req.Amount = decimal.NewFromInt(450)
	second, err := svc.UpsertMealAllowance(ctx, req, "user-admin")
	if err != nil {
		t.Fatalf("UpsertMealAllowance 应成功: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("同工号同月应更新同一行，实际 %s / %s", first.ID, second.ID)
	}
	if len(repos.payroll.meals) != 1 || !repos.payroll.meals[0].Amount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("期望单行金额 450，实际=%+v", repos.payroll.meals)
	}

	req.Amount = decimal.NewFromInt(-1)
	if _, err := svc.UpsertMealAllowance(ctx, req, "user-admin"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("期望 ErrNegativeAmount，实际: %v", err)
	}
}

func TestPayrollService_DeleteNotFound(t *testing.T) {
	svc, _ := setupTestPayrollService()
	ctx := context.Background()

	if err := svc.DeleteMealAllowance(ctx, "ghost"); !errors.Is(err, ErrMealAllowanceNotFound) {
		t.Errorf("期望 ErrMealAllowanceNotFound，实际: %v", err)
	}
	if err := svc.DeleteTransportExpense(ctx, "ghost"); !errors.Is(err, ErrTransportNotFound) {
		t.Errorf("期望 ErrTransportNotFound，实际: %v", err)
	}
}

func TestPayrollService_ImportMealAllowances(t *testing.T) {
	svc, repos := setupTestPayrollService()
	file := mealFile(t,
		[]interface{}{"工号", "姓名", "天数", "金额"},
		[]interface{}{"E1", "张三", "20", "400"},
		[]interface{}{"E2", "李四", "18", "abc"},
		[]interface{}{"E1", "张三", "21", "420"},
		[]interface{}{"E3", "王五", "22", "440"},
	)

	res, err := svc.ImportMealAllowances(context.Background(), march, file, "user-admin")
	if err != nil {
		t.Fatalf("ImportMealAllowances 应成功: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("期望导入 2 行，实际=%d", res.Imported)
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("期望跳过 2 行，实际=%+v", res.Skipped)
	}
	if res.Skipped[0].Row != 3 {
		t.Errorf("金额错误应报告第 3 行，实际=%d", res.Skipped[0].Row)
	}
	if res.Skipped[1].Row != 4 || !strings.Contains(res.Skipped[1].Reason, "第 2 行") {
		t.Errorf("重复工号应报告第 4 行并指向首行，实际=%+v", res.Skipped[1])
	}

	for _, m := range repos.payroll.meals {
		if m.EmployeeCode == "E1" && !m.Amount.Equal(decimal.NewFromInt(400)) {
			t.Errorf("重复工号应保留首行金额 400，实际=%s", m.Amount)
		}
		if m.StoreID != "store-01" || m.YearMonth != "202403" {
			t.Errorf("导入行应归属查询的门店与月份，实际=%+v", m)
		}
	}
}

func TestPayrollService_ImportMealAllowances_Errors(t *testing.T) {
	svc, _ := setupTestPayrollService()
	ctx := context.Background()

	_, err := svc.ImportMealAllowances(ctx, march, strings.NewReader("not a workbook"), "user-admin")
	if !errors.Is(err, ErrImportFile) {
		t.Errorf("期望 ErrImportFile，实际: %v", err)
	}

	blank := mealFile(t,
		[]interface{}{"工号", "姓名", "金额"},
		[]interface{}{"", "", ""},
	)
	if _, err := svc.ImportMealAllowances(ctx, march, blank, "user-admin"); !errors.Is(err, ErrImportEmpty) {
		t.Errorf("期望 ErrImportEmpty，实际: %v", err)
	}

	file := mealFile(t, []interface{}{"工号", "姓名", "金额"}, []interface{}{"E1", "张三", "1"})
	other := &dto.StoreMonthQuery{StoreID: "store-99", YearMonth: "202403"}
	if _, err := svc.ImportMealAllowances(ctx, other, file, "user-admin"); !errors.Is(err, ErrStoreNotFound) {
		t.Errorf("期望 ErrStoreNotFound，实际: %v", err)
	}
}

// ── 交通费测试 ──

func TestPayrollService_UpsertTransportExpense(t *testing.T) {
	svc, _ := setupTestPayrollService()
	ctx := context.Background()

	resp, err := svc.UpsertTransportExpense(ctx, &dto.UpsertTransportExpenseRequest{
		EmployeeCode: "E1", EmployeeName: "张三", StoreID: "store-01", YearMonth: "202403",
		Trips: 4, Amount: decimal.NewFromInt(80),
	}, "user-admin")
	if err != nil {
		t.Fatalf("UpsertTransportExpense 应成功: %v", err)
	}
	if resp.UpdatedAt == "" || resp.Trips != 4 {
		t.Errorf("响应字段不正确: %+v", resp)
	}

	list, err := svc.ListTransportExpenses(ctx, march)
	if err != nil {
		t.Fatalf("ListTransportExpenses 应成功: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("期望 1 行，实际=%d", len(list))
	}
	if err := svc.DeleteTransportExpense(ctx, list[0].ID); err != nil {
		t.Errorf("DeleteTransportExpense 应成功: %v", err)
	}
}
