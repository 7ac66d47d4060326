package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmacy-ops/backend/internal/model"
)

// MonthTotal 某门店某月的汇总
type MonthTotal struct {
	Count int64
	Total decimal.Decimal
}

// 月度唯一键 (employee_code, store_id, year_month)
var monthlyConflictColumns = []clause.Column{
	{Name: "employee_code"}, {Name: "store_id"}, {Name: "year_month"},
}

// PayrollRepository 月度状态、支援奖金、伙食补贴、交通费数据访问接口
type PayrollRepository interface {
	ListStaffStatus(ctx context.Context, storeID, yearMonth string) ([]model.MonthlyStaffStatus, error)
	SumStaffStatus(ctx context.Context, storeID, yearMonth string) (MonthTotal, error)

	ListBonus(ctx context.Context, storeID, yearMonth string) ([]model.SupportStaffBonus, error)
	// ReplaceBonusBatch 在事务中删除 (store, year_month) 的旧数据并写入新数据
	ReplaceBonusBatch(ctx context.Context, storeID, yearMonth string, rows []model.SupportStaffBonus) error
	SumBonus(ctx context.Context, storeID, yearMonth string) (MonthTotal, error)

	ListMealAllowances(ctx context.Context, storeID, yearMonth string) ([]model.MealAllowanceRecord, error)
	UpsertMealAllowances(ctx context.Context, rows []model.MealAllowanceRecord) error
	DeleteMealAllowance(ctx context.Context, id string) error
	SumMealAllowances(ctx context.Context, storeID, yearMonth string) (MonthTotal, error)

	ListTransportExpenses(ctx context.Context, storeID, yearMonth string) ([]model.TransportExpense, error)
	UpsertTransportExpense(ctx context.Context, row *model.TransportExpense) error
	DeleteTransportExpense(ctx context.Context, id string) error
	SumTransportExpenses(ctx context.Context, storeID, yearMonth string) (MonthTotal, error)
}

type payrollRepo struct {
	db *gorm.DB
}

// NewPayrollRepo 创建 PayrollRepository 实例
func NewPayrollRepo(db *gorm.DB) PayrollRepository {
	return &payrollRepo{db: db}
}

func (r *payrollRepo) sum(ctx context.Context, m interface{}, column, storeID, yearMonth string) (MonthTotal, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(m).
		Select("COUNT(*) AS count, COALESCE(SUM("+column+"), 0) AS total").
		Where("store_id = ? AND year_month = ?", storeID, yearMonth).
		Scan(&row).Error
	return MonthTotal{Count: row.Count, Total: row.Total}, err
}

// ── 月度状态 ──

func (r *payrollRepo) ListStaffStatus(ctx context.Context, storeID, yearMonth string) ([]model.MonthlyStaffStatus, error) {
	var rows []model.MonthlyStaffStatus
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND year_month = ?", storeID, yearMonth).
		Order("employee_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *payrollRepo) SumStaffStatus(ctx context.Context, storeID, yearMonth string) (MonthTotal, error) {
	return r.sum(ctx, &model.MonthlyStaffStatus{}, "total_amount", storeID, yearMonth)
}

// ── 支援奖金 ──

func (r *payrollRepo) ListBonus(ctx context.Context, storeID, yearMonth string) ([]model.SupportStaffBonus, error) {
	var rows []model.SupportStaffBonus
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND year_month = ?", storeID, yearMonth).
		Order("employee_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *payrollRepo) ReplaceBonusBatch(ctx context.Context, storeID, yearMonth string, rows []model.SupportStaffBonus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ? AND year_month = ?", storeID, yearMonth).
			Delete(&model.SupportStaffBonus{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *payrollRepo) SumBonus(ctx context.Context, storeID, yearMonth string) (MonthTotal, error) {
	return r.sum(ctx, &model.SupportStaffBonus{}, "amount", storeID, yearMonth)
}

// ── 伙食补贴 ──

func (r *payrollRepo) ListMealAllowances(ctx context.Context, storeID, yearMonth string) ([]model.MealAllowanceRecord, error) {
	var rows []model.MealAllowanceRecord
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND year_month = ?", storeID, yearMonth).
		Order("employee_code ASC").
		Find(&rows).Error
	return rows, err
}

// UpsertMealAllowances 多行在同一语句内 upsert，导入时整体成功或整体失败
func (r *payrollRepo) UpsertMealAllowances(ctx context.Context, rows []model.MealAllowanceRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: monthlyConflictColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"employee_name": gorm.Expr("EXCLUDED.employee_name"),
				"days":          gorm.Expr("EXCLUDED.days"),
				"amount":        gorm.Expr("EXCLUDED.amount"),
				"note":          gorm.Expr("EXCLUDED.note"),
				"updated_by":    gorm.Expr("EXCLUDED.updated_by"),
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).
		Create(&rows).Error
}

func (r *payrollRepo) DeleteMealAllowance(ctx context.Context, id string) error {
	return r.deleteByID(ctx, &model.MealAllowanceRecord{}, id)
}

func (r *payrollRepo) SumMealAllowances(ctx context.Context, storeID, yearMonth string) (MonthTotal, error) {
	return r.sum(ctx, &model.MealAllowanceRecord{}, "amount", storeID, yearMonth)
}

// ── 交通费 ──

func (r *payrollRepo) ListTransportExpenses(ctx context.Context, storeID, yearMonth string) ([]model.TransportExpense, error) {
	var rows []model.TransportExpense
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND year_month = ?", storeID, yearMonth).
		Order("employee_code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *payrollRepo) UpsertTransportExpense(ctx context.Context, row *model.TransportExpense) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: monthlyConflictColumns,
			DoUpdates: clause.Assignments(map[string]interface{}{
				"employee_name": gorm.Expr("EXCLUDED.employee_name"),
				"trips":         gorm.Expr("EXCLUDED.trips"),
				"amount":        gorm.Expr("EXCLUDED.amount"),
				"note":          gorm.Expr("EXCLUDED.note"),
				"updated_by":    gorm.Expr("EXCLUDED.updated_by"),
				"updated_at":    gorm.Expr("NOW()"),
			}),
		}).
		Create(row).Error
}

func (r *payrollRepo) DeleteTransportExpense(ctx context.Context, id string) error {
	return r.deleteByID(ctx, &model.TransportExpense{}, id)
}

func (r *payrollRepo) SumTransportExpenses(ctx context.Context, storeID, yearMonth string) (MonthTotal, error) {
	return r.sum(ctx, &model.TransportExpense{}, "amount", storeID, yearMonth)
}

func (r *payrollRepo) deleteByID(ctx context.Context, m interface{}, id string) error {
	res := r.db.WithContext(ctx).Delete(m, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
