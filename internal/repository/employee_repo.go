package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
)

// EmployeeFilter 门店员工过滤条件
type EmployeeFilter struct {
	StoreID         string
	Keyword         string
	IncludeInactive bool
}

// MovementFilter 异动记录过滤条件
type MovementFilter struct {
	EmployeeCode string
	StoreID      string // 匹配调出或调入门店
	MovementType string
	From, To     *time.Time
}

// PromotionFilter 升迁记录过滤条件
type PromotionFilter struct {
	EmployeeCode string
	StoreID      string
	Status       string
}

// EmployeeRepository 员工、异动、升迁数据访问接口
type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, e *model.StoreEmployee) error
	ListEmployees(ctx context.Context, filter EmployeeFilter, offset, limit int) ([]model.StoreEmployee, int64, error)
	CountActiveByStore(ctx context.Context, storeID string) (int64, error)

	CreateMovement(ctx context.Context, m *model.EmployeeMovementHistory) error
	ListMovements(ctx context.Context, filter MovementFilter, offset, limit int) ([]model.EmployeeMovementHistory, int64, error)

	CreatePromotion(ctx context.Context, p *model.EmployeePromotionHistory) error
	ListPromotions(ctx context.Context, filter PromotionFilter, offset, limit int) ([]model.EmployeePromotionHistory, int64, error)
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo 创建 EmployeeRepository 实例
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) CreateEmployee(ctx context.Context, e *model.StoreEmployee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *employeeRepo) ListEmployees(ctx context.Context, filter EmployeeFilter, offset, limit int) ([]model.StoreEmployee, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StoreEmployee{})
	if filter.StoreID != "" {
		q = q.Where("store_id = ?", filter.StoreID)
	}
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		q = q.Where("name ILIKE ? OR employee_code ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.StoreEmployee
	err := q.Order("employee_code ASC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (r *employeeRepo) CountActiveByStore(ctx context.Context, storeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.StoreEmployee{}).
		Where("store_id = ? AND is_active = ?", storeID, true).
		Count(&count).Error
	return count, err
}

// ── 异动（只追加） ──

func (r *employeeRepo) CreateMovement(ctx context.Context, m *model.EmployeeMovementHistory) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *employeeRepo) ListMovements(ctx context.Context, filter MovementFilter, offset, limit int) ([]model.EmployeeMovementHistory, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.EmployeeMovementHistory{})
	if filter.EmployeeCode != "" {
		q = q.Where("employee_code = ?", filter.EmployeeCode)
	}
	if filter.StoreID != "" {
		q = q.Where("from_store_id = ? OR to_store_id = ?", filter.StoreID, filter.StoreID)
	}
	if filter.MovementType != "" {
		q = q.Where("movement_type = ?", filter.MovementType)
	}
	if filter.From != nil {
		q = q.Where("effective_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("effective_date <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.EmployeeMovementHistory
	err := q.Order("effective_date DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

// ── 升迁（只追加） ──

func (r *employeeRepo) CreatePromotion(ctx context.Context, p *model.EmployeePromotionHistory) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *employeeRepo) ListPromotions(ctx context.Context, filter PromotionFilter, offset, limit int) ([]model.EmployeePromotionHistory, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.EmployeePromotionHistory{})
	if filter.EmployeeCode != "" {
		q = q.Where("employee_code = ?", filter.EmployeeCode)
	}
	if filter.StoreID != "" {
		q = q.Where("store_id = ?", filter.StoreID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.EmployeePromotionHistory
	err := q.Order("effective_date DESC, id DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}
