package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
)

// PermissionRepository 权限策略数据访问接口
type PermissionRepository interface {
	ListPolicies(ctx context.Context) ([]model.RolePermission, error)
	ListPoliciesByRole(ctx context.Context, role string) ([]model.RolePermission, error)
	CreatePolicy(ctx context.Context, p *model.RolePermission) error
	DeletePolicy(ctx context.Context, id uint64) (bool, error)
	ListAttributeRules(ctx context.Context) ([]model.RoleAttributeRule, error)
	CreateAttributeRule(ctx context.Context, rule *model.RoleAttributeRule) error
	DeleteAttributeRule(ctx context.Context, id uint64) (bool, error)
}

type permissionRepo struct {
	db *gorm.DB
}

// NewPermissionRepo 创建 PermissionRepository 实例
func NewPermissionRepo(db *gorm.DB) PermissionRepository {
	return &permissionRepo{db: db}
}

func (r *permissionRepo) ListPolicies(ctx context.Context) ([]model.RolePermission, error) {
	var rows []model.RolePermission
	err := r.db.WithContext(ctx).
		Order("role ASC, permission_key ASC").
		Find(&rows).Error
	return rows, err
}

func (r *permissionRepo) ListPoliciesByRole(ctx context.Context, role string) ([]model.RolePermission, error) {
	var rows []model.RolePermission
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("permission_key ASC").
		Find(&rows).Error
	return rows, err
}

func (r *permissionRepo) CreatePolicy(ctx context.Context, p *model.RolePermission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *permissionRepo) DeletePolicy(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.RolePermission{}, id)
	return res.RowsAffected > 0, res.Error
}

// ListAttributeRules 按 id 顺序返回，派生角色的顺序与之一致
func (r *permissionRepo) ListAttributeRules(ctx context.Context) ([]model.RoleAttributeRule, error) {
	var rows []model.RoleAttributeRule
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *permissionRepo) CreateAttributeRule(ctx context.Context, rule *model.RoleAttributeRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *permissionRepo) DeleteAttributeRule(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.RoleAttributeRule{}, id)
	return res.RowsAffected > 0, res.Error
}
