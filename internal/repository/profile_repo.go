package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
)

// ProfileFilter 档案列表过滤条件
type ProfileFilter struct {
	Role       string
	Department string
	Keyword    string // 匹配姓名 / 邮箱 / 工号
}

// ProfileRepository 用户档案数据访问接口
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
	List(ctx context.Context, filter ProfileFilter, offset, limit int) ([]model.Profile, int64, error)
	Update(ctx context.Context, profile *model.Profile) error
}

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo 创建 ProfileRepository 实例
func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []model.Profile
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) List(ctx context.Context, filter ProfileFilter, offset, limit int) ([]model.Profile, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Profile{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		q = q.Where("full_name ILIKE ? OR email ILIKE ? OR employee_code ILIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []model.Profile
	err := q.Order("full_name ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&profiles).Error
	return profiles, total, err
}

func (r *profileRepo) Update(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).
		Model(profile).
		Select("full_name", "role", "department", "job_title", "employee_code", "store_id", "updated_at").
		Updates(profile).Error
}
