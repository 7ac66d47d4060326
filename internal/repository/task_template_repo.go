package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// TaskTemplateRepository 任务模板数据访问接口
type TaskTemplateRepository interface {
	Create(ctx context.Context, tpl *model.TaskTemplate) error
	GetByID(ctx context.Context, id string) (*model.TaskTemplate, error)
	List(ctx context.Context, keyword string) ([]model.TaskTemplate, error)
	// Update 以 tpl.Version 为期望版本更新，版本不一致返回 ErrOptimisticLock；成功后 tpl.Version 自增
	Update(ctx context.Context, tpl *model.TaskTemplate) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type taskTemplateRepo struct {
	db *gorm.DB
}

// NewTaskTemplateRepo 创建 TaskTemplateRepository 实例
func NewTaskTemplateRepo(db *gorm.DB) TaskTemplateRepository {
	return &taskTemplateRepo{db: db}
}

func (r *taskTemplateRepo) Create(ctx context.Context, tpl *model.TaskTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *taskTemplateRepo) GetByID(ctx context.Context, id string) (*model.TaskTemplate, error) {
	var tpl model.TaskTemplate
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *taskTemplateRepo) List(ctx context.Context, keyword string) ([]model.TaskTemplate, error) {
	q := r.db.WithContext(ctx)
	if keyword != "" {
		q = q.Where("title ILIKE ?", "%"+keyword+"%")
	}
	var tpls []model.TaskTemplate
	err := q.Order("updated_at DESC").Find(&tpls).Error
	return tpls, err
}

func (r *taskTemplateRepo) Update(ctx context.Context, tpl *model.TaskTemplate) error {
	res := r.db.WithContext(ctx).
		Model(&model.TaskTemplate{}).
		Where("id = ? AND version = ?", tpl.ID, tpl.Version).
		Updates(map[string]interface{}{
			"title":        tpl.Title,
			"description":  tpl.Description,
			"steps_schema": tpl.Steps,
			"updated_by":   tpl.UpdatedBy,
			"updated_at":   gorm.Expr("NOW()"),
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	tpl.Version++
	return nil
}

func (r *taskTemplateRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	res := r.db.WithContext(ctx).
		Model(&model.TaskTemplate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
