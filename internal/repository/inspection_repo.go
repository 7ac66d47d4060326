package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
)

// InspectionFilter 巡检记录过滤条件
type InspectionFilter struct {
	StoreID  string
	From, To *time.Time
}

// InspectionRepository 巡检模板与巡检记录数据访问接口
type InspectionRepository interface {
	CreateTemplate(ctx context.Context, tpl *model.InspectionTemplate) error
	GetTemplate(ctx context.Context, id string) (*model.InspectionTemplate, error)
	ListTemplates(ctx context.Context, includeInactive bool) ([]model.InspectionTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *model.InspectionTemplate) error
	DeleteTemplate(ctx context.Context, id string) error

	// Create 在事务中写入主记录与全部明细
	Create(ctx context.Context, m *model.InspectionMaster) error
	GetByID(ctx context.Context, id string) (*model.InspectionMaster, error)
	List(ctx context.Context, filter InspectionFilter, offset, limit int) ([]model.InspectionMaster, int64, error)
	LatestByStore(ctx context.Context, storeID string) (*model.InspectionMaster, error)
	// Delete 在事务中先删明细再删主记录
	Delete(ctx context.Context, id string) error
}

type inspectionRepo struct {
	db *gorm.DB
}

// NewInspectionRepo 创建 InspectionRepository 实例
func NewInspectionRepo(db *gorm.DB) InspectionRepository {
	return &inspectionRepo{db: db}
}

func (r *inspectionRepo) CreateTemplate(ctx context.Context, tpl *model.InspectionTemplate) error {
	return r.db.WithContext(ctx).Create(tpl).Error
}

func (r *inspectionRepo) GetTemplate(ctx context.Context, id string) (*model.InspectionTemplate, error) {
	var tpl model.InspectionTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tpl).Error
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *inspectionRepo) ListTemplates(ctx context.Context, includeInactive bool) ([]model.InspectionTemplate, error) {
	q := r.db.WithContext(ctx)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var tpls []model.InspectionTemplate
	err := q.Order("name ASC").Find(&tpls).Error
	return tpls, err
}

func (r *inspectionRepo) UpdateTemplate(ctx context.Context, tpl *model.InspectionTemplate) error {
	return r.db.WithContext(ctx).
		Model(tpl).
		Select("name", "sections", "is_active", "updated_at").
		Updates(tpl).Error
}

// DeleteTemplate 被巡检记录引用时由外键约束拒绝
func (r *inspectionRepo) DeleteTemplate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.InspectionTemplate{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *inspectionRepo) Create(ctx context.Context, m *model.InspectionMaster) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		results := m.Results
		m.Results = nil
		if err := tx.Omit("Results").Create(m).Error; err != nil {
			return err
		}
		for i := range results {
			results[i].InspectionID = m.ID
		}
		if len(results) > 0 {
			if err := tx.Create(&results).Error; err != nil {
				return err
			}
		}
		m.Results = results
		return nil
	})
}

func (r *inspectionRepo) GetByID(ctx context.Context, id string) (*model.InspectionMaster, error) {
	var m model.InspectionMaster
	err := r.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *inspectionRepo) List(ctx context.Context, filter InspectionFilter, offset, limit int) ([]model.InspectionMaster, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InspectionMaster{})
	if filter.StoreID != "" {
		q = q.Where("store_id = ?", filter.StoreID)
	}
	if filter.From != nil {
		q = q.Where("inspection_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("inspection_date <= ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []model.InspectionMaster
	err := q.Order("inspection_date DESC, created_at DESC").Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

func (r *inspectionRepo) LatestByStore(ctx context.Context, storeID string) (*model.InspectionMaster, error) {
	var m model.InspectionMaster
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("inspection_date DESC, created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *inspectionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inspection_id = ?", id).
			Delete(&model.InspectionResult{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.InspectionMaster{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
