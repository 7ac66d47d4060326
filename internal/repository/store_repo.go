package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmacy-ops/backend/internal/model"
)

// StoreFilter 门店列表过滤条件
type StoreFilter struct {
	Region          string
	IncludeInactive bool
}

// StoreRepository 门店与门店管理关系数据访问接口
type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*model.Store, error)
	List(ctx context.Context, filter StoreFilter) ([]model.Store, error)
	CountActive(ctx context.Context) (int64, error)
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)

	// ListManagers 返回全部管理关系（含档案）；roleType 为空时不过滤
	ListManagers(ctx context.Context, roleType string) ([]model.StoreManager, error)
	// ReplacePrimaryStoreManager 在事务中整体替换某人的 store_manager/is_primary 行
	ReplacePrimaryStoreManager(ctx context.Context, userID string, storeIDs []string) error
}

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepo 创建 StoreRepository 实例
func NewStoreRepo(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *storeRepo) List(ctx context.Context, filter StoreFilter) ([]model.Store, error) {
	q := r.db.WithContext(ctx)
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	var stores []model.Store
	err := q.Order("store_code ASC").Find(&stores).Error
	return stores, err
}

func (r *storeRepo) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Store{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *storeRepo) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	err := r.db.WithContext(ctx).
		Model(&model.Store{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	return found, err
}

func (r *storeRepo) ListManagers(ctx context.Context, roleType string) ([]model.StoreManager, error) {
	q := r.db.WithContext(ctx).Preload("Profile")
	if roleType != "" {
		q = q.Where("role_type = ?", roleType)
	}
	var rows []model.StoreManager
	err := q.Order("store_id ASC, is_primary DESC, user_id ASC").Find(&rows).Error
	return rows, err
}

func (r *storeRepo) ReplacePrimaryStoreManager(ctx context.Context, userID string, storeIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND role_type = ? AND is_primary = ?",
			userID, model.StoreRoleStoreManager, true).
			Delete(&model.StoreManager{}).Error; err != nil {
			return err
		}
		if len(storeIDs) == 0 {
			return nil
		}
		rows := make([]model.StoreManager, 0, len(storeIDs))
		for _, sid := range storeIDs {
			rows = append(rows, model.StoreManager{
				UserID:    userID,
				StoreID:   sid,
				RoleType:  model.StoreRoleStoreManager,
				IsPrimary: true,
			})
		}
		// 同一门店已有非主管理行时改为主管理，避免触发 (user_id, store_id, role_type) 唯一约束
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "store_id"}, {Name: "role_type"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"is_primary": true}),
		}).Create(&rows).Error
	})
}
