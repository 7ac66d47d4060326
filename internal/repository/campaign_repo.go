package repository

import (
	"context"

	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/model"
)

// CampaignRepository 活动与排期数据访问接口
type CampaignRepository interface {
	Create(ctx context.Context, c *model.Campaign) error
	GetByID(ctx context.Context, id string) (*model.Campaign, error)
	// List role 为空时返回全部活动，否则只返回对该角色发布的活动
	List(ctx context.Context, role string) ([]model.Campaign, error)
	Update(ctx context.Context, c *model.Campaign) error
	// Delete 硬删除，排期随外键级联删除
	Delete(ctx context.Context, id string) error

	CreateSchedule(ctx context.Context, s *model.CampaignSchedule) error
	GetSchedule(ctx context.Context, campaignID, scheduleID string) (*model.CampaignSchedule, error)
	UpdateSchedule(ctx context.Context, s *model.CampaignSchedule) error
	DeleteSchedule(ctx context.Context, campaignID, scheduleID string) error
}

type campaignRepo struct {
	db *gorm.DB
}

// NewCampaignRepo 创建 CampaignRepository 实例
func NewCampaignRepo(db *gorm.DB) CampaignRepository {
	return &campaignRepo{db: db}
}

// publishColumn 角色 → 发布标记列
var publishColumn = map[string]string{
	model.RoleAdmin:   "publish_to_admin",
	model.RoleManager: "publish_to_manager",
	model.RoleMember:  "publish_to_member",
}

func (r *campaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	var c model.Campaign
	err := r.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_date ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *campaignRepo) List(ctx context.Context, role string) ([]model.Campaign, error) {
	q := r.db.WithContext(ctx).
		Preload("Schedules", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_date ASC, id ASC")
		})
	if role != "" {
		col, ok := publishColumn[role]
		if !ok {
			return nil, nil
		}
		q = q.Where(col+" = ?", true)
	}
	var items []model.Campaign
	err := q.Order("start_date DESC, id ASC").Find(&items).Error
	return items, err
}

func (r *campaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	return r.db.WithContext(ctx).
		Model(c).
		Select("title", "description", "publish_to_admin", "publish_to_manager", "publish_to_member",
			"start_date", "end_date", "updated_by", "updated_at").
		Updates(c).Error
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Campaign{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *campaignRepo) CreateSchedule(ctx context.Context, s *model.CampaignSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *campaignRepo) GetSchedule(ctx context.Context, campaignID, scheduleID string) (*model.CampaignSchedule, error) {
	var s model.CampaignSchedule
	err := r.db.WithContext(ctx).
		Where("id = ? AND campaign_id = ?", scheduleID, campaignID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *campaignRepo) UpdateSchedule(ctx context.Context, s *model.CampaignSchedule) error {
	return r.db.WithContext(ctx).
		Model(s).
		Select("title", "store_id", "start_date", "end_date", "note", "updated_at").
		Updates(s).Error
}

func (r *campaignRepo) DeleteSchedule(ctx context.Context, campaignID, scheduleID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND campaign_id = ?", scheduleID, campaignID).
		Delete(&model.CampaignSchedule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
