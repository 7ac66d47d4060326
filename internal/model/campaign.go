package model

import "time"

// Campaign 营销活动，对应 campaigns
// 可见性由按角色层级的发布标记决定
type Campaign struct {
	ID               string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title            string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Description      string    `gorm:"type:text"                                      json:"description,omitempty"`
	PublishToAdmin   bool      `gorm:"not null;default:true"                          json:"publish_to_admin"`
	PublishToManager bool      `gorm:"not null;default:false"                         json:"publish_to_manager"`
	PublishToMember  bool      `gorm:"not null;default:false"                         json:"publish_to_member"`
	StartDate        time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          time.Time `gorm:"type:date;not null"                             json:"end_date"`
	BaseModel

	// 关联
	Schedules []CampaignSchedule `gorm:"foreignKey:CampaignID" json:"schedules,omitempty"`
}

func (Campaign) TableName() string { return "campaigns" }

// VisibleTo 判断活动是否对指定角色可见
func (c *Campaign) VisibleTo(role string) bool {
	switch role {
	case RoleAdmin:
		return c.PublishToAdmin
	case RoleManager:
		return c.PublishToManager
	case RoleMember:
		return c.PublishToMember
	}
	return false
}

// CampaignSchedule 活动排期，对应 campaign_schedules（随活动级联删除）
type CampaignSchedule struct {
	ID         string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CampaignID string    `gorm:"type:uuid;not null;index"                       json:"campaign_id"`
	Title      string    `gorm:"type:varchar(200);not null"                     json:"title"`
	StoreID    *string   `gorm:"type:uuid"                                      json:"store_id,omitempty"`
	StartDate  time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate    time.Time `gorm:"type:date;not null"                             json:"end_date"`
	Note       string    `gorm:"type:text"                                      json:"note,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (CampaignSchedule) TableName() string { return "campaign_schedules" }
