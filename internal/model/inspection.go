package model

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// InspectionItem 巡检项
type InspectionItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	MaxScore decimal.Decimal `json:"max_score"`
}

// InspectionSection 巡检分区
type InspectionSection struct {
	ID    string           `json:"id"`
	Title string           `json:"title"`
	Items []InspectionItem `json:"items"`
}

// SectionList 分区列表，存储为 JSONB
type SectionList []InspectionSection

// Scan 实现 sql.Scanner
func (s *SectionList) Scan(src interface{}) error {
	*s = nil
	return scanJSON(src, s)
}

// Value 实现 driver.Valuer
func (s SectionList) Value() (driver.Value, error) {
	return valueJSON([]InspectionSection(s))
}

// MaxScore 所有巡检项满分之和
func (s SectionList) MaxScore() decimal.Decimal {
	total := decimal.Zero
	for _, sec := range s {
		for _, it := range sec.Items {
			total = total.Add(it.MaxScore)
		}
	}
	return total
}

// FindItem 按 (section, item) 查找巡检项
func (s SectionList) FindItem(sectionID, itemID string) (InspectionItem, bool) {
	for _, sec := range s {
		if sec.ID != sectionID {
			continue
		}
		for _, it := range sec.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return InspectionItem{}, false
}

// InspectionTemplate 巡检模板，对应 inspection_templates
type InspectionTemplate struct {
	ID        string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Sections  SectionList `gorm:"type:jsonb;not null"                            json:"sections"`
	IsActive  bool        `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

func (InspectionTemplate) TableName() string { return "inspection_templates" }

// InspectionMaster 巡检主记录，对应 inspection_masters
type InspectionMaster struct {
	ID             string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TemplateID     string          `gorm:"type:uuid;not null"                             json:"template_id"`
	StoreID        string          `gorm:"type:uuid;not null;index"                       json:"store_id"`
	InspectorID    string          `gorm:"type:uuid;not null"                             json:"inspector_id"`
	InspectionDate time.Time       `gorm:"type:date;not null"                             json:"inspection_date"`
	TotalScore     decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"total_score"`
	MaxScore       decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0"           json:"max_score"`
	Note           string          `gorm:"type:text"                                      json:"note,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Results []InspectionResult `gorm:"foreignKey:InspectionID" json:"results,omitempty"`
}

func (InspectionMaster) TableName() string { return "inspection_masters" }

// InspectionResult 巡检明细，对应 inspection_results
type InspectionResult struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"             json:"id"`
	InspectionID string          `gorm:"type:uuid;not null;index"             json:"inspection_id"`
	SectionID    string          `gorm:"type:varchar(64);not null"            json:"section_id"`
	ItemID       string          `gorm:"type:varchar(64);not null"            json:"item_id"`
	Score        decimal.Decimal `gorm:"type:numeric(8,2);not null;default:0" json:"score"`
	IsChecked    bool            `gorm:"not null;default:false"               json:"is_checked"`
	Note         string          `gorm:"type:text"                            json:"note,omitempty"`
}

func (InspectionResult) TableName() string { return "inspection_results" }
