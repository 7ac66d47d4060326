package model

import (
	"database/sql/driver"
	"time"
)

// TemplateStep 任务模板中的单个步骤
type TemplateStep struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// StepList 有序步骤列表，存储为 JSONB
type StepList []TemplateStep

// Scan 实现 sql.Scanner
func (s *StepList) Scan(src interface{}) error {
	*s = nil
	return scanJSON(src, s)
}

// Value 实现 driver.Valuer
func (s StepList) Value() (driver.Value, error) {
	return valueJSON([]TemplateStep(s))
}

// StepIDs 返回步骤 ID 集合
func (s StepList) StepIDs() map[string]bool {
	ids := make(map[string]bool, len(s))
	for _, st := range s {
		ids[st.ID] = true
	}
	return ids
}

// TaskTemplate 任务模板，对应 task_templates
type TaskTemplate struct {
	ID          string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string   `gorm:"type:varchar(200);not null"                     json:"title"`
	Description string   `gorm:"type:text"                                      json:"description,omitempty"`
	Steps       StepList `gorm:"column:steps_schema;type:jsonb;not null"        json:"steps_schema"`
	VersionedModel
}

func (TaskTemplate) TableName() string { return "task_templates" }

// AssignmentStatus 任务实例状态（显式标签状态，归档是状态而非独立标记）
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentArchived   AssignmentStatus = "archived"
)

// TaskAssignment 任务实例，对应 task_assignments
// steps_snapshot 为创建时的模板步骤快照，模板后续修改不影响已派发任务
type TaskAssignment struct {
	ID          string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TemplateID  string           `gorm:"type:uuid;not null"                             json:"template_id"`
	Title       string           `gorm:"type:varchar(200);not null"                     json:"title"`
	Steps       StepList         `gorm:"column:steps_snapshot;type:jsonb;not null"      json:"steps"`
	AssignedTo  string           `gorm:"type:uuid;not null"                             json:"assigned_to"`
	AssignedBy  string           `gorm:"type:uuid;not null"                             json:"assigned_by"`
	Status      AssignmentStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	DueDate     *time.Time       `gorm:"type:date"                                      json:"due_date,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	ArchivedAt  *time.Time       `json:"archived_at,omitempty"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Collaborators []TaskCollaborator `gorm:"foreignKey:AssignmentID" json:"collaborators,omitempty"`
}

func (TaskAssignment) TableName() string { return "task_assignments" }

// TaskCollaborator 任务协作者，对应 task_collaborators（多对多连接表）
type TaskCollaborator struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey"               json:"assignment_id"`
	UserID       string    `gorm:"type:uuid;primaryKey"               json:"user_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TaskCollaborator) TableName() string { return "task_collaborators" }

// 日志动作
const (
	LogActionComplete   = "complete"
	LogActionUncomplete = "uncomplete"
	LogActionComment    = "comment"
)

// TaskLog 任务操作日志，对应 task_logs（只追加；已勾选步骤由按创建顺序重放日志得出）
type TaskLog struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"           json:"id"`
	AssignmentID string    `gorm:"type:uuid;not null;index"           json:"assignment_id"`
	UserID       string    `gorm:"type:uuid;not null"                 json:"user_id"`
	StepID       string    `gorm:"type:varchar(64);not null"          json:"step_id"`
	Action       string    `gorm:"type:varchar(20);not null"          json:"action"` // complete | uncomplete | comment
	Note         string    `gorm:"type:text"                          json:"note,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (TaskLog) TableName() string { return "task_logs" }
