package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmacy-ops/backend/internal/model"
)

// AssignmentFilter 任务列表过滤条件
type AssignmentFilter struct {
	// Participant 非空时只返回该用户作为负责人或协作者的任务
	Participant string
	AssignedTo  string
	Status      model.AssignmentStatus
}

// ErrAssignmentLocked 已归档的任务不再接受日志
var ErrAssignmentLocked = errors.New("任务已归档，不可再修改")

// StatusChange 日志写入后推导出的状态变更
type StatusChange struct {
	Status      model.AssignmentStatus
	CompletedAt *time.Time
}

// EntryFunc 在行锁内由已有日志构造本次追加的日志
type EntryFunc func(prior []model.TaskLog) *model.TaskLog

// DeriveFunc 由完整日志序列（按创建顺序，含本次新增）推导任务状态
type DeriveFunc func(a *model.TaskAssignment, logs []model.TaskLog) StatusChange

// TaskAssignmentRepository 任务实例数据访问接口
type TaskAssignmentRepository interface {
	// Create 在事务中创建任务实例及协作者
	Create(ctx context.Context, a *model.TaskAssignment) error
	GetByID(ctx context.Context, id string) (*model.TaskAssignment, error)
	List(ctx context.Context, filter AssignmentFilter, offset, limit int) ([]model.TaskAssignment, int64, error)
	// ListArchived 按创建时间倒序返回全部已归档任务
	ListArchived(ctx context.Context) ([]model.TaskAssignment, error)
	// UpdateState 仅当当前状态为 from 时更新；返回是否命中
	UpdateState(ctx context.Context, id string, from model.AssignmentStatus, to model.AssignmentStatus, archivedAt *time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	AddCollaborators(ctx context.Context, assignmentID string, userIDs []string) error
	RemoveCollaborator(ctx context.Context, assignmentID, userID string) (bool, error)

	// AppendLog 在事务中锁定任务，读取已有日志构造并追加新日志，重放后写回状态
	AppendLog(ctx context.Context, assignmentID string, build EntryFunc, derive DeriveFunc) (*model.TaskAssignment, []model.TaskLog, error)
	ListLogs(ctx context.Context, assignmentID string) ([]model.TaskLog, error)
}

type taskAssignmentRepo struct {
	db *gorm.DB
}

// NewTaskAssignmentRepo 创建 TaskAssignmentRepository 实例
func NewTaskAssignmentRepo(db *gorm.DB) TaskAssignmentRepository {
	return &taskAssignmentRepo{db: db}
}

func (r *taskAssignmentRepo) Create(ctx context.Context, a *model.TaskAssignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collaborators := a.Collaborators
		a.Collaborators = nil
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		for i := range collaborators {
			collaborators[i].AssignmentID = a.ID
		}
		if len(collaborators) > 0 {
			if err := tx.Create(&collaborators).Error; err != nil {
				return err
			}
		}
		a.Collaborators = collaborators
		return nil
	})
}

func (r *taskAssignmentRepo) GetByID(ctx context.Context, id string) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	err := r.db.WithContext(ctx).
		Preload("Collaborators", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *taskAssignmentRepo) List(ctx context.Context, filter AssignmentFilter, offset, limit int) ([]model.TaskAssignment, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.TaskAssignment{})
	if filter.Participant != "" {
		q = q.Where("assigned_to = ? OR id IN (?)", filter.Participant,
			r.db.Model(&model.TaskCollaborator{}).Select("assignment_id").Where("user_id = ?", filter.Participant))
	}
	if filter.AssignedTo != "" {
		q = q.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.TaskAssignment
	err := q.Preload("Collaborators").
		Order("created_at DESC, id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *taskAssignmentRepo) ListArchived(ctx context.Context) ([]model.TaskAssignment, error) {
	var items []model.TaskAssignment
	err := r.db.WithContext(ctx).
		Preload("Collaborators").
		Where("status = ?", model.AssignmentArchived).
		Order("created_at DESC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *taskAssignmentRepo) UpdateState(ctx context.Context, id string, from, to model.AssignmentStatus, archivedAt *time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.TaskAssignment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":      to,
			"archived_at": archivedAt,
			"updated_at":  gorm.Expr("NOW()"),
		})
	return res.RowsAffected > 0, res.Error
}

// Delete 硬删除；协作者与日志随外键级联删除
func (r *taskAssignmentRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.TaskAssignment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *taskAssignmentRepo) AddCollaborators(ctx context.Context, assignmentID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]model.TaskCollaborator, 0, len(userIDs))
	for _, uid := range userIDs {
		rows = append(rows, model.TaskCollaborator{AssignmentID: assignmentID, UserID: uid})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *taskAssignmentRepo) RemoveCollaborator(ctx context.Context, assignmentID, userID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("assignment_id = ? AND user_id = ?", assignmentID, userID).
		Delete(&model.TaskCollaborator{})
	return res.RowsAffected > 0, res.Error
}

func (r *taskAssignmentRepo) AppendLog(ctx context.Context, assignmentID string, build EntryFunc, derive DeriveFunc) (*model.TaskAssignment, []model.TaskLog, error) {
	var (
		a    model.TaskAssignment
		logs []model.TaskLog
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 行锁：同一任务的并发勾选串行化，保证重放结果与写回状态一致
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", assignmentID).
			First(&a).Error; err != nil {
			return err
		}
		if a.Status == model.AssignmentArchived {
			return ErrAssignmentLocked
		}
		if err := tx.Where("assignment_id = ?", assignmentID).
			Order("created_at ASC, id ASC").
			Find(&logs).Error; err != nil {
			return err
		}
		entry := build(logs)
		entry.AssignmentID = assignmentID
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		logs = append(logs, *entry)

		change := derive(&a, logs)
		if change.Status == a.Status && sameTime(change.CompletedAt, a.CompletedAt) {
			return nil
		}
		if err := tx.Model(&model.TaskAssignment{}).
			Where("id = ?", a.ID).
			Updates(map[string]interface{}{
				"status":       change.Status,
				"completed_at": change.CompletedAt,
				"updated_at":   gorm.Expr("NOW()"),
			}).Error; err != nil {
			return err
		}
		a.Status = change.Status
		a.CompletedAt = change.CompletedAt
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &a, logs, nil
}

func (r *taskAssignmentRepo) ListLogs(ctx context.Context, assignmentID string) ([]model.TaskLog, error) {
	var logs []model.TaskLog
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
