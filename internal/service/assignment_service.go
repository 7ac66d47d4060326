package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
)

// ── 任务实例模块业务错误 ──

var (
	ErrAssignmentNotFound     = errors.New("任务不存在")
	ErrAssignmentForbidden    = errors.New("只有任务负责人或协作者可以操作该任务")
	ErrAssignmentArchived     = errors.New("任务已归档，不可再修改")
	ErrAssignmentNotCompleted = errors.New("只有已完成的任务可以归档")
	ErrAssignmentNotArchived  = errors.New("任务未归档")
	ErrStepNotFound           = errors.New("任务中不存在该步骤")
	ErrAssigneeNotFound       = errors.New("负责人不存在")
	ErrCollaboratorNotFound   = errors.New("协作者不存在")
	ErrCollaboratorIsAssignee = errors.New("负责人不能同时是协作者")
)

// AssignmentService 任务实例业务接口
//
// 状态为显式标签：pending → in_progress → completed（由日志重放推导），
// completed ⇄ archived（显式操作）。已勾选步骤从不单独存储，始终由日志重放得出。
type AssignmentService interface {
	Create(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error)
	List(ctx context.Context, req *dto.AssignmentListRequest, callerID string) ([]dto.AssignmentResponse, int64, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error)
	ToggleStep(ctx context.Context, id, stepID string, req *dto.ToggleStepRequest, callerID string) (*dto.AssignmentResponse, error)
	Comment(ctx context.Context, id string, req *dto.CommentRequest, callerID string) (*dto.TaskLogResponse, error)
	ListLogs(ctx context.Context, id, callerID string) ([]dto.TaskLogResponse, error)
	Archive(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error)
	Unarchive(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	AddCollaborators(ctx context.Context, id string, req *dto.CollaboratorsRequest, callerID string) (*dto.AssignmentResponse, error)
	RemoveCollaborator(ctx context.Context, id, userID, callerID string) error
	// ArchivedGroups 管理员归档视图：按创建年月分组，组键降序
	ArchivedGroups(ctx context.Context) ([]dto.ArchiveGroupResponse, error)
}

type assignmentService struct {
	repo   *repository.Repository
	authz  Authorizer
	logger *zap.Logger
	now    func() time.Time
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(repo *repository.Repository, authorizer Authorizer, logger *zap.Logger) AssignmentService {
	return &assignmentService{repo: repo, authz: authorizer, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *assignmentService) Create(ctx context.Context, req *dto.CreateAssignmentRequest, callerID string) (*dto.AssignmentResponse, error) {
	tpl, err := s.repo.TaskTemplate.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询任务模板失败", zap.Error(err))
		return nil, err
	}

	if _, err := s.repo.Profile.GetByID(ctx, req.AssignedTo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		s.logger.Error("查询负责人失败", zap.Error(err))
		return nil, err
	}

	collaboratorIDs := dedupe(req.CollaboratorIDs)
	for _, uid := range collaboratorIDs {
		if uid == req.AssignedTo {
			return nil, ErrCollaboratorIsAssignee
		}
	}
	if err := s.ensureProfiles(ctx, collaboratorIDs); err != nil {
		return nil, err
	}

	dueDate, err := parseDatePtr(req.DueDate)
	if err != nil {
		return nil, err
	}

	a := &model.TaskAssignment{
		TemplateID: tpl.ID,
		Title:      tpl.Title,
		Steps:      tpl.Steps,
		AssignedTo: req.AssignedTo,
		AssignedBy: callerID,
		Status:     model.AssignmentPending,
		DueDate:    dueDate,
	}
	for _, uid := range collaboratorIDs {
		a.Collaborators = append(a.Collaborators, model.TaskCollaborator{UserID: uid})
	}

	if err := s.repo.TaskAssignment.Create(ctx, a); err != nil {
		s.logger.Error("派发任务失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("任务已派发",
		zap.String("id", a.ID),
		zap.String("template_id", tpl.ID),
		zap.String("assigned_to", a.AssignedTo),
		zap.Int("collaborators", len(collaboratorIDs)),
	)
	return toAssignmentResponse(a, map[string]bool{}), nil
}

// ────────────────────── List ──────────────────────

func (s *assignmentService) List(ctx context.Context, req *dto.AssignmentListRequest, callerID string) ([]dto.AssignmentResponse, int64, error) {
	filter := repository.AssignmentFilter{
		AssignedTo: req.AssignedTo,
		Status:     model.AssignmentStatus(req.Status),
	}
	if !req.All {
		filter.Participant = callerID
	} else {
		ok, err := s.authz.Check(ctx, callerID, authz.KeyAssignmentReadAll)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			filter.Participant = callerID
		}
	}

	items, total, err := s.repo.TaskAssignment.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询任务列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AssignmentResponse, 0, len(items))
	for i := range items {
		result = append(result, *toAssignmentResponse(&items[i], nil))
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *assignmentService) GetByID(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error) {
	a, err := s.getVisible(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.TaskAssignment.ListLogs(ctx, id)
	if err != nil {
		s.logger.Error("查询任务日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toAssignmentResponse(a, ReplayCheckedSteps(logs)), nil
}

// ────────────────────── ToggleStep ──────────────────────

func (s *assignmentService) ToggleStep(ctx context.Context, id, stepID string, req *dto.ToggleStepRequest, callerID string) (*dto.AssignmentResponse, error) {
	a, err := s.getParticipant(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AssignmentArchived {
		return nil, ErrAssignmentArchived
	}
	if !a.Steps.StepIDs()[stepID] {
		return nil, ErrStepNotFound
	}

	// 未指定 checked 时按行锁内的最新日志取反
	build := func(prior []model.TaskLog) *model.TaskLog {
		checked := !ReplayCheckedSteps(prior)[stepID]
		if req.Checked != nil {
			checked = *req.Checked
		}
		action := model.LogActionUncomplete
		if checked {
			action = model.LogActionComplete
		}
		return &model.TaskLog{
			UserID: callerID,
			StepID: stepID,
			Action: action,
			Note:   req.Note,
		}
	}

	updated, logs, err := s.repo.TaskAssignment.AppendLog(ctx, id, build, deriveWith(s.now()))
	if err != nil {
		return nil, s.mapAppendError(id, err)
	}
	updated.Collaborators = a.Collaborators

	if updated.Status != a.Status {
		s.logger.Info("任务状态变更",
			zap.String("id", id),
			zap.String("from", string(a.Status)),
			zap.String("to", string(updated.Status)),
		)
	}
	return toAssignmentResponse(updated, ReplayCheckedSteps(logs)), nil
}

// ────────────────────── Comment ──────────────────────

func (s *assignmentService) Comment(ctx context.Context, id string, req *dto.CommentRequest, callerID string) (*dto.TaskLogResponse, error) {
	a, err := s.getParticipant(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AssignmentArchived {
		return nil, ErrAssignmentArchived
	}
	if !a.Steps.StepIDs()[req.StepID] {
		return nil, ErrStepNotFound
	}

	entry := &model.TaskLog{
		UserID: callerID,
		StepID: req.StepID,
		Action: model.LogActionComment,
		Note:   req.Note,
	}
	build := func([]model.TaskLog) *model.TaskLog { return entry }
	if _, _, err := s.repo.TaskAssignment.AppendLog(ctx, id, build, deriveWith(s.now())); err != nil {
		return nil, s.mapAppendError(id, err)
	}
	resp := toTaskLogResponse(entry)
	return &resp, nil
}

// ────────────────────── ListLogs ──────────────────────

func (s *assignmentService) ListLogs(ctx context.Context, id, callerID string) ([]dto.TaskLogResponse, error) {
	if _, err := s.getVisible(ctx, id, callerID); err != nil {
		return nil, err
	}
	logs, err := s.repo.TaskAssignment.ListLogs(ctx, id)
	if err != nil {
		s.logger.Error("查询任务日志失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TaskLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toTaskLogResponse(&logs[i]))
	}
	return result, nil
}

// ────────────────────── Archive / Unarchive ──────────────────────

func (s *assignmentService) Archive(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error) {
	now := s.now()
	return s.transition(ctx, id, callerID, model.AssignmentCompleted, model.AssignmentArchived, &now, ErrAssignmentNotCompleted)
}

func (s *assignmentService) Unarchive(ctx context.Context, id, callerID string) (*dto.AssignmentResponse, error) {
	return s.transition(ctx, id, callerID, model.AssignmentArchived, model.AssignmentCompleted, nil, ErrAssignmentNotArchived)
}

// transition 条件更新：仅当当前状态为 from 时切换到 to
func (s *assignmentService) transition(ctx context.Context, id, callerID string, from, to model.AssignmentStatus, archivedAt *time.Time, wrongState error) (*dto.AssignmentResponse, error) {
	ok, err := s.repo.TaskAssignment.UpdateState(ctx, id, from, to, archivedAt)
	if err != nil {
		s.logger.Error("更新任务状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		if _, err := s.getAssignment(ctx, id); err != nil {
			return nil, err
		}
		return nil, wrongState
	}

	s.logger.Info("任务状态变更",
		zap.String("id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("operator", callerID),
	)

	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.repo.TaskAssignment.ListLogs(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAssignmentResponse(a, ReplayCheckedSteps(logs)), nil
}

// ────────────────────── Delete ──────────────────────

func (s *assignmentService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.TaskAssignment.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("删除任务失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("任务已删除", zap.String("id", id), zap.String("operator", callerID))
	return nil
}

// ────────────────────── Collaborators ──────────────────────

func (s *assignmentService) AddCollaborators(ctx context.Context, id string, req *dto.CollaboratorsRequest, callerID string) (*dto.AssignmentResponse, error) {
	a, err := s.getOwner(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if a.Status == model.AssignmentArchived {
		return nil, ErrAssignmentArchived
	}

	ids := dedupe(req.UserIDs)
	for _, uid := range ids {
		if uid == a.AssignedTo {
			return nil, ErrCollaboratorIsAssignee
		}
	}
	if err := s.ensureProfiles(ctx, ids); err != nil {
		return nil, err
	}

	if err := s.repo.TaskAssignment.AddCollaborators(ctx, id, ids); err != nil {
		s.logger.Error("添加协作者失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id, callerID)
}

func (s *assignmentService) RemoveCollaborator(ctx context.Context, id, userID, callerID string) error {
	a, err := s.getOwner(ctx, id, callerID)
	if err != nil {
		return err
	}
	if a.Status == model.AssignmentArchived {
		return ErrAssignmentArchived
	}
	ok, err := s.repo.TaskAssignment.RemoveCollaborator(ctx, id, userID)
	if err != nil {
		s.logger.Error("移除协作者失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrCollaboratorNotFound
	}
	return nil
}

// ────────────────────── ArchivedGroups ──────────────────────

func (s *assignmentService) ArchivedGroups(ctx context.Context) ([]dto.ArchiveGroupResponse, error) {
	items, err := s.repo.TaskAssignment.ListArchived(ctx)
	if err != nil {
		s.logger.Error("查询归档任务失败", zap.Error(err))
		return nil, err
	}

	groups := GroupByMonth(items, func(a model.TaskAssignment) time.Time { return a.CreatedAt })
	result := make([]dto.ArchiveGroupResponse, 0, len(groups))
	for _, g := range groups {
		resp := dto.ArchiveGroupResponse{Key: g.Key, Items: make([]dto.AssignmentResponse, 0, len(g.Items))}
		for i := range g.Items {
			resp.Items = append(resp.Items, *toAssignmentResponse(&g.Items[i], nil))
		}
		result = append(result, resp)
	}
	return result, nil
}

// ── 内部方法 ──

func (s *assignmentService) getAssignment(ctx context.Context, id string) (*model.TaskAssignment, error) {
	a, err := s.repo.TaskAssignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询任务失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

// getParticipant 负责人或协作者
func (s *assignmentService) getParticipant(ctx context.Context, id, callerID string) (*model.TaskAssignment, error) {
	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isParticipant(a, callerID) {
		return nil, ErrAssignmentForbidden
	}
	return a, nil
}

// getVisible 参与者，或拥有 task.assignment.read_all
func (s *assignmentService) getVisible(ctx context.Context, id, callerID string) (*model.TaskAssignment, error) {
	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if isParticipant(a, callerID) || a.AssignedBy == callerID {
		return a, nil
	}
	if ok, err := s.authz.Check(ctx, callerID, authz.KeyAssignmentReadAll); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrAssignmentForbidden
	}
	return a, nil
}

// getOwner 派发人、负责人，或拥有 task.assignment.read_all
func (s *assignmentService) getOwner(ctx context.Context, id, callerID string) (*model.TaskAssignment, error) {
	a, err := s.getAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.AssignedTo == callerID || a.AssignedBy == callerID {
		return a, nil
	}
	if ok, err := s.authz.Check(ctx, callerID, authz.KeyAssignmentReadAll); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrAssignmentForbidden
	}
	return a, nil
}

func (s *assignmentService) ensureProfiles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	profiles, err := s.repo.Profile.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询协作者失败", zap.Error(err))
		return err
	}
	if len(profiles) != len(ids) {
		return ErrCollaboratorNotFound
	}
	return nil
}

func (s *assignmentService) mapAppendError(id string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrAssignmentNotFound
	case errors.Is(err, repository.ErrAssignmentLocked):
		return ErrAssignmentArchived
	}
	s.logger.Error("写入任务日志失败", zap.String("id", id), zap.Error(err))
	return err
}

func isParticipant(a *model.TaskAssignment, userID string) bool {
	if a.AssignedTo == userID {
		return true
	}
	for _, c := range a.Collaborators {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

func toAssignmentResponse(a *model.TaskAssignment, checked map[string]bool) *dto.AssignmentResponse {
	collaborators := make([]string, 0, len(a.Collaborators))
	for _, c := range a.Collaborators {
		collaborators = append(collaborators, c.UserID)
	}
	resp := &dto.AssignmentResponse{
		ID:            a.ID,
		TemplateID:    a.TemplateID,
		Title:         a.Title,
		Steps:         toStepResponses(a.Steps, checked),
		AssignedTo:    a.AssignedTo,
		AssignedBy:    a.AssignedBy,
		Status:        string(a.Status),
		DueDate:       formatDatePtr(a.DueDate),
		CompletedAt:   formatTimePtr(a.CompletedAt),
		ArchivedAt:    formatTimePtr(a.ArchivedAt),
		Collaborators: collaborators,
		CreatedAt:     formatTime(a.CreatedAt),
		UpdatedAt:     formatTime(a.UpdatedAt),
	}
	// checked 为 nil 表示未加载日志（列表场景），不返回进度
	if checked != nil {
		resp.Progress = &dto.ProgressResponse{
			Checked: countChecked(a.Steps, checked),
			Total:   len(a.Steps),
		}
	}
	return resp
}

func toTaskLogResponse(l *model.TaskLog) dto.TaskLogResponse {
	return dto.TaskLogResponse{
		ID:        l.ID,
		UserID:    l.UserID,
		StepID:    l.StepID,
		Action:    l.Action,
		Note:      l.Note,
		CreatedAt: formatTime(l.CreatedAt),
	}
}
