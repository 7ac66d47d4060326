package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 任务模板模块业务错误 ──

var (
	ErrTemplateNotFound        = errors.New("任务模板不存在")
	ErrTemplateStepDuplicate   = errors.New("模板步骤 ID 重复")
	ErrTemplateVersionConflict = errors.New("模板已被他人修改，请刷新后重试")
)

// TemplateService 任务模板业务接口
type TemplateService interface {
	Create(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.TemplateResponse, error)
	GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error)
	List(ctx context.Context, keyword string) ([]dto.TemplateResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTemplateRequest, callerID string) (*dto.TemplateResponse, error)
	// Delete 软删除；已派发任务持有步骤快照，不受影响
	Delete(ctx context.Context, id string, callerID string) error
}

type templateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTemplateService 创建 TemplateService 实例
func NewTemplateService(repo *repository.Repository, logger *zap.Logger) TemplateService {
	return &templateService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *templateService) Create(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.TemplateResponse, error) {
	steps, err := buildSteps(req.Steps)
	if err != nil {
		return nil, err
	}

	tpl := &model.TaskTemplate{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Steps:       steps,
	}
	tpl.CreatedBy = &callerID
	tpl.UpdatedBy = &callerID
	tpl.Version = 1

	if err := s.repo.TaskTemplate.Create(ctx, tpl); err != nil {
		s.logger.Error("创建任务模板失败", zap.Error(err))
		return nil, err
	}
	return toTemplateResponse(tpl), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *templateService) GetByID(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	tpl, err := s.getTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(tpl), nil
}

// ────────────────────── List ──────────────────────

func (s *templateService) List(ctx context.Context, keyword string) ([]dto.TemplateResponse, error) {
	tpls, err := s.repo.TaskTemplate.List(ctx, strings.TrimSpace(keyword))
	if err != nil {
		s.logger.Error("列出任务模板失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.TemplateResponse, 0, len(tpls))
	for i := range tpls {
		result = append(result, *toTemplateResponse(&tpls[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *templateService) Update(ctx context.Context, id string, req *dto.UpdateTemplateRequest, callerID string) (*dto.TemplateResponse, error) {
	tpl, err := s.getTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl.Version != req.Version {
		return nil, ErrTemplateVersionConflict
	}

	if req.Title != nil {
		tpl.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		tpl.Description = *req.Description
	}
	if req.Steps != nil {
		steps, err := buildSteps(req.Steps)
		if err != nil {
			return nil, err
		}
		tpl.Steps = steps
	}
	tpl.UpdatedBy = &callerID

	if err := s.repo.TaskTemplate.Update(ctx, tpl); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrTemplateVersionConflict
		}
		s.logger.Error("更新任务模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toTemplateResponse(tpl), nil
}

// ────────────────────── Delete ──────────────────────

func (s *templateService) Delete(ctx context.Context, id string, callerID string) error {
	if err := s.repo.TaskTemplate.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		s.logger.Error("删除任务模板失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("任务模板已删除", zap.String("id", id), zap.String("operator", callerID))
	return nil
}

// ── 内部方法 ──

func (s *templateService) getTemplate(ctx context.Context, id string) (*model.TaskTemplate, error) {
	tpl, err := s.repo.TaskTemplate.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询任务模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return tpl, nil
}

// buildSteps 校验步骤 id 在模板内唯一，保持输入顺序
func buildSteps(in []dto.StepInput) (model.StepList, error) {
	seen := make(map[string]bool, len(in))
	steps := make(model.StepList, 0, len(in))
	for _, st := range in {
		id := strings.TrimSpace(st.ID)
		if seen[id] {
			return nil, ErrTemplateStepDuplicate
		}
		seen[id] = true
		steps = append(steps, model.TemplateStep{
			ID:          id,
			Title:       strings.TrimSpace(st.Title),
			Description: st.Description,
		})
	}
	return steps, nil
}

func toStepResponses(steps model.StepList, checked map[string]bool) []dto.StepResponse {
	out := make([]dto.StepResponse, 0, len(steps))
	for _, st := range steps {
		out = append(out, dto.StepResponse{
			ID:          st.ID,
			Title:       st.Title,
			Description: st.Description,
			Checked:     checked[st.ID],
		})
	}
	return out
}

func toTemplateResponse(tpl *model.TaskTemplate) *dto.TemplateResponse {
	return &dto.TemplateResponse{
		ID:          tpl.ID,
		Title:       tpl.Title,
		Description: tpl.Description,
		Steps:       toStepResponses(tpl.Steps, nil),
		Version:     tpl.Version,
		CreatedAt:   formatTime(tpl.CreatedAt),
		UpdatedAt:   formatTime(tpl.UpdatedAt),
	}
}
