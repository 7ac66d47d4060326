package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 巡检模块业务错误 ──

var (
	ErrInspectionTemplateNotFound = errors.New("巡检模板不存在")
	ErrInspectionTemplateInactive = errors.New("巡检模板已停用")
	ErrInspectionTemplateInUse    = errors.New("巡检模板已被巡检记录引用，无法删除")
	ErrInspectionSectionDuplicate = errors.New("巡检分区 ID 重复")
	ErrInspectionItemDuplicate    = errors.New("巡检项 ID 重复")
	ErrInspectionMaxScore         = errors.New("巡检项满分必须大于 0")
	ErrInspectionNotFound         = errors.New("巡检记录不存在")
	ErrInspectionUnknownItem      = errors.New("巡检明细引用了模板中不存在的巡检项")
	ErrInspectionResultDuplicate  = errors.New("同一巡检项不能重复提交")
	ErrInspectionScoreRange       = errors.New("巡检得分超出范围")
)

// InspectionService 巡检业务接口
type InspectionService interface {
	CreateTemplate(ctx context.Context, req *dto.CreateInspectionTemplateRequest) (*dto.InspectionTemplateResponse, error)
	GetTemplate(ctx context.Context, id string) (*dto.InspectionTemplateResponse, error)
	ListTemplates(ctx context.Context, includeInactive bool) ([]dto.InspectionTemplateResponse, error)
	UpdateTemplate(ctx context.Context, id string, req *dto.UpdateInspectionTemplateRequest) (*dto.InspectionTemplateResponse, error)
	DeleteTemplate(ctx context.Context, id string) error

	// Create 校验明细并在一个事务中写入主记录与明细；总分由明细求和
	Create(ctx context.Context, req *dto.CreateInspectionRequest, inspectorID string) (*dto.InspectionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.InspectionResponse, error)
	List(ctx context.Context, req *dto.InspectionListRequest) ([]dto.InspectionResponse, int64, error)
	Delete(ctx context.Context, id, callerID string) error
}

type inspectionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewInspectionService 创建 InspectionService 实例
func NewInspectionService(repo *repository.Repository, logger *zap.Logger) InspectionService {
	return &inspectionService{repo: repo, logger: logger}
}

// ────────────────────── 模板 ──────────────────────

func (s *inspectionService) CreateTemplate(ctx context.Context, req *dto.CreateInspectionTemplateRequest) (*dto.InspectionTemplateResponse, error) {
	sections, err := buildSections(req.Sections)
	if err != nil {
		return nil, err
	}
	tpl := &model.InspectionTemplate{Name: req.Name, Sections: sections, IsActive: true}
	if err := s.repo.Inspection.CreateTemplate(ctx, tpl); err != nil {
		s.logger.Error("创建巡检模板失败", zap.Error(err))
		return nil, err
	}
	return toInspectionTemplateResponse(tpl), nil
}

func (s *inspectionService) GetTemplate(ctx context.Context, id string) (*dto.InspectionTemplateResponse, error) {
	tpl, err := s.getTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return toInspectionTemplateResponse(tpl), nil
}

func (s *inspectionService) ListTemplates(ctx context.Context, includeInactive bool) ([]dto.InspectionTemplateResponse, error) {
	tpls, err := s.repo.Inspection.ListTemplates(ctx, includeInactive)
	if err != nil {
		s.logger.Error("查询巡检模板失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.InspectionTemplateResponse, 0, len(tpls))
	for i := range tpls {
		result = append(result, *toInspectionTemplateResponse(&tpls[i]))
	}
	return result, nil
}

func (s *inspectionService) UpdateTemplate(ctx context.Context, id string, req *dto.UpdateInspectionTemplateRequest) (*dto.InspectionTemplateResponse, error) {
	tpl, err := s.getTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		tpl.Name = *req.Name
	}
	if req.Sections != nil {
		sections, err := buildSections(req.Sections)
		if err != nil {
			return nil, err
		}
		tpl.Sections = sections
	}
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}
	if err := s.repo.Inspection.UpdateTemplate(ctx, tpl); err != nil {
		s.logger.Error("更新巡检模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toInspectionTemplateResponse(tpl), nil
}

func (s *inspectionService) DeleteTemplate(ctx context.Context, id string) error {
	err := s.repo.Inspection.DeleteTemplate(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrInspectionTemplateNotFound
	case pkgerrors.Classify(err) == pkgerrors.ErrReferenced:
		return ErrInspectionTemplateInUse
	default:
		s.logger.Error("删除巡检模板失败", zap.String("id", id), zap.Error(err))
		return err
	}
}

// ────────────────────── 巡检记录 ──────────────────────

func (s *inspectionService) Create(ctx context.Context, req *dto.CreateInspectionRequest, inspectorID string) (*dto.InspectionResponse, error) {
	tpl, err := s.getTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrInspectionTemplateInactive
	}
	if _, err := s.repo.Store.GetByID(ctx, req.StoreID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("查询门店失败", zap.Error(err))
		return nil, err
	}
	date, err := parseDate(req.InspectionDate)
	if err != nil {
		return nil, err
	}

	results, total, err := scoreResults(tpl.Sections, req.Results)
	if err != nil {
		return nil, err
	}

	m := &model.InspectionMaster{
		TemplateID:     tpl.ID,
		StoreID:        req.StoreID,
		InspectorID:    inspectorID,
		InspectionDate: date,
		TotalScore:     total,
		MaxScore:       tpl.Sections.MaxScore(),
		Note:           req.Note,
		Results:        results,
	}
	if err := s.repo.Inspection.Create(ctx, m); err != nil {
		s.logger.Error("提交巡检失败", zap.String("store_id", req.StoreID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("巡检已提交",
		zap.String("inspection_id", m.ID),
		zap.String("store_id", m.StoreID),
		zap.String("total_score", m.TotalScore.String()),
	)
	return toInspectionResponse(m), nil
}

func (s *inspectionService) GetByID(ctx context.Context, id string) (*dto.InspectionResponse, error) {
	m, err := s.repo.Inspection.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInspectionNotFound
		}
		s.logger.Error("查询巡检记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toInspectionResponse(m), nil
}

func (s *inspectionService) List(ctx context.Context, req *dto.InspectionListRequest) ([]dto.InspectionResponse, int64, error) {
	from, err := parseDatePtr(req.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := parseDatePtr(req.To)
	if err != nil {
		return nil, 0, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, 0, ErrDateRange
	}

	items, total, err := s.repo.Inspection.List(ctx,
		repository.InspectionFilter{StoreID: req.StoreID, From: from, To: to},
		req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询巡检记录失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.InspectionResponse, 0, len(items))
	for i := range items {
		result = append(result, *toInspectionResponse(&items[i]))
	}
	return result, total, nil
}

func (s *inspectionService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Inspection.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInspectionNotFound
		}
		s.logger.Error("删除巡检记录失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("巡检记录已删除", zap.String("id", id), zap.String("operator", callerID))
	return nil
}

// ── 内部方法 ──

func (s *inspectionService) getTemplate(ctx context.Context, id string) (*model.InspectionTemplate, error) {
	tpl, err := s.repo.Inspection.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInspectionTemplateNotFound
		}
		s.logger.Error("查询巡检模板失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return tpl, nil
}

// buildSections 分区 ID 全局唯一，巡检项 ID 在分区内唯一
func buildSections(in []dto.InspectionSectionInput) (model.SectionList, error) {
	out := make(model.SectionList, 0, len(in))
	seenSection := make(map[string]bool, len(in))
	for _, sec := range in {
		if seenSection[sec.ID] {
			return nil, fmt.Errorf("%w: %s", ErrInspectionSectionDuplicate, sec.ID)
		}
		seenSection[sec.ID] = true

		items := make([]model.InspectionItem, 0, len(sec.Items))
		seenItem := make(map[string]bool, len(sec.Items))
		for _, it := range sec.Items {
			if seenItem[it.ID] {
				return nil, fmt.Errorf("%w: %s/%s", ErrInspectionItemDuplicate, sec.ID, it.ID)
			}
			seenItem[it.ID] = true
			if !it.MaxScore.IsPositive() {
				return nil, ErrInspectionMaxScore
			}
			items = append(items, model.InspectionItem{ID: it.ID, Title: it.Title, MaxScore: it.MaxScore})
		}
		out = append(out, model.InspectionSection{ID: sec.ID, Title: sec.Title, Items: items})
	}
	return out, nil
}

// scoreResults 校验明细并求总分
func scoreResults(sections model.SectionList, in []dto.InspectionResultInput) ([]model.InspectionResult, decimal.Decimal, error) {
	results := make([]model.InspectionResult, 0, len(in))
	seen := make(map[[2]string]bool, len(in))
	total := decimal.Zero
	for _, r := range in {
		item, ok := sections.FindItem(r.SectionID, r.ItemID)
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("%w: %s/%s", ErrInspectionUnknownItem, r.SectionID, r.ItemID)
		}
		k := [2]string{r.SectionID, r.ItemID}
		if seen[k] {
			return nil, decimal.Zero, fmt.Errorf("%w: %s/%s", ErrInspectionResultDuplicate, r.SectionID, r.ItemID)
		}
		seen[k] = true
		if r.Score.IsNegative() || r.Score.GreaterThan(item.MaxScore) {
			return nil, decimal.Zero, fmt.Errorf("%w: %s/%s 应在 0 到 %s 之间",
				ErrInspectionScoreRange, r.SectionID, r.ItemID, item.MaxScore.String())
		}
		total = total.Add(r.Score)
		results = append(results, model.InspectionResult{
			SectionID: r.SectionID,
			ItemID:    r.ItemID,
			Score:     r.Score,
			IsChecked: r.IsChecked,
			Note:      r.Note,
		})
	}
	return results, total, nil
}

func toInspectionTemplateResponse(tpl *model.InspectionTemplate) *dto.InspectionTemplateResponse {
	sections := make([]dto.InspectionSectionResponse, 0, len(tpl.Sections))
	for _, sec := range tpl.Sections {
		items := make([]dto.InspectionItemResponse, 0, len(sec.Items))
		for _, it := range sec.Items {
			items = append(items, dto.InspectionItemResponse{ID: it.ID, Title: it.Title, MaxScore: it.MaxScore})
		}
		sections = append(sections, dto.InspectionSectionResponse{ID: sec.ID, Title: sec.Title, Items: items})
	}
	return &dto.InspectionTemplateResponse{
		ID:        tpl.ID,
		Name:      tpl.Name,
		Sections:  sections,
		MaxScore:  tpl.Sections.MaxScore(),
		IsActive:  tpl.IsActive,
		CreatedAt: formatTime(tpl.CreatedAt),
		UpdatedAt: formatTime(tpl.UpdatedAt),
	}
}

func toInspectionResponse(m *model.InspectionMaster) *dto.InspectionResponse {
	resp := &dto.InspectionResponse{
		ID:             m.ID,
		TemplateID:     m.TemplateID,
		StoreID:        m.StoreID,
		InspectorID:    m.InspectorID,
		InspectionDate: formatDate(m.InspectionDate),
		TotalScore:     m.TotalScore,
		MaxScore:       m.MaxScore,
		Note:           m.Note,
		CreatedAt:      formatTime(m.CreatedAt),
	}
	if len(m.Results) > 0 {
		resp.Results = make([]dto.InspectionResultResponse, 0, len(m.Results))
		for _, r := range m.Results {
			resp.Results = append(resp.Results, dto.InspectionResultResponse{
				SectionID: r.SectionID,
				ItemID:    r.ItemID,
				Score:     r.Score,
				IsChecked: r.IsChecked,
				Note:      r.Note,
			})
		}
	}
	return resp
}
