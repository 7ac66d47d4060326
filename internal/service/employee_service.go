package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 员工模块业务错误 ──

var (
	ErrEmployeeDuplicate     = errors.New("员工工号已存在")
	ErrMovementStores        = errors.New("异动门店与异动类型不匹配")
	ErrMovementSameStore     = errors.New("调动的调出与调入门店不能相同")
	ErrPromotionSamePosition = errors.New("升迁前后职位不能相同")
)

// EmployeeService 门店员工、异动与升迁业务接口
// 异动与升迁只追加；升迁通过后的月度状态同步由数据库触发器完成
type EmployeeService interface {
	CreateEmployee(ctx context.Context, req *dto.CreateStoreEmployeeRequest) (*dto.StoreEmployeeResponse, error)
	ListEmployees(ctx context.Context, req *dto.StoreEmployeeListRequest) ([]dto.StoreEmployeeResponse, int64, error)

	CreateMovement(ctx context.Context, req *dto.CreateMovementRequest, callerID string) (*dto.MovementResponse, error)
	ListMovements(ctx context.Context, req *dto.MovementListRequest) ([]dto.MovementResponse, int64, error)

	CreatePromotion(ctx context.Context, req *dto.CreatePromotionRequest, callerID string) (*dto.PromotionResponse, error)
	ListPromotions(ctx context.Context, req *dto.PromotionListRequest) ([]dto.PromotionResponse, int64, error)
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEmployeeService 创建 EmployeeService 实例
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger}
}

// ────────────────────── 门店员工 ──────────────────────

func (s *employeeService) CreateEmployee(ctx context.Context, req *dto.CreateStoreEmployeeRequest) (*dto.StoreEmployeeResponse, error) {
	hiredAt, err := parseDatePtr(req.HiredAt)
	if err != nil {
		return nil, err
	}
	e := &model.StoreEmployee{
		EmployeeCode: req.EmployeeCode,
		Name:         req.Name,
		StoreID:      req.StoreID,
		Position:     req.Position,
		IsActive:     true,
		HiredAt:      hiredAt,
	}
	if err := s.repo.Employee.CreateEmployee(ctx, e); err != nil {
		switch pkgerrors.Classify(err) {
		case pkgerrors.ErrDuplicate:
			return nil, ErrEmployeeDuplicate
		case pkgerrors.ErrReferenced:
			return nil, ErrStoreNotFound
		}
		s.logger.Error("新增门店员工失败", zap.String("employee_code", req.EmployeeCode), zap.Error(err))
		return nil, err
	}
	resp := toStoreEmployeeResponse(e)
	return &resp, nil
}

func (s *employeeService) ListEmployees(ctx context.Context, req *dto.StoreEmployeeListRequest) ([]dto.StoreEmployeeResponse, int64, error) {
	items, total, err := s.repo.Employee.ListEmployees(ctx, repository.EmployeeFilter{
		StoreID:         req.StoreID,
		Keyword:         req.Keyword,
		IncludeInactive: req.IncludeInactive,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询门店员工失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.StoreEmployeeResponse, 0, len(items))
	for i := range items {
		result = append(result, toStoreEmployeeResponse(&items[i]))
	}
	return result, total, nil
}

// ────────────────────── 异动 ──────────────────────

func (s *employeeService) CreateMovement(ctx context.Context, req *dto.CreateMovementRequest, callerID string) (*dto.MovementResponse, error) {
	from, to := nonEmpty(req.FromStoreID), nonEmpty(req.ToStoreID)
	if err := checkMovementStores(req.MovementType, from, to); err != nil {
		return nil, err
	}
	if err := s.ensureStores(ctx, from, to); err != nil {
		return nil, err
	}
	date, err := parseDate(req.EffectiveDate)
	if err != nil {
		return nil, err
	}

	m := &model.EmployeeMovementHistory{
		EmployeeCode:  req.EmployeeCode,
		EmployeeName:  req.EmployeeName,
		MovementType:  req.MovementType,
		FromStoreID:   from,
		ToStoreID:     to,
		OldPosition:   req.OldPosition,
		NewPosition:   req.NewPosition,
		EffectiveDate: date,
		Note:          req.Note,
		CreatedBy:     callerID,
	}
	if err := s.repo.Employee.CreateMovement(ctx, m); err != nil {
		s.logger.Error("登记员工异动失败", zap.String("employee_code", req.EmployeeCode), zap.Error(err))
		return nil, err
	}
	s.logger.Info("员工异动已登记",
		zap.String("employee_code", m.EmployeeCode),
		zap.String("movement_type", m.MovementType),
		zap.String("operator", callerID),
	)
	resp := toMovementResponse(m)
	return &resp, nil
}

func (s *employeeService) ListMovements(ctx context.Context, req *dto.MovementListRequest) ([]dto.MovementResponse, int64, error) {
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

	items, total, err := s.repo.Employee.ListMovements(ctx, repository.MovementFilter{
		EmployeeCode: req.EmployeeCode,
		StoreID:      req.StoreID,
		MovementType: req.MovementType,
		From:         from,
		To:           to,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询员工异动失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.MovementResponse, 0, len(items))
	for i := range items {
		result = append(result, toMovementResponse(&items[i]))
	}
	return result, total, nil
}

// ────────────────────── 升迁 ──────────────────────

func (s *employeeService) CreatePromotion(ctx context.Context, req *dto.CreatePromotionRequest, callerID string) (*dto.PromotionResponse, error) {
	if req.OldPosition == req.NewPosition {
		return nil, ErrPromotionSamePosition
	}
	storeID := req.StoreID
	if err := s.ensureStores(ctx, &storeID); err != nil {
		return nil, err
	}
	date, err := parseDate(req.EffectiveDate)
	if err != nil {
		return nil, err
	}

	p := &model.EmployeePromotionHistory{
		EmployeeCode:  req.EmployeeCode,
		EmployeeName:  req.EmployeeName,
		StoreID:       req.StoreID,
		OldPosition:   req.OldPosition,
		NewPosition:   req.NewPosition,
		EffectiveDate: date,
		Status:        model.PromotionPending,
		Note:          req.Note,
		CreatedBy:     callerID,
	}
	if err := s.repo.Employee.CreatePromotion(ctx, p); err != nil {
		s.logger.Error("登记员工升迁失败", zap.String("employee_code", req.EmployeeCode), zap.Error(err))
		return nil, err
	}
	resp := toPromotionResponse(p)
	return &resp, nil
}

func (s *employeeService) ListPromotions(ctx context.Context, req *dto.PromotionListRequest) ([]dto.PromotionResponse, int64, error) {
	items, total, err := s.repo.Employee.ListPromotions(ctx, repository.PromotionFilter{
		EmployeeCode: req.EmployeeCode,
		StoreID:      req.StoreID,
		Status:       req.Status,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询员工升迁失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.PromotionResponse, 0, len(items))
	for i := range items {
		result = append(result, toPromotionResponse(&items[i]))
	}
	return result, total, nil
}

// ── 内部方法 ──

// checkMovementStores 入职只有调入门店，离职/停薪只有调出门店，调动两者都要且不同
func checkMovementStores(movementType string, from, to *string) error {
	switch movementType {
	case model.MovementOnboard:
		if from != nil || to == nil {
			return ErrMovementStores
		}
	case model.MovementLeave, model.MovementResign:
		if from == nil || to != nil {
			return ErrMovementStores
		}
	case model.MovementTransfer:
		if from == nil || to == nil {
			return ErrMovementStores
		}
		if *from == *to {
			return ErrMovementSameStore
		}
	default:
		return ErrMovementStores
	}
	return nil
}

func (s *employeeService) ensureStores(ctx context.Context, ids ...*string) error {
	want := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != nil {
			want = append(want, *id)
		}
	}
	want = dedupe(want)
	if len(want) == 0 {
		return nil
	}
	found, err := s.repo.Store.ExistingIDs(ctx, want)
	if err != nil {
		s.logger.Error("校验门店失败", zap.Error(err))
		return err
	}
	if len(found) != len(want) {
		return ErrStoreNotFound
	}
	return nil
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

func toStoreEmployeeResponse(e *model.StoreEmployee) dto.StoreEmployeeResponse {
	return dto.StoreEmployeeResponse{
		ID:           e.ID,
		EmployeeCode: e.EmployeeCode,
		Name:         e.Name,
		StoreID:      e.StoreID,
		Position:     e.Position,
		IsActive:     e.IsActive,
		HiredAt:      formatDatePtr(e.HiredAt),
	}
}

func toMovementResponse(m *model.EmployeeMovementHistory) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		EmployeeCode:  m.EmployeeCode,
		EmployeeName:  m.EmployeeName,
		MovementType:  m.MovementType,
		FromStoreID:   m.FromStoreID,
		ToStoreID:     m.ToStoreID,
		OldPosition:   m.OldPosition,
		NewPosition:   m.NewPosition,
		EffectiveDate: formatDate(m.EffectiveDate),
		Note:          m.Note,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     formatTime(m.CreatedAt),
	}
}

func toPromotionResponse(p *model.EmployeePromotionHistory) dto.PromotionResponse {
	return dto.PromotionResponse{
		ID:            p.ID,
		EmployeeCode:  p.EmployeeCode,
		EmployeeName:  p.EmployeeName,
		StoreID:       p.StoreID,
		OldPosition:   p.OldPosition,
		NewPosition:   p.NewPosition,
		EffectiveDate: formatDate(p.EffectiveDate),
		Status:        p.Status,
		Note:          p.Note,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}
