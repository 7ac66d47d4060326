package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
)

// ── 门店模块业务错误 ──

var (
	ErrStoreNotFound   = errors.New("门店不存在")
	ErrManagerNotFound = errors.New("人员档案不存在")
)

// summaryConcurrency 门店汇总并发查询上限
const summaryConcurrency = 8

// StoreService 门店业务接口
type StoreService interface {
	List(ctx context.Context, req *dto.StoreListRequest) ([]dto.StoreResponse, error)
	// ListWithSupervisors 门店及其督导（按门店数启发式判定）与店长
	ListWithSupervisors(ctx context.Context, req *dto.StoreListRequest) ([]dto.StoreWithSupervisorsResponse, error)
	// ReplaceStoreManagers 整体替换某人的主店长门店
	ReplaceStoreManagers(ctx context.Context, userID string, req *dto.ReplaceStoreManagerRequest, callerID string) error
	// Summary 门店月度汇总：人数、各项金额合计、最近一次巡检
	Summary(ctx context.Context, req *dto.StoreSummaryRequest) ([]dto.StoreSummaryResponse, error)
}

type storeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStoreService 创建 StoreService 实例
func NewStoreService(repo *repository.Repository, logger *zap.Logger) StoreService {
	return &storeService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *storeService) List(ctx context.Context, req *dto.StoreListRequest) ([]dto.StoreResponse, error) {
	stores, err := s.repo.Store.List(ctx, repository.StoreFilter{Region: req.Region, IncludeInactive: req.IncludeInactive})
	if err != nil {
		s.logger.Error("查询门店列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.StoreResponse, 0, len(stores))
	for i := range stores {
		result = append(result, toStoreResponse(&stores[i]))
	}
	return result, nil
}

// ────────────────────── ListWithSupervisors ──────────────────────

func (s *storeService) ListWithSupervisors(ctx context.Context, req *dto.StoreListRequest) ([]dto.StoreWithSupervisorsResponse, error) {
	stores, err := s.repo.Store.List(ctx, repository.StoreFilter{Region: req.Region, IncludeInactive: req.IncludeInactive})
	if err != nil {
		s.logger.Error("查询门店列表失败", zap.Error(err))
		return nil, err
	}
	total, err := s.repo.Store.CountActive(ctx)
	if err != nil {
		s.logger.Error("统计门店数失败", zap.Error(err))
		return nil, err
	}
	rows, err := s.repo.Store.ListManagers(ctx, "")
	if err != nil {
		s.logger.Error("查询门店管理关系失败", zap.Error(err))
		return nil, err
	}

	return attachManagers(stores, rows, int(total)), nil
}

// attachManagers 按门店挂载真督导与店长
// 督导计数基于全部 supervisor 行，而非当前筛选出的门店
func attachManagers(stores []model.Store, rows []model.StoreManager, totalStores int) []dto.StoreWithSupervisorsResponse {
	counts := authz.CountSupervisorStores(rows)

	byStore := make(map[string]*dto.StoreWithSupervisorsResponse, len(stores))
	result := make([]dto.StoreWithSupervisorsResponse, len(stores))
	for i := range stores {
		result[i] = dto.StoreWithSupervisorsResponse{
			StoreResponse: toStoreResponse(&stores[i]),
			Supervisors:   []dto.ManagerBrief{},
			StoreManagers: []dto.ManagerBrief{},
		}
		byStore[stores[i].ID] = &result[i]
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		target, ok := byStore[r.StoreID]
		if !ok {
			continue
		}
		key := r.StoreID + "|" + r.UserID + "|" + r.RoleType
		if seen[key] {
			continue
		}
		seen[key] = true

		brief := dto.ManagerBrief{UserID: r.UserID, IsPrimary: r.IsPrimary}
		if r.Profile != nil {
			brief.FullName = r.Profile.FullName
			brief.JobTitle = r.Profile.JobTitle
		}

		switch r.RoleType {
		case model.StoreRoleSupervisor:
			n := counts[r.UserID]
			if !authz.IsRealSupervisor(n, totalStores) {
				continue
			}
			brief.StoreCount = n
			target.Supervisors = append(target.Supervisors, brief)
		case model.StoreRoleStoreManager:
			target.StoreManagers = append(target.StoreManagers, brief)
		}
	}
	return result
}

// ────────────────────── ReplaceStoreManagers ──────────────────────

func (s *storeService) ReplaceStoreManagers(ctx context.Context, userID string, req *dto.ReplaceStoreManagerRequest, callerID string) error {
	if _, err := s.repo.Profile.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrManagerNotFound
		}
		s.logger.Error("查询档案失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	storeIDs := dedupe(req.StoreIDs)
	found, err := s.repo.Store.ExistingIDs(ctx, storeIDs)
	if err != nil {
		s.logger.Error("校验门店失败", zap.Error(err))
		return err
	}
	if len(found) != len(storeIDs) {
		return ErrStoreNotFound
	}

	if err := s.repo.Store.ReplacePrimaryStoreManager(ctx, userID, storeIDs); err != nil {
		s.logger.Error("替换店长门店失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("店长门店已替换",
		zap.String("user_id", userID),
		zap.Strings("store_ids", storeIDs),
		zap.String("operator", callerID),
	)
	return nil
}

// ────────────────────── Summary ──────────────────────

func (s *storeService) Summary(ctx context.Context, req *dto.StoreSummaryRequest) ([]dto.StoreSummaryResponse, error) {
	stores, err := s.repo.Store.List(ctx, repository.StoreFilter{Region: req.Region})
	if err != nil {
		s.logger.Error("查询门店列表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StoreSummaryResponse, len(stores))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)

	for i := range stores {
		i := i
		g.Go(func() error {
			summary, err := s.summarizeStore(gctx, &stores[i], req.YearMonth)
			if err != nil {
				return fmt.Errorf("门店 %s: %w", stores[i].StoreCode, err)
			}
			result[i] = *summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("门店汇总失败", zap.String("year_month", req.YearMonth), zap.Error(err))
		return nil, err
	}

	sort.SliceStable(result, func(a, b int) bool { return result[a].StoreCode < result[b].StoreCode })
	return result, nil
}

func (s *storeService) summarizeStore(ctx context.Context, store *model.Store, yearMonth string) (*dto.StoreSummaryResponse, error) {
	out := &dto.StoreSummaryResponse{
		StoreResponse: toStoreResponse(store),
		YearMonth:     yearMonth,
	}

	headCount, err := s.repo.Employee.CountActiveByStore(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	out.HeadCount = headCount

	staff, err := s.repo.Payroll.SumStaffStatus(ctx, store.ID, yearMonth)
	if err != nil {
		return nil, err
	}
	bonus, err := s.repo.Payroll.SumBonus(ctx, store.ID, yearMonth)
	if err != nil {
		return nil, err
	}
	meal, err := s.repo.Payroll.SumMealAllowances(ctx, store.ID, yearMonth)
	if err != nil {
		return nil, err
	}
	transport, err := s.repo.Payroll.SumTransportExpenses(ctx, store.ID, yearMonth)
	if err != nil {
		return nil, err
	}
	out.StaffTotal = staff.Total
	out.SupportBonusTotal = bonus.Total
	out.MealAllowanceTotal = meal.Total
	out.TransportTotal = transport.Total

	latest, err := s.repo.Inspection.LatestByStore(ctx, store.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		date := formatDate(latest.InspectionDate)
		out.LastInspectionDate = &date
		if latest.MaxScore.IsPositive() {
			rate := latest.TotalScore.Div(latest.MaxScore).Shift(2).StringFixed(2) + "%"
			out.LastInspectionRate = &rate
		}
	}
	return out, nil
}

func toStoreResponse(st *model.Store) dto.StoreResponse {
	return dto.StoreResponse{
		ID:        st.ID,
		StoreCode: st.StoreCode,
		Name:      st.Name,
		Region:    st.Region,
		IsActive:  st.IsActive,
	}
}
