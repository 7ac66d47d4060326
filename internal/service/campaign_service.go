package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/export"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 活动模块业务错误 ──

var (
	ErrCampaignNotFound  = errors.New("活动不存在")
	ErrCampaignHidden    = errors.New("该活动未对您的角色发布")
	ErrScheduleNotFound  = errors.New("活动排期不存在")
	ErrScheduleOutOfSpan = errors.New("排期必须落在活动起止日期内")
)

// CampaignService 活动与排期业务接口
//
// 可见性：活动按 publish_to_<role> 标记对角色发布；管理接口（拥有 campaign.campaign.update）看到全部。
type CampaignService interface {
	Create(ctx context.Context, req *dto.CreateCampaignRequest, callerID string) (*dto.CampaignResponse, error)
	// ListVisible 返回对 viewer 角色可见的活动；viewerRole 为空时返回全部
	ListVisible(ctx context.Context, viewerRole string) ([]dto.CampaignResponse, error)
	GetByID(ctx context.Context, id, viewerRole string) (*dto.CampaignResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCampaignRequest, callerID string) (*dto.CampaignResponse, error)
	Delete(ctx context.Context, id, callerID string) error

	CreateSchedule(ctx context.Context, campaignID string, req *dto.CreateScheduleRequest) (*dto.CampaignScheduleResponse, error)
	UpdateSchedule(ctx context.Context, campaignID, scheduleID string, req *dto.UpdateScheduleRequest) (*dto.CampaignScheduleResponse, error)
	DeleteSchedule(ctx context.Context, campaignID, scheduleID string) error

	// Calendar 以 iCalendar 格式导出可见活动的排期
	Calendar(ctx context.Context, viewerRole string) (string, error)
}

type campaignService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewCampaignService 创建 CampaignService 实例
func NewCampaignService(repo *repository.Repository, logger *zap.Logger) CampaignService {
	return &campaignService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *campaignService) Create(ctx context.Context, req *dto.CreateCampaignRequest, callerID string) (*dto.CampaignResponse, error) {
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	c := &model.Campaign{
		Title:            req.Title,
		Description:      req.Description,
		PublishToAdmin:   true,
		PublishToManager: req.PublishToManager,
		PublishToMember:  req.PublishToMember,
		StartDate:        start,
		EndDate:          end,
	}
	if req.PublishToAdmin != nil {
		c.PublishToAdmin = *req.PublishToAdmin
	}
	c.CreatedBy = &callerID
	c.UpdatedBy = &callerID

	if err := s.repo.Campaign.Create(ctx, c); err != nil {
		s.logger.Error("创建活动失败", zap.Error(err))
		return nil, err
	}
	return toCampaignResponse(c), nil
}

// ────────────────────── ListVisible ──────────────────────

func (s *campaignService) ListVisible(ctx context.Context, viewerRole string) ([]dto.CampaignResponse, error) {
	campaigns, err := s.repo.Campaign.List(ctx, viewerRole)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CampaignResponse, 0, len(campaigns))
	for i := range campaigns {
		result = append(result, *toCampaignResponse(&campaigns[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *campaignService) GetByID(ctx context.Context, id, viewerRole string) (*dto.CampaignResponse, error) {
	c, err := s.getCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerRole != "" && !c.VisibleTo(viewerRole) {
		return nil, ErrCampaignHidden
	}
	return toCampaignResponse(c), nil
}

// ────────────────────── Update ──────────────────────

func (s *campaignService) Update(ctx context.Context, id string, req *dto.UpdateCampaignRequest, callerID string) (*dto.CampaignResponse, error) {
	c, err := s.getCampaign(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.PublishToAdmin != nil {
		c.PublishToAdmin = *req.PublishToAdmin
	}
	if req.PublishToManager != nil {
		c.PublishToManager = *req.PublishToManager
	}
	if req.PublishToMember != nil {
		c.PublishToMember = *req.PublishToMember
	}
	if req.StartDate != nil {
		if c.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if c.EndDate, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if c.StartDate.After(c.EndDate) {
		return nil, ErrDateRange
	}
	// 收窄起止日期时，已有排期必须仍落在新区间内
	for _, sc := range c.Schedules {
		if sc.StartDate.Before(c.StartDate) || sc.EndDate.After(c.EndDate) {
			return nil, ErrScheduleOutOfSpan
		}
	}
	c.UpdatedBy = &callerID

	if err := s.repo.Campaign.Update(ctx, c); err != nil {
		s.logger.Error("更新活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toCampaignResponse(c), nil
}

// ────────────────────── Delete ──────────────────────

func (s *campaignService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.repo.Campaign.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCampaignNotFound
		}
		s.logger.Error("删除活动失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.logger.Info("活动已删除", zap.String("id", id), zap.String("operator", callerID))
	return nil
}

// ────────────────────── Schedules ──────────────────────

func (s *campaignService) CreateSchedule(ctx context.Context, campaignID string, req *dto.CreateScheduleRequest) (*dto.CampaignScheduleResponse, error) {
	c, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if start.Before(c.StartDate) || end.After(c.EndDate) {
		return nil, ErrScheduleOutOfSpan
	}

	sc := &model.CampaignSchedule{
		CampaignID: campaignID,
		Title:      req.Title,
		StoreID:    req.StoreID,
		StartDate:  start,
		EndDate:    end,
		Note:       req.Note,
	}
	if err := s.repo.Campaign.CreateSchedule(ctx, sc); err != nil {
		if errors.Is(pkgerrors.Classify(err), pkgerrors.ErrReferenced) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("创建活动排期失败", zap.String("campaign_id", campaignID), zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(sc)
	return &resp, nil
}

func (s *campaignService) UpdateSchedule(ctx context.Context, campaignID, scheduleID string, req *dto.UpdateScheduleRequest) (*dto.CampaignScheduleResponse, error) {
	c, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	sc, err := s.repo.Campaign.GetSchedule(ctx, campaignID, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询活动排期失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}

	if req.Title != nil {
		sc.Title = *req.Title
	}
	if req.StoreID != nil {
		if *req.StoreID == "" {
			sc.StoreID = nil
		} else {
			sc.StoreID = req.StoreID
		}
	}
	if req.Note != nil {
		sc.Note = *req.Note
	}
	if req.StartDate != nil {
		if sc.StartDate, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if sc.EndDate, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if sc.StartDate.After(sc.EndDate) {
		return nil, ErrDateRange
	}
	if sc.StartDate.Before(c.StartDate) || sc.EndDate.After(c.EndDate) {
		return nil, ErrScheduleOutOfSpan
	}

	if err := s.repo.Campaign.UpdateSchedule(ctx, sc); err != nil {
		if errors.Is(pkgerrors.Classify(err), pkgerrors.ErrReferenced) {
			return nil, ErrStoreNotFound
		}
		s.logger.Error("更新活动排期失败", zap.String("id", scheduleID), zap.Error(err))
		return nil, err
	}
	resp := toScheduleResponse(sc)
	return &resp, nil
}

func (s *campaignService) DeleteSchedule(ctx context.Context, campaignID, scheduleID string) error {
	if err := s.repo.Campaign.DeleteSchedule(ctx, campaignID, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("删除活动排期失败", zap.String("id", scheduleID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *campaignService) Calendar(ctx context.Context, viewerRole string) (string, error) {
	campaigns, err := s.repo.Campaign.List(ctx, viewerRole)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return "", err
	}
	return export.BuildCampaignCalendar("门店活动", campaigns, s.now()), nil
}

// ── 内部方法 ──

func (s *campaignService) getCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	c, err := s.repo.Campaign.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCampaignNotFound
		}
		s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// parseRange 解析并校验 start ≤ end
func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, ErrDateRange
	}
	return start, end, nil
}

func toCampaignResponse(c *model.Campaign) *dto.CampaignResponse {
	resp := &dto.CampaignResponse{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		PublishToAdmin:   c.PublishToAdmin,
		PublishToManager: c.PublishToManager,
		PublishToMember:  c.PublishToMember,
		StartDate:        formatDate(c.StartDate),
		EndDate:          formatDate(c.EndDate),
		CreatedAt:        formatTime(c.CreatedAt),
		UpdatedAt:        formatTime(c.UpdatedAt),
	}
	for i := range c.Schedules {
		resp.Schedules = append(resp.Schedules, toScheduleResponse(&c.Schedules[i]))
	}
	return resp
}

func toScheduleResponse(sc *model.CampaignSchedule) dto.CampaignScheduleResponse {
	return dto.CampaignScheduleResponse{
		ID:         sc.ID,
		CampaignID: sc.CampaignID,
		Title:      sc.Title,
		StoreID:    sc.StoreID,
		StartDate:  formatDate(sc.StartDate),
		EndDate:    formatDate(sc.EndDate),
		Note:       sc.Note,
	}
}
