package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/model"
	"pharmacy-ops/backend/internal/repository"
	"pharmacy-ops/backend/pkg/authprovider"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
)

// ── 档案模块业务错误 ──

var (
	ErrProfileNotFound       = errors.New("用户档案不存在")
	ErrEmployeeCodeTaken     = errors.New("工号已被其他档案使用")
	ErrPasswordResetDisabled = errors.New("未配置认证服务特权密钥，无法重置密码")
	ErrAuthUserNotFound      = errors.New("认证服务中不存在该用户")
	ErrCannotDemoteSelf      = errors.New("不能修改自己的管理员角色")
)

// ProfileService 用户档案业务接口
type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	List(ctx context.Context, req *dto.ProfileListRequest) ([]dto.ProfileResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateProfileRequest, callerID string) (*dto.ProfileResponse, error)
	// ResetPassword 通过认证服务特权接口重置密码
	ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error
}

type profileService struct {
	repo      *repository.Repository
	authz     Authorizer
	passwords PasswordResetter
	logger    *zap.Logger
}

// NewProfileService 创建 ProfileService 实例
func NewProfileService(repo *repository.Repository, authorizer Authorizer, passwords PasswordResetter, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, authz: authorizer, passwords: passwords, logger: logger}
}

// ────────────────────── GetMe ──────────────────────

func (s *profileService) GetMe(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	p, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toProfileResponse(p)
	roles, err := s.authz.Roles(ctx, userID)
	if err != nil {
		// 角色仅用于展示，失败不影响档案返回
		s.logger.Warn("查询派生角色失败", zap.String("user_id", userID), zap.Error(err))
	}
	resp.Roles = roles
	return resp, nil
}

// ────────────────────── List ──────────────────────

func (s *profileService) List(ctx context.Context, req *dto.ProfileListRequest) ([]dto.ProfileResponse, int64, error) {
	filter := repository.ProfileFilter{
		Role:       req.Role,
		Department: req.Department,
		Keyword:    req.Keyword,
	}
	profiles, total, err := s.repo.Profile.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询档案列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		result = append(result, *toProfileResponse(&profiles[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *profileService) Update(ctx context.Context, id string, req *dto.UpdateProfileRequest, callerID string) (*dto.ProfileResponse, error) {
	p, err := s.getProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && id == callerID && p.Role == model.RoleAdmin && *req.Role != model.RoleAdmin {
		return nil, ErrCannotDemoteSelf
	}

	if req.FullName != nil {
		p.FullName = *req.FullName
	}
	if req.Role != nil {
		p.Role = *req.Role
	}
	if req.Department != nil {
		p.Department = *req.Department
	}
	if req.JobTitle != nil {
		p.JobTitle = *req.JobTitle
	}
	if req.EmployeeCode != nil {
		if *req.EmployeeCode == "" {
			p.EmployeeCode = nil
		} else {
			p.EmployeeCode = req.EmployeeCode
		}
	}
	if req.StoreID != nil {
		if *req.StoreID == "" {
			p.StoreID = nil
		} else {
			p.StoreID = req.StoreID
		}
	}

	if err := s.repo.Profile.Update(ctx, p); err != nil {
		switch pkgerrors.Classify(err) {
		case pkgerrors.ErrDuplicate:
			return nil, ErrEmployeeCodeTaken
		case pkgerrors.ErrReferenced:
			return nil, ErrStoreNotFound
		}
		s.logger.Error("更新档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("档案已更新",
		zap.String("id", id),
		zap.String("role", p.Role),
		zap.String("operator", callerID),
	)
	return toProfileResponse(p), nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *profileService) ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error {
	if _, err := s.getProfile(ctx, id); err != nil {
		return err
	}

	if err := s.passwords.AdminUpdatePassword(ctx, id, req.Password); err != nil {
		switch {
		case errors.Is(err, authprovider.ErrServiceKeyMissing):
			return ErrPasswordResetDisabled
		case errors.Is(err, authprovider.ErrUserNotFound):
			return ErrAuthUserNotFound
		}
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("密码已重置", zap.String("id", id), zap.String("operator", callerID))
	return nil
}

// ── 内部方法 ──

func (s *profileService) getProfile(ctx context.Context, id string) (*model.Profile, error) {
	p, err := s.repo.Profile.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Error("查询档案失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func toProfileResponse(p *model.Profile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role,
		Department:   p.Department,
		JobTitle:     p.JobTitle,
		EmployeeCode: p.EmployeeCode,
		StoreID:      p.StoreID,
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}
