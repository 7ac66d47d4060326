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

// ── 权限模块业务错误 ──

var (
	ErrPolicyNotFound  = errors.New("权限策略不存在")
	ErrPolicyDuplicate = errors.New("该角色已拥有此权限")
	ErrRuleNotFound    = errors.New("派生规则不存在")
	ErrRuleDuplicate   = errors.New("派生规则已存在")
)

// PermissionService 权限策略业务接口
//
// 策略与派生规则写入数据库后立即重载评估器，保证后续请求按新策略评估。
type PermissionService interface {
	Check(ctx context.Context, userID, key string) (*dto.PermissionCheckResponse, error)

	ListPolicies(ctx context.Context, req *dto.PolicyListRequest) ([]dto.PolicyResponse, error)
	CreatePolicy(ctx context.Context, req *dto.CreatePolicyRequest, callerID string) (*dto.PolicyResponse, error)
	DeletePolicy(ctx context.Context, id uint64, callerID string) error

	ListAttributeRules(ctx context.Context) ([]dto.AttributeRuleResponse, error)
	CreateAttributeRule(ctx context.Context, req *dto.CreateAttributeRuleRequest, callerID string) (*dto.AttributeRuleResponse, error)
	DeleteAttributeRule(ctx context.Context, id uint64, callerID string) error

	Reload(ctx context.Context) error
}

type permissionService struct {
	repo   *repository.Repository
	authz  Authorizer
	logger *zap.Logger
}

// NewPermissionService 创建 PermissionService 实例
func NewPermissionService(repo *repository.Repository, authorizer Authorizer, logger *zap.Logger) PermissionService {
	return &permissionService{repo: repo, authz: authorizer, logger: logger}
}

// ────────────────────── Check ──────────────────────

func (s *permissionService) Check(ctx context.Context, userID, key string) (*dto.PermissionCheckResponse, error) {
	decision, err := s.authz.Require(ctx, userID, key)
	if err != nil {
		s.logger.Error("权限评估失败", zap.String("user_id", userID), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	roles, err := s.authz.Roles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	return &dto.PermissionCheckResponse{
		Allowed: decision.Allowed,
		Key:     key,
		Message: decision.Message,
		Mode:    string(s.authz.Mode()),
		Roles:   roles,
	}, nil
}

// ────────────────────── Policies ──────────────────────

func (s *permissionService) ListPolicies(ctx context.Context, req *dto.PolicyListRequest) ([]dto.PolicyResponse, error) {
	var (
		rows []model.RolePermission
		err  error
	)
	if req.Role != "" {
		rows, err = s.repo.Permission.ListPoliciesByRole(ctx, req.Role)
	} else {
		rows, err = s.repo.Permission.ListPolicies(ctx)
	}
	if err != nil {
		s.logger.Error("查询权限策略失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.PolicyResponse, 0, len(rows))
	for i := range rows {
		result = append(result, toPolicyResponse(&rows[i]))
	}
	return result, nil
}

func (s *permissionService) CreatePolicy(ctx context.Context, req *dto.CreatePolicyRequest, callerID string) (*dto.PolicyResponse, error) {
	p := &model.RolePermission{Role: req.Role, PermissionKey: req.PermissionKey}
	if err := s.repo.Permission.CreatePolicy(ctx, p); err != nil {
		if errors.Is(pkgerrors.Classify(err), pkgerrors.ErrDuplicate) {
			return nil, ErrPolicyDuplicate
		}
		s.logger.Error("新增权限策略失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("权限策略已新增",
		zap.String("role", p.Role),
		zap.String("key", p.PermissionKey),
		zap.String("operator", callerID),
	)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	resp := toPolicyResponse(p)
	return &resp, nil
}

func (s *permissionService) DeletePolicy(ctx context.Context, id uint64, callerID string) error {
	ok, err := s.repo.Permission.DeletePolicy(ctx, id)
	if err != nil {
		s.logger.Error("删除权限策略失败", zap.Uint64("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrPolicyNotFound
	}
	s.logger.Info("权限策略已删除", zap.Uint64("id", id), zap.String("operator", callerID))
	return s.Reload(ctx)
}

// ────────────────────── Attribute Rules ──────────────────────

func (s *permissionService) ListAttributeRules(ctx context.Context) ([]dto.AttributeRuleResponse, error) {
	rules, err := s.repo.Permission.ListAttributeRules(ctx)
	if err != nil {
		s.logger.Error("查询派生规则失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.AttributeRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, toAttributeRuleResponse(&rules[i]))
	}
	return result, nil
}

func (s *permissionService) CreateAttributeRule(ctx context.Context, req *dto.CreateAttributeRuleRequest, callerID string) (*dto.AttributeRuleResponse, error) {
	rule := &model.RoleAttributeRule{
		Attribute: req.Attribute,
		MatchType: req.MatchType,
		Pattern:   req.Pattern,
		Role:      req.Role,
	}
	if err := s.repo.Permission.CreateAttributeRule(ctx, rule); err != nil {
		if errors.Is(pkgerrors.Classify(err), pkgerrors.ErrDuplicate) {
			return nil, ErrRuleDuplicate
		}
		s.logger.Error("新增派生规则失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("派生规则已新增",
		zap.String("attribute", rule.Attribute),
		zap.String("pattern", rule.Pattern),
		zap.String("role", rule.Role),
		zap.String("operator", callerID),
	)
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	resp := toAttributeRuleResponse(rule)
	return &resp, nil
}

func (s *permissionService) DeleteAttributeRule(ctx context.Context, id uint64, callerID string) error {
	ok, err := s.repo.Permission.DeleteAttributeRule(ctx, id)
	if err != nil {
		s.logger.Error("删除派生规则失败", zap.Uint64("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrRuleNotFound
	}
	s.logger.Info("派生规则已删除", zap.Uint64("id", id), zap.String("operator", callerID))
	return s.Reload(ctx)
}

// ────────────────────── Reload ──────────────────────

func (s *permissionService) Reload(ctx context.Context) error {
	if err := s.authz.Reload(ctx); err != nil {
		s.logger.Error("重载权限策略失败", zap.Error(err))
		return err
	}
	return nil
}

func toPolicyResponse(p *model.RolePermission) dto.PolicyResponse {
	return dto.PolicyResponse{
		ID:            p.ID,
		Role:          p.Role,
		PermissionKey: p.PermissionKey,
		CreatedAt:     formatTime(p.CreatedAt),
	}
}

func toAttributeRuleResponse(r *model.RoleAttributeRule) dto.AttributeRuleResponse {
	return dto.AttributeRuleResponse{
		ID:        r.ID,
		Attribute: r.Attribute,
		MatchType: r.MatchType,
		Pattern:   r.Pattern,
		Role:      r.Role,
		CreatedAt: formatTime(r.CreatedAt),
	}
}
