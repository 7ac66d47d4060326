package authz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"

	"pharmacy-ops/backend/internal/model"
	pkgerrors "pharmacy-ops/backend/pkg/errors"
	"pharmacy-ops/backend/pkg/metrics"
)

// 策略模型：主体为角色，对象为权限键；策略侧可用 * 通配（如 employee.*）
const policyModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch(r.obj, p.obj)
`

// PolicyStore 策略数据来源
type PolicyStore interface {
	ListPolicies(ctx context.Context) ([]model.RolePermission, error)
	ListAttributeRules(ctx context.Context) ([]model.RoleAttributeRule, error)
}

// ProfileLookup 档案查询
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
}

// Decision Require 的评估结果
type Decision struct {
	Allowed bool   `json:"allowed"`
	Key     string `json:"key"`
	Message string `json:"message,omitempty"`
}

// DeniedMessage 拒绝提示，包含缺失的权限键
func DeniedMessage(key string) string {
	return fmt.Sprintf("权限不足: 缺少 %s", key)
}

// Evaluator 权限评估器：(用户, 权限键) → 允许/拒绝
// 无匹配策略时一律拒绝
type Evaluator struct {
	mode     Mode
	store    PolicyStore
	profiles ProfileLookup
	logger   *zap.Logger

	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	rules    []model.RoleAttributeRule
}

// NewEvaluator 创建评估器并加载策略
func NewEvaluator(ctx context.Context, mode Mode, store PolicyStore, profiles ProfileLookup, logger *zap.Logger) (*Evaluator, error) {
	e := &Evaluator{
		mode:     mode,
		store:    store,
		profiles: profiles,
		logger:   logger.Named("authz"),
	}
	if err := e.Reload(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Mode 当前评估模式
func (e *Evaluator) Mode() Mode { return e.mode }

// Reload 从数据库重新加载策略与属性规则
func (e *Evaluator) Reload(ctx context.Context) error {
	policies, err := e.store.ListPolicies(ctx)
	if err != nil {
		return fmt.Errorf("authz: 加载权限策略失败: %w", err)
	}
	rules, err := e.store.ListAttributeRules(ctx)
	if err != nil {
		return fmt.Errorf("authz: 加载属性规则失败: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(policyModel)
	if err != nil {
		return fmt.Errorf("authz: 解析策略模型失败: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return fmt.Errorf("authz: 初始化 enforcer 失败: %w", err)
	}

	rows := make([][]string, 0, len(policies))
	seen := make(map[[2]string]bool, len(policies))
	for _, p := range policies {
		k := [2]string{p.Role, p.PermissionKey}
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, []string{p.Role, p.PermissionKey})
	}
	if len(rows) > 0 {
		if _, err := enf.AddPolicies(rows); err != nil {
			return fmt.Errorf("authz: 写入策略失败: %w", err)
		}
	}

	e.mu.Lock()
	e.enforcer = enf
	e.rules = rules
	e.mu.Unlock()

	e.logger.Info("权限策略已加载",
		zap.Int("policies", len(rows)),
		zap.Int("attribute_rules", len(rules)),
		zap.String("mode", string(e.mode)),
	)
	return nil
}

// Roles 返回用户参与评估的角色集合；档案不存在时返回空
func (e *Evaluator) Roles(ctx context.Context, userID string) ([]string, error) {
	p, err := e.profiles.GetByID(ctx, userID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("authz: 查询档案失败: %w", err)
	}
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()
	return SubjectRoles(p, rules), nil
}

// Check 判断用户是否拥有权限键
// shadow 模式下拒绝只记录日志，仍返回 true
func (e *Evaluator) Check(ctx context.Context, userID, key string) (bool, error) {
	if e.mode == ModeDisabled {
		return true, nil
	}

	start := time.Now()
	allowed, err := e.evaluate(ctx, userID, key)
	if err != nil {
		return false, err
	}
	metrics.ObserveAuthz(string(e.mode), allowed, time.Since(start))

	if allowed {
		return true, nil
	}
	if e.mode == ModeShadow {
		e.logger.Warn("authz shadow deny",
			zap.String("user_id", userID),
			zap.String("key", key),
		)
		return true, nil
	}
	e.logger.Info("authz denied",
		zap.String("user_id", userID),
		zap.String("key", key),
	)
	return false, nil
}

// Require 与 Check 相同，但拒绝时附带提示信息
func (e *Evaluator) Require(ctx context.Context, userID, key string) (Decision, error) {
	allowed, err := e.Check(ctx, userID, key)
	if err != nil {
		return Decision{Key: key}, err
	}
	if !allowed {
		return Decision{Key: key, Message: DeniedMessage(key)}, nil
	}
	return Decision{Allowed: true, Key: key}, nil
}

func (e *Evaluator) evaluate(ctx context.Context, userID, key string) (bool, error) {
	if userID == "" || key == "" {
		return false, nil
	}
	roles, err := e.Roles(ctx, userID)
	if err != nil {
		return false, err
	}

	e.mu.RLock()
	enf := e.enforcer
	e.mu.RUnlock()

	for _, role := range roles {
		ok, err := enf.Enforce(role, key)
		if err != nil {
			return false, fmt.Errorf("authz: enforce 失败: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
