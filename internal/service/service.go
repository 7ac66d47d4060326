package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/repository"
)

// ── 通用业务错误 ──

var (
	ErrInvalidDate = errors.New("日期格式错误，应为 YYYY-MM-DD")
	ErrDateRange   = errors.New("开始日期不能晚于结束日期")
)

// Authorizer 权限评估（由 authz.Evaluator 实现）
type Authorizer interface {
	Mode() authz.Mode
	Check(ctx context.Context, userID, key string) (bool, error)
	Require(ctx context.Context, userID, key string) (authz.Decision, error)
	Roles(ctx context.Context, userID string) ([]string, error)
	Reload(ctx context.Context) error
}

// PasswordResetter 认证服务特权操作（由 authprovider.Client 实现）
type PasswordResetter interface {
	AdminUpdatePassword(ctx context.Context, userID, password string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Profile    ProfileService
	Permission PermissionService
	Template   TemplateService
	Assignment AssignmentService
	Campaign   CampaignService
	Store      StoreService
	Inspection InspectionService
	Employee   EmployeeService
	Payroll    PayrollService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	authorizer Authorizer,
	passwords PasswordResetter,
	logger *zap.Logger,
) *Service {
	return &Service{
		Profile:    NewProfileService(repo, authorizer, passwords, logger),
		Permission: NewPermissionService(repo, authorizer, logger),
		Template:   NewTemplateService(repo, logger),
		Assignment: NewAssignmentService(repo, authorizer, logger),
		Campaign:   NewCampaignService(repo, logger),
		Store:      NewStoreService(repo, logger),
		Inspection: NewInspectionService(repo, logger),
		Employee:   NewEmployeeService(repo, logger),
		Payroll:    NewPayrollService(repo, logger),
		Export:     NewExportService(repo, cfg.Export, logger),
	}
}

// ── 时间格式 ──

const (
	timeLayout = "2006-01-02T15:04:05Z"
	dateLayout = "2006-01-02"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

// parseDate 解析 YYYY-MM-DD；输入已由 binding 校验，失败返回 ErrInvalidDate
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseDatePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dedupe 去重并去除空白，保持首次出现顺序
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
