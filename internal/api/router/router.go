package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/internal/api/handler"
	"pharmacy-ops/backend/internal/api/middleware"
	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/dto"
	"pharmacy-ops/backend/internal/session"
	"pharmacy-ops/backend/pkg/redis"
	"pharmacy-ops/backend/pkg/response"
)

// defaultBodyLimit 未配置 max_body_bytes 时的请求体上限
const defaultBodyLimit = 8 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（未启用 Redis 时不限流）
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	resolver session.Resolver,
	checker middleware.PermissionChecker,
	rdb *redis.Client,
	logger *zap.Logger,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}
	if err := dto.RegisterValidators(v); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}
	response.ExposeErrorDetails(cfg.Server.ExposeErrorDetails)

	bodyLimit := cfg.Server.MaxBodyBytes
	if bodyLimit <= 0 {
		bodyLimit = defaultBodyLimit
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(bodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	perm := func(key string) gin.HandlerFunc {
		return middleware.RequirePermission(checker, key)
	}

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(resolver, logger))
	v1.Use(middleware.RateLimit(rdb, 300, time.Minute))
	{
		v1.POST("/session/logout", h.Session.Logout)
		v1.GET("/me", h.Profile.GetMe)
		v1.GET("/permissions/check", h.Permission.Check)

		// 权限策略管理
		admin := v1.Group("/admin")
		{
			policies := admin.Group("/permissions", perm(authz.KeyPolicyManage))
			{
				policies.GET("", h.Permission.ListPolicies)
				policies.POST("", h.Permission.CreatePolicy)
				policies.DELETE("/:id", h.Permission.DeletePolicy)
				policies.GET("/rules", h.Permission.ListAttributeRules)
				policies.POST("/rules", h.Permission.CreateAttributeRule)
				policies.DELETE("/rules/:id", h.Permission.DeleteAttributeRule)
				policies.POST("/reload", h.Permission.Reload)
			}
			admin.GET("/assignments/archived", perm(authz.KeyAssignmentReadAll), h.Assignment.ArchivedGroups)
		}

		// 用户档案
		profiles := v1.Group("/profiles")
		{
			profiles.GET("", perm(authz.KeyProfileRead), h.Profile.ListProfiles)
			profiles.PUT("/:id", perm(authz.KeyProfileUpdate), h.Profile.UpdateProfile)
			profiles.POST("/:id/reset-password", perm(authz.KeyPasswordReset), h.Profile.ResetPassword)
		}

		// 任务模板
		templates := v1.Group("/templates")
		{
			templates.GET("", perm(authz.KeyTemplateRead), h.Template.ListTemplates)
			templates.GET("/:id", perm(authz.KeyTemplateRead), h.Template.GetTemplate)
			templates.POST("", perm(authz.KeyTemplateCreate), h.Template.CreateTemplate)
			templates.PUT("/:id", perm(authz.KeyTemplateUpdate), h.Template.UpdateTemplate)
			templates.DELETE("/:id", perm(authz.KeyTemplateDelete), h.Template.DeleteTemplate)
		}

		// 任务实例（参与者校验在 Service 层）
		assignments := v1.Group("/assignments")
		{
			assignments.POST("", perm(authz.KeyAssignmentCreate), h.Assignment.CreateAssignment)
			assignments.GET("", h.Assignment.ListAssignments)
			assignments.GET("/:id", h.Assignment.GetAssignment)
			assignments.POST("/:id/steps/:stepId/toggle", h.Assignment.ToggleStep)
			assignments.POST("/:id/comments", h.Assignment.Comment)
			assignments.GET("/:id/logs", h.Assignment.ListLogs)
			assignments.POST("/:id/archive", perm(authz.KeyAssignmentArchive), h.Assignment.Archive)
			assignments.POST("/:id/unarchive", perm(authz.KeyAssignmentArchive), h.Assignment.Unarchive)
			assignments.DELETE("/:id", perm(authz.KeyAssignmentDelete), h.Assignment.DeleteAssignment)
			assignments.POST("/:id/collaborators", h.Assignment.AddCollaborators)
			assignments.DELETE("/:id/collaborators/:userId", h.Assignment.RemoveCollaborator)
		}

		// 营销活动
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", perm(authz.KeyCampaignRead), h.Campaign.ListCampaigns)
			campaigns.GET("/calendar.ics", perm(authz.KeyCampaignRead), h.Campaign.Calendar)
			campaigns.GET("/:id", perm(authz.KeyCampaignRead), h.Campaign.GetCampaign)
			campaigns.POST("", perm(authz.KeyCampaignCreate), h.Campaign.CreateCampaign)
			campaigns.PUT("/:id", perm(authz.KeyCampaignUpdate), h.Campaign.UpdateCampaign)
			campaigns.DELETE("/:id", perm(authz.KeyCampaignDelete), h.Campaign.DeleteCampaign)
			campaigns.POST("/:id/schedules", perm(authz.KeyCampaignUpdate), h.Campaign.CreateSchedule)
			campaigns.PUT("/:id/schedules/:scheduleId", perm(authz.KeyCampaignUpdate), h.Campaign.UpdateSchedule)
			campaigns.DELETE("/:id/schedules/:scheduleId", perm(authz.KeyCampaignUpdate), h.Campaign.DeleteSchedule)
		}

		// 门店
		stores := v1.Group("/stores")
		{
			stores.GET("", perm(authz.KeyStoreRead), h.Store.ListStores)
			stores.GET("/with-supervisors", perm(authz.KeyStoreRead), h.Store.ListWithSupervisors)
			stores.GET("/summary", perm(authz.KeyStoreSummary), h.Store.Summary)
		}
		v1.PUT("/store-managers/:userId", perm(authz.KeyStoreAssign), h.Store.ReplaceStoreManagers)

		// 巡检
		inspectionTpls := v1.Group("/inspection-templates")
		{
			inspectionTpls.GET("", perm(authz.KeyInspectionRead), h.Inspection.ListTemplates)
			inspectionTpls.GET("/:id", perm(authz.KeyInspectionRead), h.Inspection.GetTemplate)
			inspectionTpls.POST("", perm(authz.KeyInspectionTpl), h.Inspection.CreateTemplate)
			inspectionTpls.PUT("/:id", perm(authz.KeyInspectionTpl), h.Inspection.UpdateTemplate)
			inspectionTpls.DELETE("/:id", perm(authz.KeyInspectionTpl), h.Inspection.DeleteTemplate)
		}
		inspections := v1.Group("/inspections")
		{
			inspections.GET("", perm(authz.KeyInspectionRead), h.Inspection.ListInspections)
			inspections.GET("/:id", perm(authz.KeyInspectionRead), h.Inspection.GetInspection)
			inspections.POST("", perm(authz.KeyInspectionNew), h.Inspection.CreateInspection)
			inspections.DELETE("/:id", perm(authz.KeyInspectionDel), h.Inspection.DeleteInspection)
		}

		// 员工、异动与升迁
		v1.GET("/store-employees", perm(authz.KeyEmployeeRead), h.Employee.ListEmployees)
		v1.POST("/store-employees", perm(authz.KeyEmployeeCreate), h.Employee.CreateEmployee)
		v1.GET("/employee-movements", perm(authz.KeyMovementRead), h.Employee.ListMovements)
		v1.POST("/employee-movements", perm(authz.KeyMovementCreate), h.Employee.CreateMovement)
		v1.GET("/employee-promotions", perm(authz.KeyPromotionRead), h.Employee.ListPromotions)
		v1.POST("/employee-promotions", perm(authz.KeyPromotionCreate), h.Employee.CreatePromotion)

		// 月度台账
		v1.GET("/monthly-staff-status", perm(authz.KeyStaffStatusRead), h.Payroll.ListStaffStatus)
		v1.GET("/support-staff-bonus", perm(authz.KeyBonusRead), h.Payroll.ListBonus)
		v1.PUT("/support-staff-bonus", perm(authz.KeyBonusWrite), h.Payroll.ReplaceBonus)

		meals := v1.Group("/meal-allowances")
		{
			meals.GET("", perm(authz.KeyMealRead), h.Payroll.ListMealAllowances)
			meals.PUT("", perm(authz.KeyMealWrite), h.Payroll.UpsertMealAllowance)
			meals.DELETE("/:id", perm(authz.KeyMealWrite), h.Payroll.DeleteMealAllowance)
			meals.POST("/import", perm(authz.KeyMealWrite), h.Payroll.ImportMealAllowances)
		}
		transport := v1.Group("/transport-expenses")
		{
			transport.GET("", perm(authz.KeyTransportRead), h.Payroll.ListTransportExpenses)
			transport.PUT("", perm(authz.KeyTransportWrite), h.Payroll.UpsertTransportExpense)
			transport.DELETE("/:id", perm(authz.KeyTransportWrite), h.Payroll.DeleteTransportExpense)
		}

		// 导出
		export := v1.Group("/export")
		{
			export.GET("/support-staff-bonus.xlsx", perm(authz.KeyExportBonus), h.Export.ExportBonus)
			export.GET("/monthly-staff-status.pdf", perm(authz.KeyExportStaffStatus), h.Export.ExportStaffStatus)
		}
	}

	return r, nil
}
