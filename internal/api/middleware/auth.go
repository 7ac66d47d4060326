package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pharmacy-ops/backend/internal/authz"
	"pharmacy-ops/backend/internal/session"
	applogger "pharmacy-ops/backend/pkg/logger"
	"pharmacy-ops/backend/pkg/response"
)

// Auth 认证中间件
// 从 Authorization: Bearer <token> 解析请求主体；任何数据访问之前完成
func Auth(resolver session.Resolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, 10002, "认证头格式无效")
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrTokenRevoked) {
				response.Unauthorized(c, 10002, "登录已注销，请重新登录")
				c.Abort()
				return
			}
			if errors.Is(err, session.ErrUnauthenticated) {
				response.Unauthorized(c, 10002, "Token 无效或已过期")
				c.Abort()
				return
			}
			applogger.FromContext(c.Request.Context(), logger).Error("解析登录凭证失败", zap.Error(err))
			response.InternalError(c, err)
			c.Abort()
			return
		}

		c.Set("user_id", principal.UserID)
		c.Set("principal", principal)
		c.Set("access_token", token)

		c.Next()
	}
}

// PermissionChecker 权限判定器
type PermissionChecker interface {
	Require(ctx context.Context, userID, key string) (authz.Decision, error)
}

// RequirePermission 权限键中间件，必须挂在 Auth 之后
func RequirePermission(checker PermissionChecker, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		decision, err := checker.Require(c.Request.Context(), userID, key)
		if err != nil {
			response.InternalError(c, err)
			c.Abort()
			return
		}
		if !decision.Allowed {
			response.Forbidden(c, 10003, decision.Message)
			c.Abort()
			return
		}

		c.Next()
	}
}
