package handler

import (
	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/session"
	"pharmacy-ops/backend/pkg/response"
)

// 认证中间件写入的上下文键
const (
	CtxUserID    = "user_id"
	CtxPrincipal = "principal"
	CtxToken     = "access_token"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetPrincipal 提取已解析的请求主体
func GetPrincipal(c *gin.Context) (*session.Principal, bool) {
	v, exists := c.Get(CtxPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*session.Principal)
	return p, ok && p != nil
}

// GetToken 提取原始 Bearer 令牌
func GetToken(c *gin.Context) string {
	return c.GetString(CtxToken)
}
