package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"pharmacy-ops/backend/internal/session"
	"pharmacy-ops/backend/pkg/response"
)

// TokenRevoker 注销令牌（由 session.CachedResolver 实现）
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, p *session.Principal) error
}

// SessionHandler 会话 HTTP 处理器
type SessionHandler struct {
	revoker TokenRevoker
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(revoker TokenRevoker) *SessionHandler {
	return &SessionHandler{revoker: revoker}
}

// Logout 注销当前令牌
// POST /api/v1/session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	if _, ok := MustGetUserID(c); !ok {
		return
	}
	if h.revoker == nil {
		response.OK(c, nil)
		return
	}

	p, _ := GetPrincipal(c)
	if err := h.revoker.Revoke(c.Request.Context(), GetToken(c), p); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, nil)
}
