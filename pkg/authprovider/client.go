package authprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
)

var (
	// ErrUnauthorized 认证服务拒绝了令牌
	ErrUnauthorized = errors.New("认证服务拒绝了令牌")
	// ErrServiceKeyMissing 未配置特权服务密钥
	ErrServiceKeyMissing = errors.New("未配置认证服务特权密钥")
	// ErrUserNotFound 认证服务中不存在该用户
	ErrUserNotFound = errors.New("认证服务中不存在该用户")
)

// User 认证服务返回的用户信息（仅取用到的字段）
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Error   string `json:"error_description"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Client 托管认证服务 REST API 客户端
type Client struct {
	http       *resty.Client
	anonKey    string
	serviceKey string
	logger     *zap.Logger
}

// NewClient 创建认证服务客户端
func NewClient(cfg *config.AuthConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:       httpClient,
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		logger:     logger,
	}
}

// GetUser 使用用户的 Access Token 获取当前登录用户
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	var apiErr apiError

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.anonKey).
		SetAuthToken(accessToken).
		SetResult(&user).
		SetError(&apiErr).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("请求认证服务失败: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.IsError():
		return nil, fmt.Errorf("认证服务返回 %d: %s", resp.StatusCode(), apiErr.text())
	}

	if user.ID == "" {
		return nil, ErrUnauthorized
	}
	return &user, nil
}

// AdminUpdatePassword 使用特权服务密钥重置指定用户密码（绕过行级安全）
func (c *Client) AdminUpdatePassword(ctx context.Context, userID, password string) error {
	if c.serviceKey == "" {
		return ErrServiceKeyMissing
	}

	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("apikey", c.serviceKey).
		SetAuthToken(c.serviceKey).
		SetBody(map[string]string{"password": password}).
		SetError(&apiErr).
		Put("/auth/v1/admin/users/" + userID)
	if err != nil {
		return fmt.Errorf("请求认证服务失败: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return ErrUserNotFound
	case resp.IsError():
		c.logger.Warn("认证服务重置密码失败",
			zap.Int("status", resp.StatusCode()),
			zap.String("user_id", userID),
		)
		return fmt.Errorf("认证服务返回 %d: %s", resp.StatusCode(), apiErr.text())
	}
	return nil
}
