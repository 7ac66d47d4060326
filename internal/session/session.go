package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/pkg/authprovider"
	"pharmacy-ops/backend/pkg/jwt"
	"pharmacy-ops/backend/pkg/redis"
)

var (
	// ErrUnauthenticated 缺少或无效的登录凭证
	ErrUnauthenticated = errors.New("未登录或登录已过期")
	// ErrTokenRevoked 令牌已被注销
	ErrTokenRevoked = fmt.Errorf("%w: 令牌已注销", ErrUnauthenticated)
)

// Principal 已认证的请求主体
type Principal struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Resolver 由 Bearer Token 解析请求主体
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Principal, error)
}

// NewResolver 按配置组装解析器：jwt 本地校验或 remote 远程查询，cache 非空时外层加 Redis 缓存
func NewResolver(cfg *config.AuthConfig, cache *redis.Client, logger *zap.Logger) Resolver {
	var base Resolver
	switch cfg.Mode {
	case "remote":
		base = NewRemoteResolver(authprovider.NewClient(cfg, logger))
	default:
		base = NewJWTResolver(jwt.NewManager(cfg))
	}
	if cache == nil {
		return base
	}
	return NewCachedResolver(base, cache, cfg.CacheTTL, logger)
}

// ── 本地 JWT 校验 ──

// JWTResolver 使用共享密钥本地校验认证服务签发的令牌
type JWTResolver struct {
	jwt *jwt.Manager
}

// NewJWTResolver 创建 JWTResolver
func NewJWTResolver(m *jwt.Manager) *JWTResolver {
	return &JWTResolver{jwt: m}
}

func (r *JWTResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := r.jwt.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	p := &Principal{UserID: claims.Subject, Email: claims.Email}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// ── 远程查询 ──

// UserFetcher 认证服务用户查询
type UserFetcher interface {
	GetUser(ctx context.Context, accessToken string) (*authprovider.User, error)
}

// RemoteResolver 调用认证服务 /auth/v1/user 解析令牌
type RemoteResolver struct {
	users UserFetcher
}

// NewRemoteResolver 创建 RemoteResolver
func NewRemoteResolver(users UserFetcher) *RemoteResolver {
	return &RemoteResolver{users: users}
}

func (r *RemoteResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	u, err := r.users.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, authprovider.ErrUnauthorized) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	p := &Principal{UserID: u.ID, Email: u.Email}
	if exp, ok := jwt.ExpiryUnverified(token); ok {
		p.ExpiresAt = exp
	}
	return p, nil
}
