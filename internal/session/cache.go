package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"pharmacy-ops/backend/pkg/redis"
)

const (
	cacheKeyPrefix  = "session:principal:"
	defaultCacheTTL = time.Minute
	// 无法得知令牌过期时间时黑名单的保留时长，不短于认证服务令牌最长有效期
	revokeFallbackTTL = 24 * time.Hour
)

// CachedResolver 在 Redis 中缓存解析结果，并检查令牌黑名单
// Redis 故障时降级为直接调用下游解析器
type CachedResolver struct {
	next   Resolver
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver 创建带缓存的解析器
func NewCachedResolver(next Resolver, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedResolver {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedResolver{next: next, cache: cache, ttl: ttl, logger: logger}
}

// TokenHash 令牌摘要；缓存与黑名单均以摘要为键，不落明文令牌
func TokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (r *CachedResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	hash := TokenHash(token)

	revoked, err := r.cache.IsBlacklisted(ctx, hash)
	if err != nil {
		r.logger.Warn("检查令牌黑名单失败", zap.Error(err))
	} else if revoked {
		return nil, ErrTokenRevoked
	}

	var p Principal
	err = r.cache.GetJSON(ctx, cacheKeyPrefix+hash, &p)
	switch {
	case err == nil:
		if p.ExpiresAt.IsZero() || time.Now().Before(p.ExpiresAt) {
			return &p, nil
		}
	case !errors.Is(err, redis.ErrCacheMiss):
		r.logger.Warn("读取会话缓存失败", zap.Error(err))
	}

	resolved, err := r.next.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := r.ttl
	if !resolved.ExpiresAt.IsZero() {
		if remaining := time.Until(resolved.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		if err := r.cache.SetJSON(ctx, cacheKeyPrefix+hash, resolved, ttl); err != nil {
			r.logger.Warn("写入会话缓存失败", zap.Error(err))
		}
	}
	return resolved, nil
}

// Revoke 注销令牌：清除缓存并加入黑名单，黑名单有效期为令牌剩余有效期
func (r *CachedResolver) Revoke(ctx context.Context, token string, p *Principal) error {
	hash := TokenHash(token)
	if err := r.cache.Delete(ctx, cacheKeyPrefix+hash); err != nil {
		return err
	}
	ttl := revokeFallbackTTL
	if p != nil && !p.ExpiresAt.IsZero() {
		ttl = time.Until(p.ExpiresAt)
	}
	return r.cache.BlacklistToken(ctx, hash, ttl)
}
