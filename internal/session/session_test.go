package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacy-ops/backend/config"
	"pharmacy-ops/backend/pkg/authprovider"
	"pharmacy-ops/backend/pkg/jwt"
	"pharmacy-ops/backend/pkg/redis"
)

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{JWTSecret: "test-secret-0123456789"})
}

func TestJWTResolver(t *testing.T) {
	m := newJWTManager()
	token, err := m.Sign("u-1", "a@example.com", time.Hour)
	require.NoError(t, err)

	p, err := NewJWTResolver(m).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, "a@example.com", p.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), p.ExpiresAt, 5*time.Second)
}

func TestJWTResolver_Rejects(t *testing.T) {
	r := NewJWTResolver(newJWTManager())

	_, err := r.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = r.Resolve(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-0123456"})
	token, _ := other.Sign("u-1", "a@example.com", time.Hour)
	_, err = r.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

type fakeFetcher struct {
	user  *authprovider.User
	err   error
	calls int
}

func (f *fakeFetcher) GetUser(ctx context.Context, token string) (*authprovider.User, error) {
	f.calls++
	return f.user, f.err
}

func TestRemoteResolver(t *testing.T) {
	f := &fakeFetcher{user: &authprovider.User{ID: "u-2", Email: "b@example.com"}}
	p, err := NewRemoteResolver(f).Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u-2", p.UserID)

	f = &fakeFetcher{err: authprovider.ErrUnauthorized}
	_, err = NewRemoteResolver(f).Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	f = &fakeFetcher{err: errors.New("dial tcp: timeout")}
	_, err = NewRemoteResolver(f).Resolve(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

type countingResolver struct {
	p     *Principal
	calls int
}

func (c *countingResolver) Resolve(ctx context.Context, token string) (*Principal, error) {
	c.calls++
	return c.p, nil
}

func newCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return redis.Wrap(rdb, zap.NewNop()), mr
}

func TestCachedResolver_CachesPrincipal(t *testing.T) {
	cache, _ := newCache(t)
	next := &countingResolver{p: &Principal{UserID: "u-3", ExpiresAt: time.Now().Add(time.Hour)}}
	r := NewCachedResolver(next, cache, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		p, err := r.Resolve(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "u-3", p.UserID)
	}
	assert.Equal(t, 1, next.calls)
}

func TestCachedResolver_TTLBoundedByExpiry(t *testing.T) {
	cache, mr := newCache(t)
	next := &countingResolver{p: &Principal{UserID: "u-4", ExpiresAt: time.Now().Add(10 * time.Second)}}
	r := NewCachedResolver(next, cache, time.Hour, zap.NewNop())

	_, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	ttl := mr.TTL(cacheKeyPrefix + TokenHash("tok"))
	assert.LessOrEqual(t, ttl, 10*time.Second)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestCachedResolver_Revoke(t *testing.T) {
	cache, _ := newCache(t)
	p := &Principal{UserID: "u-5", ExpiresAt: time.Now().Add(time.Hour)}
	next := &countingResolver{p: p}
	r := NewCachedResolver(next, cache, time.Minute, zap.NewNop())

	_, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	require.NoError(t, r.Revoke(context.Background(), "tok", p))

	_, err = r.Resolve(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrTokenRevoked)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 1, next.calls)
}

func TestCachedResolver_RedisDownFallsThrough(t *testing.T) {
	cache, mr := newCache(t)
	next := &countingResolver{p: &Principal{UserID: "u-6"}}
	r := NewCachedResolver(next, cache, time.Minute, zap.NewNop())
	mr.Close()

	p, err := r.Resolve(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u-6", p.UserID)
}

func TestNewResolver_SelectsByMode(t *testing.T) {
	r := NewResolver(&config.AuthConfig{Mode: "jwt", JWTSecret: "test-secret-0123456789"}, nil, zap.NewNop())
	_, ok := r.(*JWTResolver)
	assert.True(t, ok)

	r = NewResolver(&config.AuthConfig{Mode: "remote", URL: "http://auth.local", AnonKey: "k"}, nil, zap.NewNop())
	_, ok = r.(*RemoteResolver)
	assert.True(t, ok)

	cache, _ := newCache(t)
	r = NewResolver(&config.AuthConfig{Mode: "jwt", JWTSecret: "test-secret-0123456789"}, cache, zap.NewNop())
	_, ok = r.(*CachedResolver)
	assert.True(t, ok)
}

func TestRemoteResolver_ExpiryFromToken(t *testing.T) {
	token, err := newJWTManager().Sign("u-2", "b@example.com", 2*time.Hour)
	require.NoError(t, err)

	f := &fakeFetcher{user: &authprovider.User{ID: "u-2", Email: "b@example.com"}}
	p, err := NewRemoteResolver(f).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), p.ExpiresAt, 5*time.Second)

	p, err = NewRemoteResolver(f).Resolve(context.Background(), "opaque")
	require.NoError(t, err)
	assert.True(t, p.ExpiresAt.IsZero())
}

func TestCachedResolver_RemoteRevokeOutlivesCacheTTL(t *testing.T) {
	signed, err := newJWTManager().Sign("u-7", "c@example.com", 2*time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
	}{
		{"SignedToken", signed},
		{"UnknownExpiry", "opaque-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cache, mr := newCache(t)
			f := &fakeFetcher{user: &authprovider.User{ID: "u-7", Email: "c@example.com"}}
			r := NewCachedResolver(NewRemoteResolver(f), cache, time.Minute, zap.NewNop())
			ctx := context.Background()

			p, err := r.Resolve(ctx, tc.token)
			require.NoError(t, err)
			require.NoError(t, r.Revoke(ctx, tc.token, p))

			mr.FastForward(61 * time.Second)

			_, err = r.Resolve(ctx, tc.token)
			assert.ErrorIs(t, err, ErrTokenRevoked)
			assert.Equal(t, 1, f.calls)
		})
	}
}
