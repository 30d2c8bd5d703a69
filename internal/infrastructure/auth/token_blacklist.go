package auth

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes access tokens before they expire
type TokenBlacklist interface {
	// AddToBlacklist revokes a single token by JTI for ttl
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error

	// IsBlacklisted reports whether jti was revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateAccountTokens revokes every token of accountID issued up to now
	InvalidateAccountTokens(ctx context.Context, accountID string, ttl time.Duration) error

	// IsAccountTokenInvalidated reports whether a token issued at issuedAt predates
	// the account's last invalidation
	IsAccountTokenInvalidated(ctx context.Context, accountID string, issuedAt time.Time) (bool, error)
}

const blacklistKeyPrefix = "memberhub:token:blacklist:"

// RedisTokenBlacklist implements TokenBlacklist using Redis
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist on an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: blacklistKeyPrefix,
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) accountKey(accountID string) string {
	return b.keyPrefix + "account:" + accountID
}

// AddToBlacklist revokes a token's JTI
func (b *RedisTokenBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsBlacklisted checks if a token's JTI was revoked
func (b *RedisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}

// InvalidateAccountTokens stores the invalidation time in unix nanoseconds
func (b *RedisTokenBlacklist) InvalidateAccountTokens(ctx context.Context, accountID string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.accountKey(accountID), time.Now().UnixNano(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to invalidate account tokens: %w", err)
	}
	return nil
}

// IsAccountTokenInvalidated compares issuedAt with the stored invalidation time
func (b *RedisTokenBlacklist) IsAccountTokenInvalidated(ctx context.Context, accountID string, issuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.accountKey(accountID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check account token invalidation: %w", err)
	}

	invalidatedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse invalidation timestamp: %w", err)
	}
	return issuedAt.UnixNano() <= invalidatedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// It is only correct for a single instance.
type InMemoryTokenBlacklist struct {
	mu            sync.RWMutex
	jtis          map[string]time.Time // JTI -> expiration time
	invalidatedAt map[string]time.Time // accountID -> invalidation time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:          make(map[string]time.Time),
		invalidatedAt: make(map[string]time.Time),
	}
}

// AddToBlacklist revokes jti for ttl
func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.jtis[jti] = time.Now().Add(ttl)
	return nil
}

// IsBlacklisted checks if jti is revoked and not yet expired
func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiration, exists := b.jtis[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiration) {
		delete(b.jtis, jti)
		return false, nil
	}
	return true, nil
}

// InvalidateAccountTokens revokes every token of accountID issued up to now
func (b *InMemoryTokenBlacklist) InvalidateAccountTokens(_ context.Context, accountID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.invalidatedAt[accountID] = time.Now()
	return nil
}

// IsAccountTokenInvalidated reports whether issuedAt is at or before the last invalidation
func (b *InMemoryTokenBlacklist) IsAccountTokenInvalidated(_ context.Context, accountID string, issuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	at, exists := b.invalidatedAt[accountID]
	if !exists {
		return false, nil
	}
	return issuedAt.UnixNano() <= at.UnixNano(), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
