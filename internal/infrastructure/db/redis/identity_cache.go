package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

const (
	identityPrefix  = "identity:"
	generationKey   = "identity-gen"
	scanBatch       = 100
	DefaultCacheTTL = 30 * time.Second
	// generationTTL bounds how long a per-user eviction marker lives. It must
	// outlast any store read that started before the eviction.
	generationTTL = 10 * time.Minute
)

// fillScript writes the entry only while both generations still match the
// stamp the caller took before reading the store.
//
//	KEYS: entry, user generation, global generation
//	ARGV: payload, user stamp, global stamp, ttl in ms
var fillScript = redis.NewScript(`
local u = tonumber(redis.call('GET', KEYS[2]) or '0')
local g = tonumber(redis.call('GET', KEYS[3]) or '0')
if u ~= tonumber(ARGV[2]) or g ~= tonumber(ARGV[3]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[4])
return 1
`)

// IdentityCache stores users resolved by the access guard.
//
//	identity:<user_id>      cached entry
//	identity-gen:<user_id>  bumped by Evict
//	identity-gen            bumped by EvictAll
type IdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdentityCache wraps the given client. A non-positive ttl falls back to
// DefaultCacheTTL.
func NewIdentityCache(client *redis.Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &IdentityCache{client: client, ttl: ttl}
}

// cachedIdentity is the stored form of a user. The password hash is never
// written to the cache.
type cachedIdentity struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	RoleID        int64     `json:"roleId"`
	RoleName      string    `json:"roleName"`
	RoleCreatedAt time.Time `json:"roleCreatedAt"`
	RoleUpdatedAt time.Time `json:"roleUpdatedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func encodeIdentity(u *domain.User) ([]byte, error) {
	c := cachedIdentity{
		ID:        u.ID,
		Username:  u.Username,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Role != nil {
		c.RoleName = u.Role.Name
		c.RoleCreatedAt = u.Role.CreatedAt
		c.RoleUpdatedAt = u.Role.UpdatedAt
	}
	return json.Marshal(c)
}

func decodeIdentity(b []byte) (*domain.User, error) {
	var c cachedIdentity
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &domain.User{
		ID:       c.ID,
		Username: c.Username,
		RoleID:   c.RoleID,
		Role: &domain.Role{
			ID:        c.RoleID,
			Name:      c.RoleName,
			CreatedAt: c.RoleCreatedAt,
			UpdatedAt: c.RoleUpdatedAt,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}

func identityKey(userID int64) string {
	return fmt.Sprintf("%s%d", identityPrefix, userID)
}

func userGenerationKey(userID int64) string {
	return fmt.Sprintf("%s:%d", generationKey, userID)
}

// parseGeneration reads an MGET slot; a missing key is generation 0.
func parseGeneration(v any) (int64, error) {
	switch g := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(g, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected generation type %T", v)
	}
}

func (c *IdentityCache) Get(ctx context.Context, userID int64) (*domain.User, bool, error) {
	b, err := c.client.Get(ctx, identityKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("identity get: %w", err)
	}
	u, err := decodeIdentity(b)
	if err != nil {
		// A corrupt entry is treated as a miss; the next Fill overwrites it.
		return nil, false, nil
	}
	return u, true, nil
}

func (c *IdentityCache) Stamp(ctx context.Context, userID int64) (ports.CacheStamp, error) {
	vals, err := c.client.MGet(ctx, userGenerationKey(userID), generationKey).Result()
	if err != nil {
		return ports.CacheStamp{}, fmt.Errorf("identity stamp: %w", err)
	}
	user, err := parseGeneration(vals[0])
	if err != nil {
		return ports.CacheStamp{}, fmt.Errorf("identity stamp: %w", err)
	}
	global, err := parseGeneration(vals[1])
	if err != nil {
		return ports.CacheStamp{}, fmt.Errorf("identity stamp: %w", err)
	}
	return ports.CacheStamp{User: user, Global: global}, nil
}

func (c *IdentityCache) Fill(ctx context.Context, user *domain.User, stamp ports.CacheStamp) (bool, error) {
	b, err := encodeIdentity(user)
	if err != nil {
		return false, fmt.Errorf("identity encode: %w", err)
	}
	keys := []string{identityKey(user.ID), userGenerationKey(user.ID), generationKey}
	n, err := fillScript.Run(ctx, c.client, keys, b, stamp.User, stamp.Global, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("identity fill: %w", err)
	}
	return n == 1, nil
}

// Evict bumps the user's generation and drops the entry in one transaction.
func (c *IdentityCache) Evict(ctx context.Context, userID int64) error {
	gen := userGenerationKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, generationTTL)
		pipe.Del(ctx, identityKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity evict: %w", err)
	}
	return nil
}

// EvictAll bumps the global generation, then deletes every identity:* key
// in SCAN batches.
func (c *IdentityCache) EvictAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("identity generation: %w", err)
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, identityPrefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("identity scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("identity evict all: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
