package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// CacheStamp records the eviction generations seen before a store read.
// A fill carrying an outdated stamp is dropped.
type CacheStamp struct {
	User   int64
	Global int64
}

// IdentityCache holds users resolved by the access guard, keyed by user id.
type IdentityCache interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context, userID int64) (*domain.User, bool, error)
	// Stamp must be taken before the user is loaded from the store.
	Stamp(ctx context.Context, userID int64) (CacheStamp, error)
	// Fill stores user unless Evict or EvictAll ran after stamp was taken.
	// It reports whether the entry was written.
	Fill(ctx context.Context, user *domain.User, stamp CacheStamp) (bool, error)
	Evict(ctx context.Context, userID int64) error
	// EvictAll drops every cached identity, used when a role changes.
	EvictAll(ctx context.Context) error
}
