package service

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

// NoopIdentityCache is used when no cache backend is configured; every
// lookup misses.
type NoopIdentityCache struct{}

func (NoopIdentityCache) Get(context.Context, int64) (*domain.User, bool, error) {
	return nil, false, nil
}

func (NoopIdentityCache) Stamp(context.Context, int64) (ports.CacheStamp, error) {
	return ports.CacheStamp{}, nil
}

func (NoopIdentityCache) Fill(context.Context, *domain.User, ports.CacheStamp) (bool, error) {
	return false, nil
}

func (NoopIdentityCache) Evict(context.Context, int64) error { return nil }

func (NoopIdentityCache) EvictAll(context.Context) error { return nil }
