package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
	"github.com/userrole/auth-api/internal/infrastructure/db/memory"
)

var discardLogger = zerolog.Nop()

// newTestHasher uses the minimum bcrypt cost to keep tests fast.
func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

// seededStore returns an in-memory store holding ROLE_ADMIN and ROLE_USER.
func seededStore() *memory.Store {
	store := memory.NewStore()
	for _, name := range domain.SeedRoles {
		if _, err := store.Roles().Create(context.Background(), name.String()); err != nil {
			panic(err)
		}
	}
	return store
}

// ---------------------------------------------------------------------------
// Failing repositories
// ---------------------------------------------------------------------------

type failingUserRepo struct {
	ports.UserRepository
	err error
}

func (r *failingUserRepo) FindByUsername(context.Context, string) (*domain.User, error) {
	return nil, r.err
}

func (r *failingUserRepo) FindByID(context.Context, int64) (*domain.User, error) {
	return nil, r.err
}

type failingRoleRepo struct {
	ports.RoleRepository
	err error
}

func (r *failingRoleRepo) FindByName(context.Context, string) (*domain.Role, error) {
	return nil, r.err
}

// ---------------------------------------------------------------------------
// Recording identity cache
// ---------------------------------------------------------------------------

type recordingCache struct {
	mu       sync.Mutex
	entries  map[int64]*domain.User
	gens     map[int64]int64
	global   int64
	gets     int
	evicted  []int64
	flushes  int
	getErr   error
	fills    int
	rejected int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries: make(map[int64]*domain.User),
		gens:    make(map[int64]int64),
	}
}

func (c *recordingCache) Get(_ context.Context, id int64) (*domain.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	u, ok := c.entries[id]
	return u, ok, nil
}

func (c *recordingCache) Stamp(_ context.Context, id int64) (ports.CacheStamp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ports.CacheStamp{User: c.gens[id], Global: c.global}, nil
}

func (c *recordingCache) Fill(_ context.Context, u *domain.User, stamp ports.CacheStamp) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stamp.User != c.gens[u.ID] || stamp.Global != c.global {
		c.rejected++
		return false, nil
	}
	c.fills++
	c.entries[u.ID] = u
	return true, nil
}

func (c *recordingCache) Evict(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evicted = append(c.evicted, id)
	c.gens[id]++
	delete(c.entries, id)
	return nil
}

func (c *recordingCache) EvictAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	c.global++
	c.entries = make(map[int64]*domain.User)
	return nil
}

// ---------------------------------------------------------------------------
// Pausing user repository
// ---------------------------------------------------------------------------

// pausingUserRepo holds the first FindByID after it has read the row, until
// release is closed.
type pausingUserRepo struct {
	ports.UserRepository
	armed   atomic.Bool
	loaded  chan struct{}
	release chan struct{}
}

func newPausingUserRepo(inner ports.UserRepository) *pausingUserRepo {
	r := &pausingUserRepo{
		UserRepository: inner,
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
	r.armed.Store(true)
	return r
}

func (r *pausingUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := r.UserRepository.FindByID(ctx, id)
	if r.armed.CompareAndSwap(true, false) {
		close(r.loaded)
		<-r.release
	}
	return u, err
}
