// Package memory is an in-process credential store. It enforces the same
// uniqueness and referential rules as the SQL and Mongo stores and is used
// for local runs (STORE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/userrole/auth-api/internal/core/domain"
)

// Store owns both collections so that user→role integrity can be checked
// under a single lock.
type Store struct {
	mu         sync.RWMutex
	roles      map[int64]domain.Role
	users      map[int64]domain.User
	nextRoleID int64
	nextUserID int64
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		roles: make(map[int64]domain.Role),
		users: make(map[int64]domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Roles returns the role repository view of the store.
func (s *Store) Roles() *RoleRepository { return &RoleRepository{s: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Ping always succeeds; it satisfies the readiness checker.
func (s *Store) Ping(context.Context) error { return nil }

type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) Create(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.roleByNameLocked(name) != nil {
		return nil, domain.ErrRoleExists
	}
	r.s.nextRoleID++
	now := r.s.now()
	role := domain.Role{ID: r.s.nextRoleID, Name: name, CreatedAt: now, UpdatedAt: now}
	r.s.roles[role.ID] = role
	return &role, nil
}

func (r *RoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Role, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		role := role
		out = append(out, &role)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *RoleRepository) FindByID(_ context.Context, id int64) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	role := r.s.roleByNameLocked(name)
	if role == nil {
		return nil, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *RoleRepository) Update(_ context.Context, id int64, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	role, ok := r.s.roles[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	if other := r.s.roleByNameLocked(name); other != nil && other.ID != id {
		return nil, domain.ErrRoleExists
	}
	role.Name = name
	role.UpdatedAt = r.s.now()
	r.s.roles[id] = role
	return &role, nil
}

func (r *RoleRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.roles[id]; !ok {
		return domain.ErrRoleNotFound
	}
	for _, u := range r.s.users {
		if u.RoleID == id {
			return domain.ErrRoleInUse
		}
	}
	delete(r.s.roles, id)
	return nil
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.userByUsernameLocked(user.Username) != nil {
		return nil, domain.ErrUserExists
	}
	if _, ok := r.s.roles[user.RoleID]; !ok {
		return nil, domain.ErrInvalidRole
	}

	r.s.nextUserID++
	now := r.s.now()
	stored := domain.User{
		ID:           r.s.nextUserID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		RoleID:       user.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[stored.ID] = stored
	return r.s.withRoleLocked(stored), nil
}

func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, r.s.withRoleLocked(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.s.withRoleLocked(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u := r.s.userByUsernameLocked(username)
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return r.s.withRoleLocked(*u), nil
}

func (r *UserRepository) Update(_ context.Context, id int64, update domain.UserUpdate) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Username != nil {
		if other := r.s.userByUsernameLocked(*update.Username); other != nil && other.ID != id {
			return nil, domain.ErrUserExists
		}
		u.Username = *update.Username
	}
	if update.RoleID != nil {
		if _, ok := r.s.roles[*update.RoleID]; !ok {
			return nil, domain.ErrInvalidRole
		}
		u.RoleID = *update.RoleID
	}
	if update.PasswordHash != nil {
		u.PasswordHash = *update.PasswordHash
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return r.s.withRoleLocked(u), nil
}

func (r *UserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (s *Store) roleByNameLocked(name string) *domain.Role {
	for _, role := range s.roles {
		if role.Name == name {
			role := role
			return &role
		}
	}
	return nil
}

func (s *Store) userByUsernameLocked(username string) *domain.User {
	for _, u := range s.users {
		if u.Username == username {
			u := u
			return &u
		}
	}
	return nil
}

func (s *Store) withRoleLocked(u domain.User) *domain.User {
	if role, ok := s.roles[u.RoleID]; ok {
		u.Role = &role
	}
	return &u
}
