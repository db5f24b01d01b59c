package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

// UserService is the pass-through for administrative user CRUD. Passwords
// are hashed before they reach the store.
type UserService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher *PasswordHasher
	cache  ports.IdentityCache
	log    zerolog.Logger
}

func NewUserService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	hasher *PasswordHasher,
	cache ports.IdentityCache,
	log zerolog.Logger,
) *UserService {
	if cache == nil {
		cache = NoopIdentityCache{}
	}
	return &UserService{users: users, roles: roles, hasher: hasher, cache: cache, log: log}
}

func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	roleID := in.RoleID
	if roleID == 0 {
		role, err := s.roles.FindByName(ctx, domain.DefaultRole.String())
		if err != nil {
			if errors.Is(err, domain.ErrRoleNotFound) {
				return nil, domain.ErrDefaultRoleMissing
			}
			return nil, fmt.Errorf("create user: find default role: %w", err)
		}
		roleID = role.ID
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		RoleID:       roleID,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Int64("role_id", user.RoleID).Msg("user created")
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	update := domain.UserUpdate{Username: in.Username, RoleID: in.RoleID}
	if update.Username != nil && *update.Username == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, domain.ErrInvalidInput
		}
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("update user %d: %w", id, err)
		}
		update.PasswordHash = &hash
	}
	if update.Empty() {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	s.evict(ctx, id)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	s.evict(ctx, id)
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) evict(ctx context.Context, id int64) {
	if err := s.cache.Evict(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("user_id", id).Msg("identity cache evict failed")
	}
}
