package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

// RoleService is the pass-through for role CRUD.
type RoleService struct {
	roles ports.RoleRepository
	cache ports.IdentityCache
	log   zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, cache ports.IdentityCache, log zerolog.Logger) *RoleService {
	if cache == nil {
		cache = NoopIdentityCache{}
	}
	return &RoleService{roles: roles, cache: cache, log: log}
}

func (s *RoleService) Create(ctx context.Context, name string) (*domain.Role, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	role, err := s.roles.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	s.log.Info().Int64("role_id", role.ID).Str("name", role.Name).Msg("role created")
	return role, nil
}

func (s *RoleService) List(ctx context.Context) ([]*domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *RoleService) Get(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}
	return role, nil
}

// Update renames a role. Cached identities carry the old name, so the whole
// identity cache is dropped.
func (s *RoleService) Update(ctx context.Context, id int64, name string) (*domain.Role, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	role, err := s.roles.Update(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("update role %d: %w", id, err)
	}
	if err := s.cache.EvictAll(ctx); err != nil {
		s.log.Warn().Err(err).Int64("role_id", id).Msg("identity cache flush failed")
	}
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id int64) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete role %d: %w", id, err)
	}
	s.log.Info().Int64("role_id", id).Msg("role deleted")
	return nil
}
