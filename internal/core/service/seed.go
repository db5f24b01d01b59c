package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

type seedAccount struct {
	username string
	password string
	role     domain.RoleName
}

var seedAccounts = []seedAccount{
	{username: "admin", password: "admin", role: domain.RoleAdmin},
	{username: "user", password: "user", role: domain.RoleUser},
}

// SeedResult reports which seed rows were created by a Seed call.
type SeedResult struct {
	RolesCreated []string
	UsersCreated []string
}

// Seeder creates the fixed startup roles and accounts. Running it any number
// of times leaves exactly one row for each seed entry.
type Seeder struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	hasher *PasswordHasher
	log    zerolog.Logger
}

func NewSeeder(users ports.UserRepository, roles ports.RoleRepository, hasher *PasswordHasher, log zerolog.Logger) *Seeder {
	return &Seeder{users: users, roles: roles, hasher: hasher, log: log}
}

func (s *Seeder) Seed(ctx context.Context) (*SeedResult, error) {
	result := &SeedResult{}
	roleIDs := make(map[domain.RoleName]int64, len(domain.SeedRoles))

	for _, name := range domain.SeedRoles {
		role, created, err := s.ensureRole(ctx, name.String())
		if err != nil {
			return nil, fmt.Errorf("seed role %s: %w", name, err)
		}
		roleIDs[name] = role.ID
		if created {
			result.RolesCreated = append(result.RolesCreated, role.Name)
		}
	}

	for _, acct := range seedAccounts {
		roleID, ok := roleIDs[acct.role]
		if !ok {
			return nil, fmt.Errorf("seed user %s: %w", acct.username, domain.ErrDefaultRoleMissing)
		}
		created, err := s.ensureUser(ctx, acct, roleID)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", acct.username, err)
		}
		if created {
			result.UsersCreated = append(result.UsersCreated, acct.username)
		}
	}

	s.log.Info().
		Strs("roles_created", result.RolesCreated).
		Strs("users_created", result.UsersCreated).
		Msg("bootstrap seed complete")
	return result, nil
}

func (s *Seeder) ensureRole(ctx context.Context, name string) (*domain.Role, bool, error) {
	role, err := s.roles.FindByName(ctx, name)
	if err == nil {
		return role, false, nil
	}
	if !errors.Is(err, domain.ErrRoleNotFound) {
		return nil, false, err
	}

	role, err = s.roles.Create(ctx, name)
	if errors.Is(err, domain.ErrRoleExists) {
		// Lost a race with another writer; the row is there now.
		role, err = s.roles.FindByName(ctx, name)
		return role, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return role, true, nil
}

func (s *Seeder) ensureUser(ctx context.Context, acct seedAccount, roleID int64) (bool, error) {
	_, err := s.users.FindByUsername(ctx, acct.username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	hash, err := s.hasher.Hash(acct.password)
	if err != nil {
		return false, err
	}
	_, err = s.users.Create(ctx, &domain.User{Username: acct.username, PasswordHash: hash, RoleID: roleID})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
