package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	// Create inserts a role. Returns domain.ErrRoleExists on a duplicate name.
	Create(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// Update renames a role. Returns domain.ErrRoleNotFound when no row was affected.
	Update(ctx context.Context, id int64, name string) (*domain.Role, error)
	// Delete removes a role. Returns domain.ErrRoleInUse while users still reference it.
	Delete(ctx context.Context, id int64) error
}
