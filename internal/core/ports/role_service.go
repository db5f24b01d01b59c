package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// RoleService defines use-case operations for roles.
type RoleService interface {
	Create(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Get(ctx context.Context, id int64) (*domain.Role, error)
	Update(ctx context.Context, id int64, name string) (*domain.Role, error)
	Delete(ctx context.Context, id int64) error
}
