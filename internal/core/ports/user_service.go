package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// CreateUserInput is the DTO for administrative user creation.
// A zero RoleID assigns the default role.
type CreateUserInput struct {
	Username string
	Password string
	RoleID   int64
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Password *string
	RoleID   *int64
}

// UserService defines use-case operations for users.
type UserService interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
