package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Every read returns the user with its Role resolved.
type UserRepository interface {
	// Create inserts a user. Returns domain.ErrUserExists on a duplicate
	// username and domain.ErrInvalidRole when RoleID does not exist.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Update applies a partial update. Returns domain.ErrUserNotFound when no
	// row was affected.
	Update(ctx context.Context, id int64, update domain.UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
