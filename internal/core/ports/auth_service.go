package ports

import (
	"context"

	"github.com/userrole/auth-api/internal/core/domain"
)

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	Issue(userID int64, roleName string) (string, error)
	// Verify returns domain.ErrInvalidToken for malformed, unsigned or
	// tampered tokens.
	Verify(token string) (*domain.Claims, error)
}

// AuthService covers signup, login and bearer-token resolution.
type AuthService interface {
	Signup(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	// Authenticate resolves a bearer token to the user it was issued for.
	// Returns domain.ErrUnauthenticated when the token is bad or the user is gone.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
