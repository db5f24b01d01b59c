package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

// AuthService implements signup, login and bearer-token resolution.
type AuthService struct {
	users  ports.UserRepository
	roles  ports.RoleRepository
	tokens ports.TokenService
	hasher *PasswordHasher
	cache  ports.IdentityCache
	log    zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	roles ports.RoleRepository,
	tokens ports.TokenService,
	hasher *PasswordHasher,
	cache ports.IdentityCache,
	log zerolog.Logger,
) *AuthService {
	if cache == nil {
		cache = NoopIdentityCache{}
	}
	return &AuthService{
		users:  users,
		roles:  roles,
		tokens: tokens,
		hasher: hasher,
		cache:  cache,
		log:    log,
	}
}

// Signup creates an account with the default role. A missing default role
// fails the whole operation with domain.ErrDefaultRoleMissing.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	role, err := s.roles.FindByName(ctx, domain.DefaultRole.String())
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrDefaultRoleMissing
		}
		return nil, fmt.Errorf("signup: find default role: %w", err)
	}

	user, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		PasswordHash: hash,
		RoleID:       role.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user signed up")
	return user, nil
}

// Login checks credentials and issues a token. Unknown usernames and wrong
// passwords both return domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.burn(password)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		return "", domain.ErrInvalidCredentials
	}

	var roleName string
	if user.Role != nil {
		roleName = user.Role.Name
	}
	token, err := s.tokens.Issue(user.ID, roleName)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token, nil
}

// Authenticate verifies the token and loads the user it names, including
// the user's current role.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	user, err := s.resolve(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return user, nil
}

func (s *AuthService) resolve(ctx context.Context, userID int64) (*domain.User, error) {
	cached, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("identity cache read failed, loading from store")
	} else if ok {
		return cached, nil
	}

	// Stamp before the read: an eviction landing while the row is in flight
	// voids the fill.
	stamp, stampErr := s.cache.Stamp(ctx, userID)
	if stampErr != nil {
		s.log.Warn().Err(stampErr).Int64("user_id", userID).Msg("identity cache stamp failed, skipping fill")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if stampErr == nil {
		filled, err := s.cache.Fill(ctx, user, stamp)
		if err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("identity cache write failed")
		} else if !filled {
			s.log.Debug().Int64("user_id", userID).Msg("identity evicted during load, not cached")
		}
	}
	return user, nil
}
