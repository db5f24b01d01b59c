package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/userrole/auth-api/internal/core/domain"
)

// tokenClaims is the JWT payload: {id, role, iat}. No exp is set, so
// issued tokens stay valid until the signing key changes.
type tokenClaims struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 bearer tokens with a process-wide key.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// Issue returns a signed token carrying the user id and role name.
func (s *TokenService) Issue(userID int64, roleName string) (string, error) {
	claims := tokenClaims{
		ID:   userID,
		Role: roleName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and algorithm and returns the embedded claims.
func (s *TokenService) Verify(token string) (*domain.Claims, error) {
	claims := &tokenClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.ID <= 0 {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Claims{UserID: claims.ID, Role: claims.Role}, nil
}
