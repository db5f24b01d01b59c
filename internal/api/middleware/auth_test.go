package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/userrole/auth-api/internal/core/domain"
)

type stubAuthService struct {
	authenticateFn func(ctx context.Context, token string) (*domain.User, error)
}

func (s *stubAuthService) Signup(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubAuthService) Login(context.Context, string, string) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubAuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	return s.authenticateFn(ctx, token)
}

func runAuth(t *testing.T, header string, stub *stubAuthService, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := Authenticate(stub)(next)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func mustNotReach(t *testing.T) echo.HandlerFunc {
	return func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	alice := &domain.User{ID: 7, Username: "alice", Role: &domain.Role{ID: 2, Name: "ROLE_USER"}}
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, token string) (*domain.User, error) {
			if token != "good-token" {
				t.Fatalf("unexpected token %q", token)
			}
			return alice, nil
		},
	}

	called := false
	rec := runAuth(t, "Bearer good-token", stub, func(c echo.Context) error {
		called = true
		if c.Get(UserKey) != alice {
			t.Fatalf("user not set in context")
		}
		return c.NoContent(http.StatusOK)
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_SchemeIsCaseInsensitive(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, token string) (*domain.User, error) {
			return &domain.User{ID: 1}, nil
		},
	}

	rec := runAuth(t, "bearer tok", stub, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Token abc"},
		{"no token", "Bearer "},
		{"scheme only", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthService{
				authenticateFn: func(ctx context.Context, token string) (*domain.User, error) {
					t.Fatalf("service should not be called")
					return nil, nil
				},
			}
			rec := runAuth(t, tt.header, stub, mustNotReach(t))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthenticate_InvalidOrVanished(t *testing.T) {
	for _, cause := range []error{domain.ErrInvalidToken, domain.ErrUserNotFound} {
		t.Run(cause.Error(), func(t *testing.T) {
			stub := &stubAuthService{
				authenticateFn: func(ctx context.Context, token string) (*domain.User, error) {
					return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, cause)
				},
			}
			rec := runAuth(t, "Bearer whatever", stub, mustNotReach(t))
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuthenticate_StoreFailureIsNotUnauthorized(t *testing.T) {
	stub := &stubAuthService{
		authenticateFn: func(ctx context.Context, token string) (*domain.User, error) {
			return nil, errors.New("db down")
		},
	}
	rec := runAuth(t, "Bearer whatever", stub, mustNotReach(t))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
