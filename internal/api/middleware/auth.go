package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/userrole/auth-api/internal/api/metrics"
	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

// UserKey is the echo.Context key holding the authenticated *domain.User.
const UserKey = "user"

// Authenticate validates the bearer token, loads the user it names and
// injects it into the context. Any failure, including a user that no longer
// exists, ends the request with 401.
func Authenticate(authService ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized("missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized("invalid authorization header")
			}

			user, err := authService.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return unauthorized("invalid token")
				}
				return err
			}

			metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionAuthenticated).Inc()
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

func unauthorized(msg string) error {
	metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionUnauthenticated).Inc()
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
