package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userrole/auth-api/internal/api/metrics"
	"github.com/userrole/auth-api/internal/core/domain"
)

// RequireRole enforces that the authenticated user holds the given role.
// It must run after Authenticate. Users without the role get 403.
func RequireRole(role domain.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(UserKey).(*domain.User)
			if !user.HasRole(role) {
				metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionForbidden).Inc()
				return echo.NewHTTPError(http.StatusForbidden, "Access denied")
			}
			metrics.GuardDecisionsTotal.WithLabelValues(metrics.DecisionAllowed).Inc()
			return next(c)
		}
	}
}
