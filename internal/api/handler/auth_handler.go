package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userrole/auth-api/internal/api/metrics"
	"github.com/userrole/auth-api/internal/core/domain"
	"github.com/userrole/auth-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Signup creates a new account with the default role.
//
// @Summary      Sign up
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Account credentials"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req credentialsRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.SignupsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	if _, err := h.authService.Signup(c.Request().Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, domain.ErrDefaultRoleMissing) {
			metrics.SignupsTotal.WithLabelValues(metrics.ResultError).Inc()
			return err
		}
		metrics.SignupsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, signupFailure(err)).SetInternal(err)
	}

	metrics.SignupsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusCreated, messageResponse{Message: "User created successfully"})
}

// signupFailure keeps store internals out of the 400 body.
func signupFailure(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return "username and password are required"
	default:
		return "could not create user"
	}
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      credentialsRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalidCredentials).Inc()
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: token})
}

// Me returns the authenticated user with its role.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  messageResponse
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
