package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userrole/auth-api/internal/core/ports"
)

// RoleHandler handles HTTP requests for role administration.
type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

// Create handles POST /roles.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        body  body      roleRequest  true  "Role name"
// @Success      201   {object}  domain.Role
// @Failure      400   {object}  messageResponse
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.service.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// List handles GET /roles.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Success      200  {array}   domain.Role
// @Failure      500  {object}  messageResponse
// @Router       /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	roles, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, roles)
}

// Get handles GET /roles/:id.
//
// @Summary      Get a role by id
// @Tags         roles
// @Produce      json
// @Param        id   path      int  true  "Role id"
// @Success      200  {object}  domain.Role
// @Failure      400  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /roles/{id} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	role, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Update handles PUT /roles/:id.
//
// @Summary      Rename a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Role id"
// @Param        body  body      roleRequest  true  "New name"
// @Success      200   {object}  domain.Role
// @Failure      400   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /roles/{id} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req roleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := h.service.Update(c.Request().Context(), id, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Delete handles DELETE /roles/:id.
//
// @Summary      Delete a role
// @Tags         roles
// @Param        id   path  int  true  "Role id"
// @Success      204
// @Failure      400  {object}  messageResponse
// @Failure      404  {object}  messageResponse
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
