package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// UserHandler handles account administration and profile edits.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type createUserRequest struct {
	Username   string `json:"username"   validate:"required,min=3,max=50"`
	Password   string `json:"password"   validate:"required,min=6,max=20"`
	RealName   string `json:"realName"   validate:"required,max=100"`
	Email      string `json:"email"      validate:"omitempty,email,max=100"`
	Phone      string `json:"phone"      validate:"omitempty,max=20"`
	Role       string `json:"role"       validate:"required,oneof=ADMIN MANAGER SALES"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

type profileRequest struct {
	RealName  string `json:"realName"  validate:"required,max=100"`
	Email     string `json:"email"     validate:"omitempty,email,max=100"`
	Phone     string `json:"phone"     validate:"omitempty,max=20"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,max=500"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

type assignRequest struct {
	Role       string `json:"role"       validate:"required,oneof=ADMIN MANAGER SALES"`
	Department string `json:"department" validate:"omitempty,max=100"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=6,max=20"`
}

// List handles GET /api/users.
//
// @Summary      List users visible to the caller
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        keyword     query     string  false  "Username or real name contains"
// @Param        role        query     string  false  "ADMIN, MANAGER or SALES"
// @Param        status      query     string  false  "ACTIVE or INACTIVE"
// @Param        department  query     string  false  "Department"
// @Param        page        query     int     false  "1-based page"
// @Param        size        query     int     false  "Page size (max 100)"
// @Success      200         {object}  ports.Page[domain.User]
// @Router       /api/users [get]
func (h *UserHandler) List(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	page, size := pageParams(c)
	result, err := h.service.List(c.Request().Context(), id, ports.UserFilter{
		Search:     trimmed(c.QueryParam("keyword")),
		Role:       domain.Role(c.QueryParam("role")),
		Status:     domain.UserStatus(c.QueryParam("status")),
		Department: c.QueryParam("department"),
		Page:       page,
		Limit:      size,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Get handles GET /api/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.Get(c.Request().Context(), id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create handles POST /api/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "Account"
// @Success      201   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Create(c.Request().Context(), id, ports.CreateUserInput{
		Username:   trimmed(req.Username),
		Password:   req.Password,
		RealName:   trimmed(req.RealName),
		Email:      trimmed(req.Email),
		Phone:      trimmed(req.Phone),
		Role:       domain.Role(req.Role),
		Department: trimmed(req.Department),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// UpdateProfile handles PUT /api/users/:id.
//
// @Summary      Update a user's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "User ID"
// @Param        body  body      profileRequest  true  "Profile"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), id, c.Param("id"), ports.ProfileInput{
		RealName:  trimmed(req.RealName),
		Email:     trimmed(req.Email),
		Phone:     trimmed(req.Phone),
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetStatus handles PATCH /api/users/:id/status.
//
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "User ID"
// @Param        body  body      statusRequest  true  "Status"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Router       /api/users/{id}/status [patch]
func (h *UserHandler) SetStatus(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.SetStatus(c.Request().Context(), id, c.Param("id"), domain.UserStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Assign handles PATCH /api/users/:id/role.
//
// @Summary      Change a user's role and department
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "User ID"
// @Param        body  body      assignRequest  true  "Role and department"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  map[string]string
// @Router       /api/users/{id}/role [patch]
func (h *UserHandler) Assign(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.Assign(c.Request().Context(), id, c.Param("id"), domain.Role(req.Role), trimmed(req.Department))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ResetPassword handles POST /api/users/:id/reset-password.
//
// @Summary      Reset a user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "User ID"
// @Param        body  body      resetPasswordRequest  true  "New password"
// @Success      200   {object}  messageResponse
// @Failure      403   {object}  map[string]string
// @Router       /api/users/{id}/reset-password [post]
func (h *UserHandler) ResetPassword(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ResetPassword(c.Request().Context(), id, c.Param("id"), req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password reset"})
}

// Delete handles DELETE /api/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id  path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Router       /api/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
