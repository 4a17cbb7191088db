package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/api/metrics"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// AuthHandler serves the /api/auth endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=20"`
}

type registerRequest struct {
	Username        string `json:"username"        validate:"required,min=3,max=50"`
	Password        string `json:"password"        validate:"required,min=6,max=20"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	RealName        string `json:"realName"        validate:"required,max=100"`
	Email           string `json:"email"           validate:"omitempty,email,max=100"`
	Phone           string `json:"phone"           validate:"omitempty,max=20"`
	Department      string `json:"department"      validate:"omitempty,max=100"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword"     validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=20"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type loginResponse struct {
	Token           string    `json:"token"`
	TokenType       string    `json:"tokenType"`
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	RealName        string    `json:"realName"`
	Role            string    `json:"role"`
	RoleDescription string    `json:"roleDescription"`
	Department      string    `json:"department,omitempty"`
	ExpiresAt       time.Time `json:"expiresAt"`
	LoginTime       time.Time `json:"loginTime"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type verifyResponse struct {
	Valid            bool      `json:"valid"`
	UserID           string    `json:"userId"`
	Username         string    `json:"username"`
	Role             string    `json:"role"`
	IssuedAt         time.Time `json:"issuedAt"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingSeconds int64     `json:"remainingSeconds"`
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), trimmed(req.Username), req.Password)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}
	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, loginResponse{
		Token:           res.Token,
		TokenType:       res.TokenType,
		UserID:          res.User.ID,
		Username:        res.User.Username,
		RealName:        res.User.RealName,
		Role:            string(res.User.Role),
		RoleDescription: res.User.Role.Description(),
		Department:      res.User.Department,
		ExpiresAt:       res.ExpiresAt,
		LoginTime:       res.LoginTime,
	})
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

// Register creates a new sales account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:        trimmed(req.Username),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		RealName:        trimmed(req.RealName),
		Email:           trimmed(req.Email),
		Phone:           trimmed(req.Phone),
		Department:      trimmed(req.Department),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// UserInfo returns the caller's profile.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/user-info [get]
func (h *AuthHandler) UserInfo(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.authService.UserInfo(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Logout records the logout. Tokens are self-expiring, so nothing is revoked.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	h.authService.Logout(c.Request().Context(), id)
	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

// Refresh exchanges a still-valid token for a new one.
//
// @Summary      Refresh token
// @Tags         auth
// @Produce      json
// @Param        refreshToken  query     string  false  "Token to refresh; defaults to the Authorization header"
// @Success      200           {object}  tokenResponse
// @Failure      401           {object}  map[string]string
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := c.QueryParam("refreshToken")
	if raw == "" {
		raw = c.Request().Header.Get(echo.HeaderAuthorization)
	}
	if trimmed(raw) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refreshToken is required")
	}

	res, err := h.authService.Refresh(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{
		Token:     res.Token,
		TokenType: res.TokenType,
		ExpiresAt: res.ExpiresAt,
	})
}

// ChangePassword updates the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new passwords"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), id, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// CheckUsername reports whether a username is still free.
//
// @Summary      Username availability
// @Tags         auth
// @Produce      json
// @Param        username  query     string  true  "Username"
// @Success      200       {object}  availabilityResponse
// @Router       /api/auth/check-username [get]
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	username := trimmed(c.QueryParam("username"))
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	taken, err := h.authService.UsernameTaken(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availabilityResponse{Available: !taken})
}

// CheckEmail reports whether an email is still free.
//
// @Summary      Email availability
// @Tags         auth
// @Produce      json
// @Param        email  query     string  true  "Email"
// @Success      200    {object}  availabilityResponse
// @Router       /api/auth/check-email [get]
func (h *AuthHandler) CheckEmail(c echo.Context) error {
	email := trimmed(c.QueryParam("email"))
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	taken, err := h.authService.EmailTaken(c.Request().Context(), email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, availabilityResponse{Available: !taken})
}

// Verify validates the bearer token and describes its claims.
//
// @Summary      Verify token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  verifyResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	raw := c.Request().Header.Get(echo.HeaderAuthorization)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	info, err := h.authService.Verify(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse{
		Valid:            true,
		UserID:           info.UserID,
		Username:         info.Username,
		Role:             string(info.Role),
		IssuedAt:         info.IssuedAt,
		ExpiresAt:        info.ExpiresAt,
		RemainingSeconds: int64(info.Remaining / time.Second),
	})
}
