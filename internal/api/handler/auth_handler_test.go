package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jiang666/visitmanagement2-sub000/internal/api/middleware"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

// stubAuthService implements ports.AuthService; unset hooks fail the test.
type stubAuthService struct {
	t          *testing.T
	loginFn    func(ctx context.Context, username, password string) (*ports.LoginResult, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	refreshFn  func(ctx context.Context, raw string) (*ports.TokenResult, error)
	verifyFn   func(ctx context.Context, raw string) (*ports.TokenInfo, error)
	changeFn   func(ctx context.Context, id domain.Identity, oldPw, newPw, confirm string) error
	userInfoFn func(ctx context.Context, id domain.Identity) (*domain.User, error)
	usernameFn func(ctx context.Context, username string) (bool, error)
	emailFn    func(ctx context.Context, email string) (bool, error)
	loggedOut  []domain.Identity
}

func (s *stubAuthService) unexpected(name string) {
	s.t.Helper()
	s.t.Fatalf("unexpected call to %s", name)
}

func (s *stubAuthService) Authenticate(context.Context, string) (domain.Identity, error) {
	s.unexpected("Authenticate")
	return domain.Identity{}, nil
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if s.loginFn == nil {
		s.unexpected("Login")
	}
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if s.registerFn == nil {
		s.unexpected("Register")
	}
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Refresh(ctx context.Context, raw string) (*ports.TokenResult, error) {
	if s.refreshFn == nil {
		s.unexpected("Refresh")
	}
	return s.refreshFn(ctx, raw)
}

func (s *stubAuthService) Verify(ctx context.Context, raw string) (*ports.TokenInfo, error) {
	if s.verifyFn == nil {
		s.unexpected("Verify")
	}
	return s.verifyFn(ctx, raw)
}

func (s *stubAuthService) Logout(_ context.Context, id domain.Identity) {
	s.loggedOut = append(s.loggedOut, id)
}

func (s *stubAuthService) ChangePassword(ctx context.Context, id domain.Identity, oldPw, newPw, confirm string) error {
	if s.changeFn == nil {
		s.unexpected("ChangePassword")
	}
	return s.changeFn(ctx, id, oldPw, newPw, confirm)
}

func (s *stubAuthService) ValidateCredentials(context.Context, string, string) bool {
	s.unexpected("ValidateCredentials")
	return false
}

func (s *stubAuthService) UserInfo(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if s.userInfoFn == nil {
		s.unexpected("UserInfo")
	}
	return s.userInfoFn(ctx, id)
}

func (s *stubAuthService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	if s.usernameFn == nil {
		s.unexpected("UsernameTaken")
	}
	return s.usernameFn(ctx, username)
}

func (s *stubAuthService) EmailTaken(ctx context.Context, email string) (bool, error) {
	if s.emailFn == nil {
		s.unexpected("EmailTaken")
	}
	return s.emailFn(ctx, email)
}

var alice = domain.Identity{ID: "u-alice", Username: "alice", Role: domain.RoleSales, Department: "X", Active: true}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asIdentity(c echo.Context, id domain.Identity) echo.Context {
	c.Set(middleware.IdentityKey, id)
	return c
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestAuthHandler_Login_Success(t *testing.T) {
	expires := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	stub := &stubAuthService{t: t,
		loginFn: func(_ context.Context, username, password string) (*ports.LoginResult, error) {
			if username != "alice" || password != "secret1" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return &ports.LoginResult{
				Token:     "tok",
				TokenType: "Bearer",
				User:      &domain.User{ID: "u-alice", Username: "alice", RealName: "Alice", Role: domain.RoleSales, Department: "X"},
				ExpiresAt: expires,
				LoginTime: expires.Add(-24 * time.Hour),
			}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/login", `{"username":" alice ","password":"secret1"}`)

	if err := NewAuthHandler(stub).Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "tok" || resp["tokenType"] != "Bearer" || resp["userId"] != "u-alice" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["role"] != "SALES" || resp["roleDescription"] != "Sales" || resp["department"] != "X" {
		t.Fatalf("unexpected role fields: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentialsPropagates(t *testing.T) {
	stub := &stubAuthService{t: t,
		loginFn: func(context.Context, string, string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"username":"alice","password":"nope"}`)

	err := NewAuthHandler(stub).Login(c)
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	stub := &stubAuthService{t: t}
	c, _ := newTestContext(http.MethodPost, "/api/auth/login", `{"username":"alice"}`)

	err := NewAuthHandler(stub).Login(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{t: t,
		registerFn: func(_ context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Username != "bob" || in.ConfirmPassword != "secret1" || in.Email != "bob@example.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u-bob", Username: in.Username, Role: domain.RoleSales, Status: domain.StatusActive}, nil
		},
	}
	body := `{"username":"bob","password":"secret1","confirmPassword":"secret1","realName":"Bob","email":"bob@example.com"}`
	c, rec := newTestContext(http.MethodPost, "/api/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["username"] != "bob" || resp["role"] != "SALES" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
	if _, leaked := resp["PasswordHash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_RejectsShortPassword(t *testing.T) {
	stub := &stubAuthService{t: t}
	body := `{"username":"bob","password":"123","confirmPassword":"123","realName":"Bob"}`
	c, _ := newTestContext(http.MethodPost, "/api/auth/register", body)

	err := NewAuthHandler(stub).Register(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{t: t,
		registerFn: func(context.Context, ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	body := `{"username":"bob","password":"secret1","confirmPassword":"secret1","realName":"Bob"}`
	c, _ := newTestContext(http.MethodPost, "/api/auth/register", body)

	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_UserInfo_RequiresIdentity(t *testing.T) {
	stub := &stubAuthService{t: t}
	c, _ := newTestContext(http.MethodGet, "/api/auth/user-info", "")

	err := NewAuthHandler(stub).UserInfo(c)
	if code := httpCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuthHandler_UserInfo(t *testing.T) {
	stub := &stubAuthService{t: t,
		userInfoFn: func(_ context.Context, id domain.Identity) (*domain.User, error) {
			return &domain.User{ID: id.ID, Username: id.Username, Role: id.Role}, nil
		},
	}
	c, rec := newTestContext(http.MethodGet, "/api/auth/user-info", "")

	if err := NewAuthHandler(stub).UserInfo(asIdentity(c, alice)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"username":"alice"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Logout_AuditsCaller(t *testing.T) {
	stub := &stubAuthService{t: t}
	c, rec := newTestContext(http.MethodPost, "/api/auth/logout", "")

	if err := NewAuthHandler(stub).Logout(asIdentity(c, alice)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(stub.loggedOut) != 1 || stub.loggedOut[0].ID != alice.ID {
		t.Fatalf("expected logout of alice, got %+v", stub.loggedOut)
	}
}

func TestAuthHandler_Refresh_UsesQueryParam(t *testing.T) {
	stub := &stubAuthService{t: t,
		refreshFn: func(_ context.Context, raw string) (*ports.TokenResult, error) {
			if raw != "old-token" {
				t.Fatalf("unexpected token %q", raw)
			}
			return &ports.TokenResult{Token: "new-token", TokenType: "Bearer"}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/api/auth/refresh?refreshToken=old-token", "")

	if err := NewAuthHandler(stub).Refresh(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"token":"new-token"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestAuthHandler_Refresh_ExpiredPropagates(t *testing.T) {
	stub := &stubAuthService{t: t,
		refreshFn: func(context.Context, string) (*ports.TokenResult, error) {
			return nil, domain.ErrTokenExpired
		},
	}
	c, _ := newTestContext(http.MethodPost, "/api/auth/refresh?refreshToken=old", "")

	if err := NewAuthHandler(stub).Refresh(c); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	stub := &stubAuthService{t: t}
	c, _ := newTestContext(http.MethodPost, "/api/auth/refresh", "")

	if code := httpCode(t, NewAuthHandler(stub).Refresh(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	stub := &stubAuthService{t: t,
		changeFn: func(_ context.Context, id domain.Identity, oldPw, newPw, confirm string) error {
			if id.ID != alice.ID || oldPw != "secret1" || newPw != "secret2" || confirm != "secret3" {
				t.Fatalf("unexpected args: %s %s %s %s", id.ID, oldPw, newPw, confirm)
			}
			return domain.ErrPasswordMismatch
		},
	}
	body := `{"oldPassword":"secret1","newPassword":"secret2","confirmPassword":"secret3"}`
	c, _ := newTestContext(http.MethodPost, "/api/auth/change-password", body)

	err := NewAuthHandler(stub).ChangePassword(asIdentity(c, alice))
	if !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthHandler_CheckUsername(t *testing.T) {
	stub := &stubAuthService{t: t,
		usernameFn: func(_ context.Context, username string) (bool, error) {
			return username == "alice", nil
		},
	}

	c, rec := newTestContext(http.MethodGet, "/api/auth/check-username?username=alice", "")
	if err := NewAuthHandler(stub).CheckUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"available":false`) {
		t.Fatalf("expected alice to be taken: %s", rec.Body.String())
	}

	c, rec = newTestContext(http.MethodGet, "/api/auth/check-username?username=zoe", "")
	if err := NewAuthHandler(stub).CheckUsername(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"available":true`) {
		t.Fatalf("expected zoe to be free: %s", rec.Body.String())
	}
}

func TestAuthHandler_CheckEmail_RequiresParam(t *testing.T) {
	stub := &stubAuthService{t: t}
	c, _ := newTestContext(http.MethodGet, "/api/auth/check-email", "")

	if code := httpCode(t, NewAuthHandler(stub).CheckEmail(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	stub := &stubAuthService{t: t,
		verifyFn: func(_ context.Context, raw string) (*ports.TokenInfo, error) {
			if raw != "Bearer tok" {
				t.Fatalf("unexpected raw token %q", raw)
			}
			return &ports.TokenInfo{
				UserID:    "u-alice",
				Username:  "alice",
				Role:      domain.RoleSales,
				IssuedAt:  issued,
				ExpiresAt: issued.Add(time.Hour),
				Remaining: 30 * time.Minute,
			}, nil
		},
	}
	c, rec := newTestContext(http.MethodGet, "/api/auth/verify", "")
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer tok")

	if err := NewAuthHandler(stub).Verify(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp verifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Valid || resp.RemainingSeconds != 1800 || resp.Role != "SALES" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
