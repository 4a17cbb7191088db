package ports

import (
	"context"
	"time"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// RegisterInput is a self-service sign-up request.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	RealName        string
	Email           string
	Phone           string
	Department      string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	TokenType string
	User      *domain.User
	ExpiresAt time.Time
	LoginTime time.Time
}

// TokenResult is a freshly issued token.
type TokenResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
}

// TokenInfo describes a validated token.
type TokenInfo struct {
	UserID    string
	Username  string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
	Remaining time.Duration
}

// Authenticator resolves a bearer token into the caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (domain.Identity, error)
}

// AuthService covers login, token lifecycle and self-service account
// operations.
type AuthService interface {
	Authenticator
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Refresh(ctx context.Context, oldToken string) (*TokenResult, error)
	Verify(ctx context.Context, rawToken string) (*TokenInfo, error)
	Logout(ctx context.Context, id domain.Identity)
	ChangePassword(ctx context.Context, id domain.Identity, oldPassword, newPassword, confirmPassword string) error
	ValidateCredentials(ctx context.Context, username, password string) bool
	UserInfo(ctx context.Context, id domain.Identity) (*domain.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}
