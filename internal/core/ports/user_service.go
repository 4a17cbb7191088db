package ports

import (
	"context"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// CreateUserInput is an administrator-created account.
type CreateUserInput struct {
	Username   string
	Password   string
	RealName   string
	Email      string
	Phone      string
	Role       domain.Role
	Department string
}

// ProfileInput carries the self-editable account fields.
type ProfileInput struct {
	RealName  string
	Email     string
	Phone     string
	AvatarURL string
}

// UserService manages user accounts.
type UserService interface {
	// List ignores filter.Scope and applies the caller's scope instead.
	List(ctx context.Context, id domain.Identity, filter UserFilter) (*Page[*domain.User], error)
	Get(ctx context.Context, id domain.Identity, userID string) (*domain.User, error)
	Create(ctx context.Context, id domain.Identity, in CreateUserInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, id domain.Identity, userID string, in ProfileInput) (*domain.User, error)
	SetStatus(ctx context.Context, id domain.Identity, userID string, status domain.UserStatus) (*domain.User, error)
	Assign(ctx context.Context, id domain.Identity, userID string, role domain.Role, department string) (*domain.User, error)
	ResetPassword(ctx context.Context, id domain.Identity, userID, newPassword string) error
	Delete(ctx context.Context, id domain.Identity, userID string) error
}
