package ports

import (
	"context"
	"time"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

// UserFilter carries the query parameters for listing user accounts.
// Scope is always set by the service layer from the caller's identity.
type UserFilter struct {
	Scope      domain.Scope
	Search     string // optional: partial match on username or real name
	Role       domain.Role
	Status     domain.UserStatus
	Department string
	Page       int // 1-based
	Limit      int
}

// UserRepository is the credential store.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts user and returns the stored copy. Duplicate usernames
	// yield domain.ErrUserExists, duplicate emails domain.ErrEmailExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id, hash string, at time.Time) error
	// Update overwrites profile, role and status fields. The password hash
	// and last-login timestamp are left alone.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
}
