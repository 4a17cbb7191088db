package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/access"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

var _ ports.UserService = (*UserService)(nil)

// UserService manages accounts. Account administration is reserved to
// administrators; everyone may edit the profiles in their scope.
type UserService struct {
	repo       ports.UserRepository
	guard      *access.Guard
	bcryptCost int
	logger     zerolog.Logger
}

func NewUserService(repo ports.UserRepository, guard *access.Guard, bcryptCost int, logger zerolog.Logger) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, guard: guard, bcryptCost: bcryptCost, logger: logger}
}

func (s *UserService) List(ctx context.Context, id domain.Identity, filter ports.UserFilter) (*ports.Page[*domain.User], error) {
	filter.Scope = s.guard.ReadScope(id)
	filter.Page, filter.Limit = ports.NormalizePage(filter.Page, filter.Limit)

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ports.NewPage(items, total, filter.Page, filter.Limit), nil
}

func (s *UserService) Get(ctx context.Context, id domain.Identity, userID string) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertReadable(u.Ownership(), id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, id domain.Identity, in ports.CreateUserInput) (*domain.User, error) {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return nil, err
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" || in.RealName == "" {
		return nil, fmt.Errorf("create user: %w", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("create user: role %q: %w", in.Role, domain.ErrInvalidInput)
	}
	if in.Email != "" {
		taken, err := s.repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrEmailExists
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("create user: hash: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: string(hash),
		RealName:     in.RealName,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
		Department:   in.Department,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Str("by", id.ID).Msg("user created")
	return created, nil
}

// UpdateProfile edits contact details. Only the account holder and
// administrators may do so. Role, department and status are administrative
// and changed through Assign and SetStatus.
func (s *UserService) UpdateProfile(ctx context.Context, id domain.Identity, userID string, in ports.ProfileInput) (*domain.User, error) {
	if userID != id.ID {
		if err := s.guard.AssertAdminAction(id); err != nil {
			return nil, err
		}
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if userID == id.ID {
		if err := s.guard.AssertMutable(u.Ownership(), id, access.ActionUpdate); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(in.RealName) == "" {
		return nil, fmt.Errorf("real name is required: %w", domain.ErrInvalidInput)
	}
	if in.Email != "" && in.Email != u.Email {
		taken, err := s.repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrEmailExists
		}
	}

	u.RealName = strings.TrimSpace(in.RealName)
	u.Email = in.Email
	u.Phone = in.Phone
	u.AvatarURL = in.AvatarURL
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *UserService) SetStatus(ctx context.Context, id domain.Identity, userID string, status domain.UserStatus) (*domain.User, error) {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("status %q: %w", status, domain.ErrInvalidInput)
	}
	if userID == id.ID && status != domain.StatusActive {
		return nil, fmt.Errorf("cannot deactivate own account: %w", domain.ErrInvalidInput)
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Str("status", string(status)).Str("by", id.ID).Msg("user status changed")
	return u, nil
}

// Assign changes a user's role and department. Records the user already
// owns keep the department they were assigned under.
func (s *UserService) Assign(ctx context.Context, id domain.Identity, userID string, role domain.Role, department string) (*domain.User, error) {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrInvalidInput)
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.Department = department
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("assign user: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Str("role", string(role)).Str("department", department).Str("by", id.ID).Msg("user reassigned")
	return u, nil
}

func (s *UserService) ResetPassword(ctx context.Context, id domain.Identity, userID, newPassword string) error {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return err
	}
	if newPassword == "" {
		return fmt.Errorf("reset password: %w", domain.ErrInvalidInput)
	}
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("reset password: hash: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, u.ID, string(hash), time.Now().UTC()); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Str("by", id.ID).Msg("password reset")
	return nil
}

func (s *UserService) Delete(ctx context.Context, id domain.Identity, userID string) error {
	if err := s.guard.AssertAdminAction(id); err != nil {
		return err
	}
	if userID == id.ID {
		return fmt.Errorf("cannot delete own account: %w", domain.ErrInvalidInput)
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", userID).Str("by", id.ID).Msg("user deleted")
	return nil
}
