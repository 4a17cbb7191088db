// Package seed provisions the default administrator and optional users
// listed in a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

const (
	AdminUsername        = "admin"
	adminRealName        = "超级管理员"
	adminDepartment      = "系统"
	DefaultAdminPassword = "123456"
)

type Seeder struct {
	users ports.UserRepository
	cost  int
	log   zerolog.Logger
}

func NewSeeder(users ports.UserRepository, cost int, log zerolog.Logger) *Seeder {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Seeder{users: users, cost: cost, log: log}
}

// EnsureAdmin creates the admin account when no user of that name exists.
// An existing admin is never touched.
func (s *Seeder) EnsureAdmin(ctx context.Context, password string) error {
	if password == "" {
		password = DefaultAdminPassword
	}
	created, err := s.ensure(ctx, seedUser{
		Username:   AdminUsername,
		Password:   password,
		RealName:   adminRealName,
		Role:       domain.RoleAdmin,
		Department: adminDepartment,
	})
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		ev := s.log.Info()
		if password == DefaultAdminPassword {
			ev = s.log.Warn()
		}
		ev.Str("username", AdminUsername).Msg("default admin account created, change its password")
	}
	return nil
}

type seedUser struct {
	Username   string      `yaml:"username"`
	Password   string      `yaml:"password"`
	RealName   string      `yaml:"realName"`
	Email      string      `yaml:"email"`
	Phone      string      `yaml:"phone"`
	Role       domain.Role `yaml:"role"`
	Department string      `yaml:"department"`
}

type usersFile struct {
	Users []seedUser `yaml:"users"`
}

// SeedFromFile creates every user in the YAML file at path that does not
// exist yet and returns how many were created.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	return s.Seed(ctx, data)
}

// Seed is SeedFromFile on an in-memory document.
func (s *Seeder) Seed(ctx context.Context, data []byte) (int, error) {
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return 0, fmt.Errorf("parse seed file: %w", err)
	}

	n := 0
	for _, u := range uf.Users {
		if u.Username == "" || u.Password == "" {
			s.log.Warn().Str("username", u.Username).Msg("seed entry without username or password skipped")
			continue
		}
		if u.Role == "" {
			u.Role = domain.RoleSales
		}
		role, ok := domain.ParseRole(string(u.Role))
		if !ok {
			return n, fmt.Errorf("seed user %s: role %q: %w", u.Username, u.Role, domain.ErrInvalidInput)
		}
		u.Role = role
		created, err := s.ensure(ctx, u)
		if err != nil {
			return n, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if created {
			n++
		}
	}
	s.log.Info().Int("created", n).Int("entries", len(uf.Users)).Msg("users seeded")
	return n, nil
}

func (s *Seeder) ensure(ctx context.Context, u seedUser) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, u.Username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return false, err
	}
	if u.RealName == "" {
		u.RealName = u.Username
	}

	now := time.Now().UTC()
	_, err = s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     u.Username,
		PasswordHash: string(hash),
		RealName:     u.RealName,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         u.Role,
		Department:   u.Department,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	return err == nil, err
}
