package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/token"
)

const tokenTypeBearer = "Bearer"

var _ ports.AuthService = (*AuthService)(nil)

// AuthService implements login, registration and the token lifecycle.
type AuthService struct {
	users      ports.UserRepository
	tx         ports.TxManager
	codec      *token.Codec
	validator  *token.Validator
	tokenTTL   time.Duration
	throttle   ports.LoginThrottle
	audit      ports.AuditSink
	bcryptCost int
	log        zerolog.Logger

	// absentHash is compared against when the username is unknown so that
	// every failed login pays for one bcrypt comparison.
	absentHash []byte
	compare    func(hash, password []byte) error
}

// AuthOption configures optional AuthService collaborators.
type AuthOption func(*AuthService)

// WithLoginThrottle enables per-username lockout after repeated failures.
func WithLoginThrottle(t ports.LoginThrottle) AuthOption {
	return func(s *AuthService) { s.throttle = t }
}

// WithAuditSink sends authentication events to sink.
func WithAuditSink(sink ports.AuditSink) AuthOption {
	return func(s *AuthService) { s.audit = sink }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func NewAuthService(
	users ports.UserRepository,
	tx ports.TxManager,
	codec *token.Codec,
	tokenTTL time.Duration,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		users:      users,
		tx:         tx,
		codec:      codec,
		validator:  token.NewValidator(codec),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		log:        log,
		compare:    bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	if err != nil {
		hash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	}
	s.absentHash = hash
	return s
}

// Login verifies the credentials and issues a token. Unknown usernames,
// wrong passwords and inactive accounts all yield
// domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.checkThrottle(ctx, username); err != nil {
		return nil, err
	}

	var (
		result *ports.LoginResult
		reason string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByUsername(ctx, username)
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = s.compare(s.absentHash, []byte(password))
			reason = "unknown user"
			return domain.ErrInvalidCredentials
		}
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		if s.compare([]byte(user.PasswordHash), []byte(password)) != nil {
			reason = "wrong password"
			return domain.ErrInvalidCredentials
		}
		if !user.Active() {
			reason = domain.ErrAccountInactive.Error()
			return domain.ErrInvalidCredentials
		}

		now := s.codec.Now().UTC()
		raw, claims, err := s.codec.Encode(subjectOf(user, user.Role), now, s.tokenTTL)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
			return fmt.Errorf("login: record last login: %w", err)
		}
		user.LastLoginAt = &now

		result = &ports.LoginResult{
			Token:     raw,
			TokenType: tokenTypeBearer,
			User:      user,
			ExpiresAt: claims.Expiry(),
			LoginTime: now,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.loginFailed(ctx, username, reason)
		}
		return nil, err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to reset login throttle")
		}
	}
	s.record(ctx, domain.EventLoginSucceeded, username, result.User.ID, "")
	s.log.Info().Str("username", username).Str("user_id", result.User.ID).Msg("login succeeded")
	return result, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, username string) error {
	if s.throttle == nil {
		return nil
	}
	ok, err := s.throttle.Allowed(ctx, username)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("login throttle unavailable, allowing attempt")
		return nil
	}
	if !ok {
		s.record(ctx, domain.EventLoginFailed, username, "", "locked out")
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, username, reason string) {
	if s.throttle != nil {
		if err := s.throttle.Failed(ctx, username); err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("failed to count login failure")
		}
	}
	s.record(ctx, domain.EventLoginFailed, username, "", reason)
	s.log.Info().Str("username", username).Str("reason", reason).Msg("login failed")
}

// Register creates an active sales account.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Password == "" || in.RealName == "" {
		return nil, fmt.Errorf("register: %w", domain.ErrInvalidInput)
	}
	if in.Password != in.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	var created *domain.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		taken, err := s.users.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return fmt.Errorf("register: %w", err)
		}
		if taken {
			return domain.ErrUserExists
		}
		if in.Email != "" {
			taken, err = s.users.ExistsByEmail(ctx, in.Email)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			if taken {
				return domain.ErrEmailExists
			}
		}

		now := s.codec.Now().UTC()
		created, err = s.users.Create(ctx, &domain.User{
			ID:           uuid.NewString(),
			Username:     in.Username,
			PasswordHash: string(hash),
			RealName:     in.RealName,
			Email:        in.Email,
			Phone:        in.Phone,
			Role:         domain.RoleSales,
			Department:   in.Department,
			Status:       domain.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.EventRegistered, created.Username, created.ID, "")
	s.log.Info().Str("username", created.Username).Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Refresh exchanges a still-valid token for a new one carrying the same
// role claim. Expired tokens cannot be refreshed.
func (s *AuthService) Refresh(ctx context.Context, oldToken string) (*ports.TokenResult, error) {
	claims, err := s.validator.Validate(oldToken)
	if err != nil {
		s.record(ctx, domain.EventRefreshRejected, "", "", err.Error())
		return nil, fmt.Errorf("refresh: %w", domain.ErrInvalidToken)
	}

	var result *ports.TokenResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, claims.Subject)
		if errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("refresh: account gone: %w", domain.ErrInvalidToken)
		}
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		if !user.Active() {
			return fmt.Errorf("refresh: account inactive: %w", domain.ErrInvalidToken)
		}

		raw, next, err := s.codec.Encode(subjectOf(user, claims.Role), s.codec.Now().UTC(), s.tokenTTL)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		result = &ports.TokenResult{Token: raw, TokenType: tokenTypeBearer, ExpiresAt: next.Expiry()}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			s.record(ctx, domain.EventRefreshRejected, claims.Username, claims.Subject, err.Error())
		}
		return nil, err
	}

	s.record(ctx, domain.EventTokenRefreshed, claims.Username, claims.Subject, "")
	return result, nil
}

// Verify validates rawToken and describes it.
func (s *AuthService) Verify(_ context.Context, rawToken string) (*ports.TokenInfo, error) {
	claims, err := s.validator.Validate(rawToken)
	if err != nil {
		return nil, err
	}
	return &ports.TokenInfo{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Role:      claims.Role,
		IssuedAt:  claims.Issued(),
		ExpiresAt: claims.Expiry(),
		Remaining: claims.Remaining(s.codec.Now()),
	}, nil
}

// Authenticate validates rawToken and loads the caller. The role comes
// from the token; the department is read from the store so scope checks
// see the current assignment.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (domain.Identity, error) {
	claims, err := s.validator.Validate(rawToken)
	if err != nil {
		return domain.Identity{}, err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Identity{}, fmt.Errorf("authenticate: account gone: %w", domain.ErrInvalidToken)
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("authenticate: %w", err)
	}
	if !user.Active() {
		return domain.Identity{}, fmt.Errorf("authenticate: account inactive: %w", domain.ErrInvalidToken)
	}

	id := user.Identity()
	id.Role = claims.Role
	return id, nil
}

// Logout only leaves a trace; tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, id domain.Identity) {
	s.record(ctx, domain.EventLogout, id.Username, id.ID, "")
	s.log.Info().Str("username", id.Username).Str("user_id", id.ID).Msg("logout")
}

// ChangePassword replaces the caller's password. Tokens already issued
// stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, id domain.Identity, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return domain.ErrPasswordMismatch
	}
	if newPassword == "" {
		return fmt.Errorf("change password: %w", domain.ErrInvalidInput)
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, id.ID)
		if err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
			return domain.ErrWrongOldPassword
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
		if err != nil {
			return fmt.Errorf("change password: hash: %w", err)
		}
		return s.users.SetPasswordHash(ctx, user.ID, string(hash), s.codec.Now().UTC())
	})
	if err != nil {
		return err
	}

	s.record(ctx, domain.EventPasswordChanged, id.Username, id.ID, "")
	s.log.Info().Str("username", id.Username).Str("user_id", id.ID).Msg("password changed")
	return nil
}

// ValidateCredentials reports whether password matches username. It has no
// side effects.
func (s *AuthService) ValidateCredentials(ctx context.Context, username, password string) bool {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// UserInfo returns the caller's stored profile.
func (s *AuthService) UserInfo(ctx context.Context, id domain.Identity) (*domain.User, error) {
	return s.users.FindByID(ctx, id.ID)
}

func (s *AuthService) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.users.ExistsByUsername(ctx, strings.TrimSpace(username))
}

func (s *AuthService) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.users.ExistsByEmail(ctx, strings.TrimSpace(email))
}

func (s *AuthService) record(ctx context.Context, typ domain.AuthEventType, username, userID, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuthEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		Username:   username,
		UserID:     userID,
		Reason:     reason,
		OccurredAt: s.codec.Now().UTC(),
	})
}

func subjectOf(u *domain.User, role domain.Role) token.Subject {
	return token.Subject{ID: u.ID, Username: u.Username, Role: role}
}
