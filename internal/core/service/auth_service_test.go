package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/token"
)

type fakeClock struct{ at time.Time }

func (c *fakeClock) Now() time.Time { return c.at }

type authFixture struct {
	svc      *AuthService
	repo     *stubUserRepo
	tx       *stubTx
	sink     *recordingSink
	throttle *stubThrottle
	clock    *fakeClock
	codec    *token.Codec
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func newAuthFixture(t *testing.T, users ...*domain.User) *authFixture {
	t.Helper()
	clock := &fakeClock{at: testStart}
	codec, err := token.NewCodec([]byte("unit-test-signing-secret-unit-test-signing-secret"), token.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	f := &authFixture{
		repo:     newStubUserRepo(users...),
		tx:       &stubTx{},
		sink:     &recordingSink{},
		throttle: newStubThrottle(3),
		clock:    clock,
		codec:    codec,
	}
	f.svc = NewAuthService(f.repo, f.tx, codec, time.Hour, discardLogger,
		WithAuditSink(f.sink),
		WithLoginThrottle(f.throttle),
		WithBcryptCost(bcrypt.MinCost),
	)
	return f
}

func alice(t *testing.T) *domain.User {
	u := userFor(aliceID)
	u.PasswordHash = hashOf(t, "s3cret!")
	return u
}

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthFixture(t, alice(t))

	res, err := f.svc.Login(context.Background(), "alice", "s3cret!")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.TokenType != "Bearer" {
		t.Errorf("unexpected token type %q", res.TokenType)
	}
	if !res.ExpiresAt.Equal(testStart.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", res.ExpiresAt, testStart.Add(time.Hour))
	}
	if !res.LoginTime.Equal(testStart) {
		t.Errorf("loginTime = %v", res.LoginTime)
	}

	claims, err := f.codec.Decode(res.Token)
	if err != nil {
		t.Fatalf("issued token does not decode: %v", err)
	}
	if claims.Subject != aliceID.ID || claims.Role != domain.RoleSales {
		t.Errorf("unexpected claims: %+v", claims)
	}

	stored := f.repo.byID[aliceID.ID]
	if stored.LastLoginAt == nil || !stored.LastLoginAt.Equal(testStart) {
		t.Errorf("last login not recorded: %v", stored.LastLoginAt)
	}
	if f.tx.runs != 1 {
		t.Errorf("expected login to run in one transaction, got %d", f.tx.runs)
	}
	if got := f.sink.types(); len(got) != 1 || got[0] != domain.EventLoginSucceeded {
		t.Errorf("unexpected audit trail: %v", got)
	}
}

func TestAuthService_Login_FailuresLookIdentical(t *testing.T) {
	inactive := userFor(bobID)
	inactive.PasswordHash = hashOf(t, "s3cret!")
	inactive.Status = domain.StatusInactive
	f := newAuthFixture(t, alice(t), inactive)

	cases := map[string][2]string{
		"unknown user":     {"nobody", "s3cret!"},
		"wrong password":   {"alice", "wrong-password"},
		"inactive account": {"bob", "s3cret!"},
		"empty password":   {"alice", ""},
	}

	var messages []string
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := f.svc.Login(context.Background(), tc[0], tc[1])
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			if res != nil {
				t.Errorf("expected no login result, got %+v", res)
			}
			messages = append(messages, err.Error())
		})
	}
	for _, m := range messages {
		if m != "invalid username or password" {
			t.Errorf("failure leaked detail: %q", m)
		}
	}
	if f.repo.byID[bobID.ID].LastLoginAt != nil {
		t.Error("inactive account must not record a login")
	}
	if f.repo.byID[aliceID.ID].LastLoginAt != nil {
		t.Error("wrong password must not record a login")
	}
}

func TestAuthService_Login_UnknownUserStillComparesHash(t *testing.T) {
	f := newAuthFixture(t, alice(t))

	var compared [][]byte
	f.svc.compare = func(hash, password []byte) error {
		compared = append(compared, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	if _, err := f.svc.Login(context.Background(), "nobody", "s3cret!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(compared) != 1 {
		t.Fatalf("expected one hash comparison for an unknown user, got %d", len(compared))
	}
	if string(compared[0]) != string(f.svc.absentHash) {
		t.Error("unknown user must be compared against the placeholder hash")
	}
	if cost, err := bcrypt.Cost(f.svc.absentHash); err != nil || cost != bcrypt.MinCost {
		t.Errorf("placeholder hash cost = %d (%v), want the configured cost %d", cost, err, bcrypt.MinCost)
	}

	if _, err := f.svc.Login(context.Background(), "alice", "wrong-password"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(compared) != 2 {
		t.Errorf("expected the known-user path to compare once as well, got %d total", len(compared))
	}
}

func TestAuthService_Login_Throttle(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Login(ctx, "alice", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := f.svc.Login(ctx, "alice", "s3cret!"); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts while locked, got %v", err)
	}

	f.throttle.failures["alice"] = 1
	if _, err := f.svc.Login(ctx, "alice", "s3cret!"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if n := f.throttle.failures["alice"]; n != 0 {
		t.Errorf("expected failures reset after success, got %d", n)
	}
}

func TestAuthService_Refresh_KeepsRoleClaim(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice", "s3cret!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	// Promotion in the store does not leak into refreshed tokens.
	f.repo.byID[aliceID.ID].Role = domain.RoleAdmin
	f.clock.at = testStart.Add(30 * time.Minute)

	res, err := f.svc.Refresh(ctx, login.Token)
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if !res.ExpiresAt.Equal(f.clock.at.Add(time.Hour)) {
		t.Errorf("expiresAt = %v", res.ExpiresAt)
	}
	claims, err := f.codec.Decode(res.Token)
	if err != nil {
		t.Fatalf("decode refreshed: %v", err)
	}
	if claims.Role != domain.RoleSales {
		t.Errorf("expected role SALES carried over, got %s", claims.Role)
	}
}

func TestAuthService_Refresh_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture(t, alice(t))
		login, _ := f.svc.Login(ctx, "alice", "s3cret!")
		f.clock.at = testStart.Add(2 * time.Hour)
		if _, err := f.svc.Refresh(ctx, login.Token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		f := newAuthFixture(t, alice(t))
		login, _ := f.svc.Login(ctx, "alice", "s3cret!")
		f.repo.byID[aliceID.ID].Status = domain.StatusInactive
		if _, err := f.svc.Refresh(ctx, login.Token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		f := newAuthFixture(t, alice(t))
		login, _ := f.svc.Login(ctx, "alice", "s3cret!")
		delete(f.repo.byID, aliceID.ID)
		if _, err := f.svc.Refresh(ctx, login.Token); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		f := newAuthFixture(t, alice(t))
		if _, err := f.svc.Refresh(ctx, "garbage"); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
		got := f.sink.types()
		if len(got) != 1 || got[0] != domain.EventRefreshRejected {
			t.Errorf("unexpected audit trail: %v", got)
		}
	})
}

func TestAuthService_ChangePassword_MismatchBeforeStore(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	f.repo.calls = 0

	err := f.svc.ChangePassword(context.Background(), aliceID, "s3cret!", "newpass1", "newpass2")
	if !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if f.repo.calls != 0 {
		t.Errorf("store touched %d times", f.repo.calls)
	}
}

func TestAuthService_ChangePassword_WrongOld(t *testing.T) {
	f := newAuthFixture(t, alice(t))

	err := f.svc.ChangePassword(context.Background(), aliceID, "guess", "newpass1", "newpass1")
	if !errors.Is(err, domain.ErrWrongOldPassword) {
		t.Fatalf("expected ErrWrongOldPassword, got %v", err)
	}
}

func TestAuthService_ChangePassword_KeepsOutstandingTokens(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice", "s3cret!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.ChangePassword(ctx, aliceID, "s3cret!", "newpass1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if !f.svc.ValidateCredentials(ctx, "alice", "newpass1") {
		t.Error("new password should validate")
	}
	if f.svc.ValidateCredentials(ctx, "alice", "s3cret!") {
		t.Error("old password should no longer validate")
	}
	if _, err := f.svc.Authenticate(ctx, "Bearer "+login.Token); err != nil {
		t.Errorf("token issued before the change should stay valid: %v", err)
	}
}

func TestAuthService_Register(t *testing.T) {
	existing := alice(t)
	existing.Email = "alice@example.com"
	f := newAuthFixture(t, existing)
	ctx := context.Background()

	in := ports.RegisterInput{
		Username:        "dave",
		Password:        "pass123",
		ConfirmPassword: "pass123",
		RealName:        "Dave",
		Email:           "dave@example.com",
		Department:      "X",
	}
	user, err := f.svc.Register(ctx, in)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleSales || user.Status != domain.StatusActive {
		t.Errorf("expected active SALES user, got %s/%s", user.Role, user.Status)
	}
	if user.ID == "" {
		t.Error("expected generated ID")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")) != nil {
		t.Error("stored hash does not match password")
	}

	dupName := in
	dupName.Email = "other@example.com"
	if _, err := f.svc.Register(ctx, dupName); !errors.Is(err, domain.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}

	dupEmail := in
	dupEmail.Username = "erin"
	dupEmail.Email = "alice@example.com"
	if _, err := f.svc.Register(ctx, dupEmail); !errors.Is(err, domain.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}

	mismatch := in
	mismatch.Username = "frank"
	mismatch.ConfirmPassword = "other"
	if _, err := f.svc.Register(ctx, mismatch); !errors.Is(err, domain.ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	ctx := context.Background()

	login, err := f.svc.Login(ctx, "alice", "s3cret!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	f.repo.byID[aliceID.ID].Department = "Z"
	id, err := f.svc.Authenticate(ctx, "bearer "+login.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Department != "Z" {
		t.Errorf("expected fresh department Z, got %q", id.Department)
	}
	if id.Role != domain.RoleSales {
		t.Errorf("expected role from token, got %s", id.Role)
	}

	f.repo.byID[aliceID.ID].Status = domain.StatusInactive
	if _, err := f.svc.Authenticate(ctx, login.Token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for inactive account, got %v", err)
	}

	f.clock.at = testStart.Add(time.Hour)
	if _, err := f.svc.Authenticate(ctx, login.Token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthService_Verify(t *testing.T) {
	f := newAuthFixture(t, alice(t))
	ctx := context.Background()

	login, _ := f.svc.Login(ctx, "alice", "s3cret!")
	f.clock.at = testStart.Add(15 * time.Minute)

	info, err := f.svc.Verify(ctx, login.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if info.Remaining != 45*time.Minute {
		t.Errorf("remaining = %v", info.Remaining)
	}
	if info.Username != "alice" {
		t.Errorf("username = %q", info.Username)
	}
}

func TestAuthService_LogoutAudits(t *testing.T) {
	f := newAuthFixture(t)
	f.svc.Logout(context.Background(), aliceID)

	got := f.sink.types()
	if len(got) != 1 || got[0] != domain.EventLogout {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}
