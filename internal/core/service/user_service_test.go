package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
	"github.com/jiang666/visitmanagement2-sub000/internal/core/ports"
)

func newUserFixture() (*UserService, *stubUserRepo) {
	repo := newStubUserRepo(userFor(adminID), userFor(managerX), userFor(managerY),
		userFor(aliceID), userFor(bobID), userFor(carolID))
	return NewUserService(repo, newTestGuard(), bcrypt.MinCost, discardLogger), repo
}

func TestUserService_ListScopes(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	cases := []struct {
		who  domain.Identity
		want int64
	}{
		{adminID, 6},
		{managerX, 3}, // mgrx, alice, bob
		{aliceID, 1},
	}
	for _, tc := range cases {
		page, err := svc.List(ctx, tc.who, ports.UserFilter{})
		if err != nil {
			t.Fatalf("%s: %v", tc.who.Username, err)
		}
		if page.Total != tc.want {
			t.Errorf("%s: expected %d users, got %d", tc.who.Username, tc.want, page.Total)
		}
	}
}

func TestUserService_ProfileByOwnership(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()

	if _, err := svc.UpdateProfile(ctx, aliceID, aliceID.ID, ports.ProfileInput{RealName: "Alice W", Email: "a@x.io"}); err != nil {
		t.Fatalf("self update: %v", err)
	}
	if repo.byID[aliceID.ID].RealName != "Alice W" {
		t.Error("profile not stored")
	}
	if _, err := svc.UpdateProfile(ctx, bobID, aliceID.ID, ports.ProfileInput{RealName: "pwned"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("peer update: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, carolID, aliceID.ID, ports.ProfileInput{RealName: "pwned"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other department update: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, bobID, bobID.ID, ports.ProfileInput{RealName: "Bob", Email: "a@x.io"}); !errors.Is(err, domain.ErrEmailExists) {
		t.Errorf("taken email: expected ErrEmailExists, got %v", err)
	}
}

func TestUserService_ProfileIsSelfOrAdmin(t *testing.T) {
	ctx := context.Background()

	svc, repo := newUserFixture()
	admin := repo.byID[adminID.ID]
	admin.Department = managerX.Department

	cases := []struct {
		name   string
		target string
	}{
		{"manager edits peer in department", aliceID.ID},
		{"manager edits administrator", adminID.ID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := *repo.byID[tc.target]
			_, err := svc.UpdateProfile(ctx, managerX, tc.target, ports.ProfileInput{RealName: "pwned", Email: "attacker@example.com"})
			if !errors.Is(err, domain.ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
			after := repo.byID[tc.target]
			if after.RealName != before.RealName || after.Email != before.Email {
				t.Errorf("profile changed: %+v", after)
			}
		})
	}

	if _, err := svc.UpdateProfile(ctx, adminID, aliceID.ID, ports.ProfileInput{RealName: "Alice Admin-Edited"}); err != nil {
		t.Fatalf("admin edit: %v", err)
	}
	if repo.byID[aliceID.ID].RealName != "Alice Admin-Edited" {
		t.Error("admin edit not stored")
	}
	if _, err := svc.UpdateProfile(ctx, managerX, managerX.ID, ports.ProfileInput{RealName: "Manager X"}); err != nil {
		t.Errorf("manager self edit: %v", err)
	}
}

func TestUserService_AdminOnlyOperations(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()

	for _, who := range []domain.Identity{managerX, aliceID} {
		if _, err := svc.Create(ctx, who, ports.CreateUserInput{Username: "x", Password: "123456", RealName: "x", Role: domain.RoleSales}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s create: expected ErrForbidden, got %v", who.Username, err)
		}
		if _, err := svc.SetStatus(ctx, who, bobID.ID, domain.StatusInactive); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s status: expected ErrForbidden, got %v", who.Username, err)
		}
		if _, err := svc.Assign(ctx, who, bobID.ID, domain.RoleAdmin, "X"); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s assign: expected ErrForbidden, got %v", who.Username, err)
		}
		if err := svc.ResetPassword(ctx, who, bobID.ID, "123456"); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s reset: expected ErrForbidden, got %v", who.Username, err)
		}
		if err := svc.Delete(ctx, who, bobID.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s delete: expected ErrForbidden, got %v", who.Username, err)
		}
	}

	u, err := svc.Create(ctx, adminID, ports.CreateUserInput{Username: "dave", Password: "123456", RealName: "Dave", Role: domain.RoleManager, Department: "Z"})
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if u.Status != domain.StatusActive || u.Role != domain.RoleManager {
		t.Errorf("unexpected account: %s/%s", u.Status, u.Role)
	}

	if _, err := svc.SetStatus(ctx, adminID, bobID.ID, domain.StatusInactive); err != nil {
		t.Errorf("admin status: %v", err)
	}
	if repo.byID[bobID.ID].Active() {
		t.Error("bob should be inactive")
	}
	if _, err := svc.Assign(ctx, adminID, bobID.ID, domain.RoleManager, "Y"); err != nil {
		t.Errorf("admin assign: %v", err)
	}
	if got := repo.byID[bobID.ID]; got.Role != domain.RoleManager || got.Department != "Y" {
		t.Errorf("assignment not stored: %s/%s", got.Role, got.Department)
	}
	if err := svc.ResetPassword(ctx, adminID, bobID.ID, "fresh-pass"); err != nil {
		t.Errorf("admin reset: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.byID[bobID.ID].PasswordHash), []byte("fresh-pass")) != nil {
		t.Error("reset password not stored")
	}
	if err := svc.Delete(ctx, adminID, adminID.ID); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("self delete: expected ErrInvalidInput, got %v", err)
	}
	if err := svc.Delete(ctx, adminID, bobID.ID); err != nil {
		t.Errorf("admin delete: %v", err)
	}
}
