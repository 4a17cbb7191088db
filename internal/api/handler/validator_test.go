package handler

import (
	"strings"
	"testing"
)

func TestValidator_ReportsJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&registerRequest{Username: "ab", Password: "123", Email: "not-an-email"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"username must be at least 3 characters",
		"password must be at least 6 characters",
		"confirmPassword is required",
		"realName is required",
		"email must be a valid email",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidator_AcceptsValidRequest(t *testing.T) {
	req := &changePasswordRequest{OldPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2"}
	if err := NewValidator().Validate(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
