package domain

import (
	"errors"
	"fmt"
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAccountInactive is never returned to clients; login and refresh
	// surface it as ErrInvalidCredentials / ErrInvalidToken.
	ErrAccountInactive  = errors.New("account inactive")
	ErrTooManyAttempts  = errors.New("too many failed login attempts")
	ErrWrongOldPassword = errors.New("old password is incorrect")
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")
)

// Token errors. ErrMalformedToken and ErrInvalidSignature both match
// ErrInvalidToken with errors.Is; ErrTokenExpired does not.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMalformedToken   = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired     = errors.New("token expired")
)

// Authorization and lookup errors.
var (
	ErrForbidden = errors.New("access forbidden")
	ErrNotFound  = errors.New("resource not found")

	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrCustomerNotFound   = fmt.Errorf("customer %w", ErrNotFound)
	ErrVisitNotFound      = fmt.Errorf("visit record %w", ErrNotFound)
	ErrSchoolNotFound     = fmt.Errorf("school %w", ErrNotFound)
	ErrDepartmentNotFound = fmt.Errorf("department %w", ErrNotFound)
)

// Conflict and input errors.
var (
	ErrUserExists   = errors.New("username already exists")
	ErrEmailExists  = errors.New("email already exists")
	ErrInvalidInput = errors.New("invalid input")
)
