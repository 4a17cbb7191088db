// Package token encodes and validates the signed, self-expiring bearer
// tokens issued at login. There is no server-side token record: a token is
// valid iff its signature verifies, it has not expired, and its role claim
// is one of the known roles.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

const defaultIssuer = "visitmanagement"

var signingMethod = jwt.SigningMethodHS512

// Subject is who a token is issued to.
type Subject struct {
	ID       string
	Username string
	Role     domain.Role
}

// Claims is the token payload.
type Claims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issued returns the issued-at instant.
func (c Claims) Issued() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// Expiry returns the expires-at instant.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Remaining returns how long the token stays valid after now.
func (c Claims) Remaining(now time.Time) time.Duration {
	d := c.Expiry().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// SubjectRef returns who the token was issued to.
func (c Claims) SubjectRef() Subject {
	return Subject{ID: c.Subject, Username: c.Username, Role: c.Role}
}

// Codec signs and parses tokens with a process-wide secret that is fixed
// at construction.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) Option {
	return func(c *Codec) { c.issuer = issuer }
}

// NewCodec returns a Codec signing with secret.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: signing secret is empty")
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Now returns the codec clock reading.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Encode signs a token for sub valid from issuedAt for ttl. The output
// depends only on the inputs and the secret.
func (c *Codec) Encode(sub Subject, issuedAt time.Time, ttl time.Duration) (string, Claims, error) {
	if ttl <= 0 {
		return "", Claims{}, fmt.Errorf("token: ttl must be positive: %w", domain.ErrInvalidInput)
	}
	if sub.ID == "" {
		return "", Claims{}, fmt.Errorf("token: empty subject: %w", domain.ErrInvalidInput)
	}
	if !sub.Role.Valid() {
		return "", Claims{}, fmt.Errorf("token: unknown role %q: %w", sub.Role, domain.ErrInvalidInput)
	}

	claims := Claims{
		Username: sub.Username,
		Role:     sub.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, claims, nil
}

// Decode verifies raw and returns its claims. Errors are
// domain.ErrTokenExpired, domain.ErrInvalidSignature or
// domain.ErrMalformedToken.
func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, c.key,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, domain.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, domain.ErrTokenExpired
	default:
		return Claims{}, fmt.Errorf("%w (%v)", domain.ErrMalformedToken, err)
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, domain.ErrMalformedToken
	}
	return claims, nil
}

func (c *Codec) key(_ *jwt.Token) (interface{}, error) {
	return c.secret, nil
}
