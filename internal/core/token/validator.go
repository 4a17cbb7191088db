package token

import (
	"strings"

	"github.com/jiang666/visitmanagement2-sub000/internal/core/domain"
)

const bearerPrefix = "bearer "

// Validator checks bearer tokens without touching any store.
type Validator struct {
	codec *Codec
}

// NewValidator returns a Validator backed by codec.
func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec}
}

// Validate strips an optional "Bearer " scheme and decodes the token.
func (v *Validator) Validate(raw string) (Claims, error) {
	raw = StripScheme(raw)
	if raw == "" {
		return Claims{}, domain.ErrMalformedToken
	}
	return v.codec.Decode(raw)
}

// StripScheme removes a leading, case-insensitive "Bearer " prefix.
func StripScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(raw[len(bearerPrefix):])
	}
	return raw
}
