// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"wallet/config"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/domain/service"
)

// specialChars is the set of characters accepted as "special" by the strength policy.
const specialChars = "@$!%*?&"

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy config.PasswordStrengthConfig
}

// NewBcryptHasher is the constructor for bcryptHasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	hasher := &bcryptHasher{cost: bcrypt.DefaultCost, policy: defaultStrengthPolicy()}
	if cfg.Auth != nil && cfg.Auth.BcryptCost > 0 {
		hasher.cost = cfg.Auth.BcryptCost
	}
	if cfg.PasswordStrength != nil {
		hasher.policy = *cfg.PasswordStrength
	}

	return hasher
}

// NewBcryptHasherWithCost builds a hasher with the default strength policy and an explicit cost.
func NewBcryptHasherWithCost(cost int) service.PasswordHasher {
	return &bcryptHasher{cost: cost, policy: defaultStrengthPolicy()}
}

func defaultStrengthPolicy() config.PasswordStrengthConfig {
	return config.PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        72,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumbers:   true,
		RequireSpecial:   true,
	}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
// bcrypt automatically handles salt generation.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	// err is nil if the password and hash match.
	return err == nil
}

// ValidatePasswordStrength reports the first rule the password violates.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	var rule string
	switch {
	case len(password) < h.policy.MinLength:
		rule = "must be at least " + strconv.Itoa(h.policy.MinLength) + " characters long"
	case h.policy.MaxLength > 0 && len(password) > h.policy.MaxLength:
		rule = "must be at most " + strconv.Itoa(h.policy.MaxLength) + " bytes long"
	case h.policy.RequireLowercase && !h.hasLowercase(password):
		rule = "must contain at least one lowercase letter"
	case h.policy.RequireUppercase && !h.hasUppercase(password):
		rule = "must contain at least one uppercase letter"
	case h.policy.RequireNumbers && !h.hasNumbers(password):
		rule = "must contain at least one number"
	case h.policy.RequireSpecial && !h.hasSpecialChars(password):
		rule = "must contain at least one special character (" + specialChars + ")"
	default:
		return nil
	}

	return domainerrors.ErrPasswordStrength.WithDetails([]domainerrors.FieldError{
		{Field: "password", Message: "Password " + rule},
	})
}

func (h *bcryptHasher) hasUppercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsUpper) >= 0
}

func (h *bcryptHasher) hasLowercase(s string) bool {
	return strings.IndexFunc(s, unicode.IsLower) >= 0
}

func (h *bcryptHasher) hasNumbers(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func (h *bcryptHasher) hasSpecialChars(s string) bool {
	return strings.ContainsAny(s, specialChars)
}
