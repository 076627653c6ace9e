// Package service declares the ports the auth usecases depend on.
package service

// PasswordHasher turns passwords into one-way hashes and checks them.
type PasswordHasher interface {
	Hash(password string) (string, error)

	// Check reports whether password matches hash. A malformed hash is a mismatch.
	Check(password, hash string) bool

	// ValidatePasswordStrength returns a ValidationFailed error naming the first
	// rule the password breaks.
	ValidatePasswordStrength(password string) error
}
