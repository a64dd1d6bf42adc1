package adapter

import "time"

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns domain.ErrInvalidCredentials on mismatch.
	Compare(hash, password string) error
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, role string) (token string, expiresAt time.Time, err error)
}
