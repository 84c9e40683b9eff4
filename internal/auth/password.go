package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords using bcrypt. Plaintext passwords are
// never logged or persisted.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to bcrypt's range.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash produces a salted bcrypt hash suitable for storage.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether password matches the stored hash.
func (h *Hasher) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
