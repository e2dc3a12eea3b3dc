// Package auth holds the credential hasher and the token issuer used by the
// registration and login flows.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

var (
	// ErrEmptySecret is returned when hashing an empty password.
	ErrEmptySecret = errors.New("secret must not be empty")
	// ErrMismatchedHash is returned when a candidate secret does not match a stored hash.
	ErrMismatchedHash = errors.New("secret does not match hash")
)

// Hasher derives salted one-way hashes and checks candidates against them.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

// BcryptHasher hashes with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHash
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

var _ Hasher = (*BcryptHasher)(nil)
