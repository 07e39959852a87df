// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor accounts have always been hashed with.
const DefaultCost = 10

var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher produces salted bcrypt digests at a fixed cost.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int { return h.cost }

// Hash returns a one-way digest of plaintext. Each call embeds a fresh salt,
// so hashing the same input twice yields different digests.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// IsDigest reports whether s is a well-formed bcrypt digest.
func IsDigest(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

var (
	defaultMu     sync.RWMutex
	defaultHasher = NewHasher(DefaultCost)
)

// Default returns the process-wide hasher.
func Default() *Hasher {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultHasher
}

// SetDefault replaces the process-wide hasher, typically once at startup.
func SetDefault(h *Hasher) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHasher = h
}
