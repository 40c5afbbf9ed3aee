// Package password hashes and checks account passwords with bcrypt and
// enforces the password policy shared by registration and reset.
package password

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/swengineer/internal/common"
)

const (
	MinLength = 8
	// MaxBytes is bcrypt's input limit; longer inputs would be truncated.
	MaxBytes = 72
)

type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Out-of-range costs
// fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Compare reports whether plain matches hash. Empty input never matches.
func (h *Hasher) Compare(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Validate applies the password policy.
func Validate(plain string) error {
	if plain == "" {
		return common.ErrInvalidPassword
	}
	if utf8.RuneCountInString(plain) < MinLength || len(plain) > MaxBytes {
		return common.ErrInvalidPasswordLength
	}
	return nil
}
