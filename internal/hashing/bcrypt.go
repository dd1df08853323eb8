// Package hashing provides the password hasher used for hashable seed columns.
package hashing

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes values with bcrypt at a fixed cost.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a hasher using cost, clamped to bcrypt's valid range.
func NewBcrypt(cost int) *Bcrypt {
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int { return b.cost }

// Hash returns the bcrypt hash of value. Values longer than 72 bytes are
// rejected by bcrypt.
func (b *Bcrypt) Hash(value string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(value), b.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}
