package gate

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Comparer seals room passwords for storage and checks supplied ones against them.
type Comparer interface {
	Seal(password string) (string, error)
	Compare(stored, supplied string) bool
}

// PlaintextComparer stores passwords as given and compares them literally.
// It exists for rooms created before hashing was enabled and is refused in production.
type PlaintextComparer struct{}

func (PlaintextComparer) Seal(password string) (string, error) {
	return password, nil
}

func (PlaintextComparer) Compare(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// BcryptComparer stores bcrypt hashes.
type BcryptComparer struct {
	Cost int // bcrypt.DefaultCost when zero
}

func (c BcryptComparer) Seal(password string) (string, error) {
	cost := c.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptComparer) Compare(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// NewComparer returns the comparer for a PASSWORD_MODE value.
func NewComparer(mode string) Comparer {
	if mode == "plaintext" {
		return PlaintextComparer{}
	}
	return BcryptComparer{}
}
