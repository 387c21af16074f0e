package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher is the password hasher used by the auth and admin services.
// Cost is clamped into bcrypt's accepted range.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

// Hash returns a salted bcrypt hash of plain.
func (h BcryptHasher) Hash(plain string) (string, error) {
	return HashPassword(plain, h.Cost)
}

// Verify reports whether plain matches hash.
func (h BcryptHasher) Verify(hash, plain string) bool {
	return VerifyPassword(hash, plain)
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
