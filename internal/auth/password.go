package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher wraps bcrypt with a configured cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher falls back to bcrypt's default when cost is out of range.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return PasswordHasher{cost: cost}
}

// Hash hashes a plaintext password.
func (h PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Matches reports whether plain hashes to hashed. Malformed hashes never match.
func (h PasswordHasher) Matches(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
