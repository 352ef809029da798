package service

import "golang.org/x/crypto/bcrypt"

// BcryptHasher implements PasswordHasher. bcrypt is enriched from the pack
// (r3e-network-service_layer depends on golang.org/x/crypto) since §3
// requires customers be stored with "opaque password hash" and
// has no hashing of its own to ground on.
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Matches(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
