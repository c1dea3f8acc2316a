package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash of plain at the given cost. Cost
// comes from config; bcrypt.MinCost keeps tests fast.
func HashPassword(plain string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword checks plain against a stored bcrypt hash, returning
// bcrypt's mismatch error on failure.
func ComparePassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
