package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted one-way hash of the password. The raw
// credential is never persisted.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a submitted password against a stored hash.
// bcrypt's comparison is constant-time over the derived key.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
