package secure

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// prehashPassword reduces a password with SHA-256 and base64-encodes the
// digest. Bcrypt truncates input at 72 bytes; hashing the digest instead of
// the raw password supports arbitrarily long and multi-byte passwords.
func prehashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// HashPassword hashes a password with SHA-256 + bcrypt. The result includes a
// random salt, so two hashes of the same password differ as byte strings.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehashPassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehashPassword(password)) == nil
}
