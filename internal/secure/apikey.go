package secure

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	// APIKeyPrefix is the human-readable marker at the start of every secret.
	APIKeyPrefix = "konfig_"

	// APIKeyLookupLen is how many leading characters of the plaintext secret
	// are stored unencrypted for fast lookup.
	APIKeyLookupLen = 12
)

// GenerateAPIKey returns a new plaintext API key secret in the form
// "konfig_<random>". The secret is returned to the caller exactly once and is
// never persisted; store only HashAPIKey of it plus the lookup prefix.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return APIKeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// APIKeyLookup returns the fixed-length lookup prefix of a plaintext secret,
// or false when the supplied value is too short to be a key.
func APIKeyLookup(key string) (string, bool) {
	if len(key) < APIKeyLookupLen {
		return "", false
	}
	return key[:APIKeyLookupLen], true
}

// HashAPIKey hashes a full API key secret for storage. API keys use the same
// primitive as passwords so verification goes through CheckAPIKey.
func HashAPIKey(key string) (string, error) {
	return HashPassword(key)
}

// CheckAPIKey verifies a plaintext secret against a stored key hash.
func CheckAPIKey(key, hash string) bool {
	return CheckPassword(key, hash)
}
