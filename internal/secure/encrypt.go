package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// ErrDecrypt is returned when a ciphertext cannot be decrypted: corrupted
// data, a wrong key, or tampering. It is surfaced to callers rather than
// degraded to an empty value so the boundary can decide what to do.
var ErrDecrypt = errors.New("secure: decryption failed")

const (
	kdfIterations = 100000
	keyLen        = 32
	saltLen       = 16

	// legacySalt reproduces the fixed-salt key derivation of older
	// deployments. New deployments get a random salt persisted on disk.
	legacySalt = "konfig_salt_change_in_production"
)

// EncryptorConfig controls how the symmetric key is obtained.
type EncryptorConfig struct {
	// Key is the configured secret. If it base64-decodes to exactly 32
	// bytes it is used directly as the AES key; otherwise a key is derived
	// from it with PBKDF2.
	Key string

	// SaltFile is where the per-deployment derivation salt is persisted.
	// Created with a random salt on first use.
	SaltFile string

	// LegacySalt switches key derivation to the fixed salt used by older
	// deployments, for reading data they wrote.
	LegacySalt bool
}

// Encryptor encrypts and decrypts configuration values with AES-256-GCM.
// The derived key is fixed at construction; an Encryptor is immutable and
// safe for concurrent use.
type Encryptor struct {
	aead cipher.AEAD
}

func NewEncryptor(cfg EncryptorConfig) (*Encryptor, error) {
	if cfg.Key == "" {
		return nil, errors.New("secure: encryption key not configured")
	}

	key, err := resolveKey(cfg)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secure: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secure: init gcm: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

func resolveKey(cfg EncryptorConfig) ([]byte, error) {
	// A secret that already decodes to a full-size key is used as-is.
	if decoded, err := base64.URLEncoding.DecodeString(pad(cfg.Key)); err == nil && len(decoded) == keyLen {
		return decoded, nil
	}

	salt := []byte(legacySalt)
	if !cfg.LegacySalt {
		loaded, err := loadOrCreateSalt(cfg.SaltFile)
		if err != nil {
			return nil, err
		}
		salt = loaded
	}
	return pbkdf2.Key([]byte(cfg.Key), salt, kdfIterations, keyLen, sha256.New), nil
}

func pad(s string) string {
	if m := len(s) % 4; m != 0 {
		return s + strings.Repeat("=", 4-m)
	}
	return s
}

func loadOrCreateSalt(path string) ([]byte, error) {
	if path == "" {
		path = "konfig.salt"
	}

	data, err := os.ReadFile(path)
	if err == nil {
		salt, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil || len(salt) != saltLen {
			return nil, fmt.Errorf("secure: salt file %s is corrupt", path)
		}
		return salt, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("secure: read salt file: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(salt) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("secure: write salt file: %w", err)
	}
	return salt, nil
}

// Encrypt seals a plaintext and returns a text-safe encoding of it. The
// nonce is random, so encrypting the same plaintext twice yields different
// ciphertexts. Empty input passes through unchanged.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := e.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input passes through unchanged; any
// cryptographic failure returns ErrDecrypt.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecrypt
	}
	nonceSize := e.aead.NonceSize()
	if len(sealed) < nonceSize {
		return "", ErrDecrypt
	}
	plaintext, err := e.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
