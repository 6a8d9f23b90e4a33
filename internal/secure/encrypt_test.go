package secure

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestEncryptor(t *testing.T, key string) *Encryptor {
	t.Helper()
	enc, err := NewEncryptor(EncryptorConfig{
		Key:      key,
		SaltFile: filepath.Join(t.TempDir(), "test.salt"),
	})
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	return enc
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t, "test-secret-key")

	tests := []struct {
		name      string
		plaintext string
	}{
		{name: "simple value", plaintext: "database-password-123"},
		{name: "json value", plaintext: `{"host":"db.internal","port":5432}`},
		{name: "unicode", plaintext: "пароль-密码-🔑"},
		{name: "long value", plaintext: string(make([]byte, 10000))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := enc.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if ciphertext == tt.plaintext {
				t.Error("ciphertext equals plaintext")
			}

			got, err := enc.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("Decrypt() = %q, expected %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptEmptyPassesThrough(t *testing.T) {
	enc := newTestEncryptor(t, "test-secret-key")

	ciphertext, err := enc.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if ciphertext != "" {
		t.Errorf("Encrypt(\"\") = %q, expected empty", ciphertext)
	}

	plaintext, err := enc.Decrypt("")
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if plaintext != "" {
		t.Errorf("Decrypt(\"\") = %q, expected empty", plaintext)
	}
}

func TestEncryptIsRandomized(t *testing.T) {
	enc := newTestEncryptor(t, "test-secret-key")

	a, err := enc.Encrypt("same value")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	b, err := enc.Encrypt("same value")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same plaintext produced identical ciphertexts")
	}
}

func TestDecryptFailures(t *testing.T) {
	enc := newTestEncryptor(t, "test-secret-key")

	ciphertext, err := enc.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	flipped := "A"
	if ciphertext[0] == 'A' {
		flipped = "B"
	}

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "!!!not-base64!!!"},
		{name: "too short", input: "YWJj"},
		{name: "tampered", input: flipped + ciphertext[1:]},
		{name: "garbage of valid length", input: "dGhpcyBpcyBub3QgYSByZWFsIGNpcGhlcnRleHQgYXQgYWxs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enc.Decrypt(tt.input)
			if !errors.Is(err, ErrDecrypt) {
				t.Errorf("Decrypt() error = %v, expected ErrDecrypt", err)
			}
		})
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	enc1 := newTestEncryptor(t, "key-one")
	enc2 := newTestEncryptor(t, "key-two")

	ciphertext, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	_, err = enc2.Decrypt(ciphertext)
	if !errors.Is(err, ErrDecrypt) {
		t.Errorf("Decrypt() with wrong key error = %v, expected ErrDecrypt", err)
	}
}

func TestSaltFilePersists(t *testing.T) {
	saltFile := filepath.Join(t.TempDir(), "persist.salt")

	enc1, err := NewEncryptor(EncryptorConfig{Key: "secret", SaltFile: saltFile})
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	ciphertext, err := enc1.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	// Reconstructing from the same salt file derives the same key.
	enc2, err := NewEncryptor(EncryptorConfig{Key: "secret", SaltFile: saltFile})
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	got, err := enc2.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != "value" {
		t.Errorf("Decrypt() = %q, expected %q", got, "value")
	}
}

func TestLegacySaltDerivation(t *testing.T) {
	enc1, err := NewEncryptor(EncryptorConfig{Key: "secret", LegacySalt: true})
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	enc2, err := NewEncryptor(EncryptorConfig{Key: "secret", LegacySalt: true})
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}

	ciphertext, err := enc1.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	got, err := enc2.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != "value" {
		t.Errorf("Decrypt() = %q, expected %q", got, "value")
	}
}

func TestNewEncryptorRequiresKey(t *testing.T) {
	if _, err := NewEncryptor(EncryptorConfig{}); err == nil {
		t.Error("NewEncryptor() with empty key should fail")
	}
}
