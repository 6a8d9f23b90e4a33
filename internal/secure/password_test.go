package secure

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "simple password", password: "hunter2-hunter2"},
		{name: "password over bcrypt 72 byte limit", password: strings.Repeat("long-password-", 40)},
		{name: "multibyte password", password: "пароль密码🔑"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if hash == tt.password {
				t.Error("hash equals plaintext password")
			}
			if !CheckPassword(tt.password, hash) {
				t.Error("CheckPassword() rejected the correct password")
			}
			if CheckPassword(tt.password+"x", hash) {
				t.Error("CheckPassword() accepted a wrong password")
			}
		})
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical")
	}
	if !CheckPassword("same-password", h1) || !CheckPassword("same-password", h2) {
		t.Error("CheckPassword() rejected one of the hashes")
	}
}

func TestCheckPasswordInvalidHash(t *testing.T) {
	if CheckPassword("password", "not-a-bcrypt-hash") {
		t.Error("CheckPassword() accepted a malformed hash")
	}
	if CheckPassword("password", "") {
		t.Error("CheckPassword() accepted an empty hash")
	}
}

// Long passwords differ only past the 72 byte mark; the prehash must still
// distinguish them.
func TestLongPasswordsAreDistinguished(t *testing.T) {
	prefix := strings.Repeat("a", 80)
	hash, err := HashPassword(prefix + "one")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if CheckPassword(prefix+"two", hash) {
		t.Error("passwords differing after byte 72 were treated as equal")
	}
}
