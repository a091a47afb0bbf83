package security

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")

	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	salt, derived, ok := strings.Cut(hash, ":")

	if !ok || salt == "" || derived == "" {
		t.Fatalf("hash not in salt:derived form: %q", hash)
	}

	if err := CheckPassword(hash, "hunter22"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}

	if err := CheckPassword(hash, "hunter23"); err == nil {
		t.Fatal("CheckPassword accepted wrong password")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	b, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if a == b {
		t.Fatal("two hashes of the same password should differ (fresh salt)")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	for _, stored := range []string{"", "nocolon", ":", "abc:", ":def", "salt:nothex!"} {
		if err := CheckPassword(stored, "whatever"); err == nil {
			t.Fatalf("CheckPassword accepted malformed hash %q", stored)
		}
	}
}

func TestNewSessionToken(t *testing.T) {
	a, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	if len(a) != 48 { // 24 bytes hex encoded
		t.Fatalf("token length = %d, want 48", len(a))
	}

	b, err := NewSessionToken()
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}

	if a == b {
		t.Fatal("two tokens should not collide")
	}
}
