package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret-pw")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "s3cret-pw" {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !CheckPassword("s3cret-pw", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("hunter2!"); err != nil {
		t.Fatalf("expected valid password, got: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password to fail")
	}
	if err := ValidatePassword(strings.Repeat("x", 73)); err == nil {
		t.Fatalf("expected over-long password to fail")
	}
}
