package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("expected correct password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
