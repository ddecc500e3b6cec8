package auth

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("hunter2!", 4)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hashed == "hunter2!" {
		t.Fatal("hash equals plaintext")
	}
	if err := ComparePassword(hashed, "hunter2!"); err != nil {
		t.Errorf("ComparePassword() with correct password: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Error("ComparePassword() accepted wrong password")
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	// Cost below the bcrypt minimum must still yield a working hash.
	hashed, err := HashPassword("hunter2!", 0)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if err := ComparePassword(hashed, "hunter2!"); err != nil {
		t.Errorf("ComparePassword() after fallback: %v", err)
	}
}
