package utils

import (
	"strings"
	"testing"
	"time"
)

func TestShortIDs(t *testing.T) {
	report := NewReportID()
	if len(report) != 12 {
		t.Errorf("report ID length = %d, want 12", len(report))
	}
	tx := NewTransactionID()
	if len(tx) != 16 {
		t.Errorf("transaction ID length = %d, want 16", len(tx))
	}
	for _, id := range []string{report, tx} {
		if id != strings.ToUpper(id) {
			t.Errorf("ID %q not uppercase", id)
		}
	}
	if NewReportID() == NewReportID() {
		t.Error("consecutive report IDs collided")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		text string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer piece of text", 10, "a longe..."},
		{"ab", 2, "ab"},
		{"abcd", 3, "abc"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.text, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "Never" {
		t.Errorf("FormatTime(zero) = %q, want Never", got)
	}
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if got := FormatTime(ts); got != "2025-03-14 09:26" {
		t.Errorf("FormatTime = %q", got)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}

	ok, err := VerifyPassword("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("correct password rejected: ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong password", hash)
	if err != nil || ok {
		t.Fatalf("wrong password accepted: ok=%v err=%v", ok, err)
	}
	if _, err := VerifyPassword("x", "not-a-hash"); err == nil {
		t.Fatal("malformed hash accepted")
	}
}

func TestCipherRoundTrip(t *testing.T) {
	// base64 of 32 bytes
	key := "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="
	cipher, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	plaintext := "session_100_1700000000"
	encrypted, err := cipher.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if encrypted == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := cipher.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != plaintext {
		t.Fatalf("round trip mismatch: %q", decrypted)
	}

	if _, err := cipher.Decrypt("garbage"); err == nil {
		t.Fatal("garbage ciphertext accepted")
	}
}

func TestNewCipherRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "dG9vc2hvcnQ=", "not base64!!"} {
		if _, err := NewCipher(key); err == nil {
			t.Errorf("NewCipher(%q) accepted", key)
		}
	}
}
