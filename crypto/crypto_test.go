package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestNewAESEncryptorKeyValidation(t *testing.T) {
	if _, err := NewAESEncryptor(""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewAESEncryptor("not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	if _, err := NewAESEncryptor(short); err == nil {
		t.Fatal("expected error for wrong key length")
	}
	if _, err := NewAESEncryptor(testKey(t)); err != nil {
		t.Fatalf("valid key rejected: %v", err)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(testKey(t))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	plain := "ya29.a0AfH6SMB-token-value"
	ct, err := EncryptString(enc, plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if ct == plain {
		t.Fatal("ciphertext equals plaintext")
	}
	got, err := DecryptString(enc, ct)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != plain {
		t.Fatalf("round trip mismatch: got %q want %q", got, plain)
	}
}

func TestEncryptNonceUnique(t *testing.T) {
	enc, err := NewAESEncryptor(testKey(t))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	a, _ := EncryptString(enc, "same input")
	b, _ := EncryptString(enc, "same input")
	if a == b {
		t.Fatal("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	enc, err := NewAESEncryptor(testKey(t))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	ct, err := enc.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ct[len(ct)-1] ^= 0x01
	if _, err := enc.Decrypt(ct); err == nil {
		t.Fatal("tampered ciphertext accepted")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc1, _ := NewAESEncryptor(testKey(t))
	enc2, _ := NewAESEncryptor(testKey(t))
	ct, err := EncryptString(enc1, "secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptString(enc2, ct); err == nil {
		t.Fatal("ciphertext decrypted under a different key")
	}
}

func TestEmptyStringPassthrough(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey(t))
	ct, err := EncryptString(enc, "")
	if err != nil || ct != "" {
		t.Fatalf("empty plaintext: got (%q, %v)", ct, err)
	}
	pt, err := DecryptString(enc, "")
	if err != nil || pt != "" {
		t.Fatalf("empty ciphertext: got (%q, %v)", pt, err)
	}
}

func TestDecryptTooShort(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey(t))
	if _, err := enc.Decrypt([]byte("short")); err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("expected too-short error, got %v", err)
	}
}
