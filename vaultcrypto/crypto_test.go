package vaultcrypto_test

import (
	"bytes"
	"testing"

	"github.com/ladzaretti/bunker/vaultcrypto"
)

func fastParams() vaultcrypto.Argon2Params {
	return vaultcrypto.Argon2Params{Memory: 8 * 1024, Time: 1, Parallelism: 1}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := vaultcrypto.DeriveKey([]byte("correct horse battery staple"), []byte("0123456789abcdef0123456789abcdef"), fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	defer key.Clear()

	plaintext := []byte("top secret entry value")

	ev, err := vaultcrypto.Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := vaultcrypto.Decrypt(ev, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestDecryptWrongKeyFails(t *testing.T) {
	key1, _ := vaultcrypto.DeriveKey([]byte("password-one"), []byte("salt-aaaaaaaaaaaaaaaaaaaaaaaaaaaa"), fastParams())
	key2, _ := vaultcrypto.DeriveKey([]byte("password-two"), []byte("salt-bbbbbbbbbbbbbbbbbbbbbbbbbbbb"), fastParams())
	defer key1.Clear()
	defer key2.Clear()

	ev, err := vaultcrypto.Encrypt([]byte("data"), key1)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := vaultcrypto.Decrypt(ev, key2); err == nil {
		t.Fatal("expected decryption failure with wrong key")
	}
}

func TestHashVerifyPassword(t *testing.T) {
	verifier, err := vaultcrypto.HashPassword([]byte("hunter2"), fastParams())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := vaultcrypto.VerifyPassword([]byte("hunter2"), verifier)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}

	if !ok {
		t.Error("expected password to verify")
	}

	ok, err = vaultcrypto.VerifyPassword([]byte("wrong"), verifier)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}

	if ok {
		t.Error("expected wrong password to fail verification")
	}
}

func TestEncryptDecryptWithPasswordRoundTrip(t *testing.T) {
	password := []byte("export-password")
	plaintext := []byte(`{"vault_config":{},"entries":[]}`)

	ciphertext, nonce, salt, err := vaultcrypto.EncryptWithPassword(plaintext, password, fastParams())
	if err != nil {
		t.Fatalf("EncryptWithPassword: %v", err)
	}

	got, err := vaultcrypto.DecryptWithPassword(ciphertext, nonce, salt, password, fastParams())
	if err != nil {
		t.Fatalf("DecryptWithPassword: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Errorf("got %q, want %q", got, plaintext)
	}
}

func TestChecksumStable(t *testing.T) {
	a := vaultcrypto.Checksum([]byte("hello"))
	b := vaultcrypto.Checksum([]byte("hello"))
	c := vaultcrypto.Checksum([]byte("world"))

	if a != b {
		t.Errorf("expected stable checksum, got %q and %q", a, b)
	}

	if a == c {
		t.Error("expected different input to produce different checksum")
	}
}
