package session_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/ladzaretti/bunker/session"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/google/uuid"
)

func TestPermanentSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vaultID := uuid.New()

	mk := vaultcrypto.NewMasterKey(bytes.Repeat([]byte{0x42}, vaultcrypto.KeySize))

	k := session.NewKeeper(dir, "work", vaultID)

	if err := k.CreatePermanent(mk); err != nil {
		t.Fatalf("CreatePermanent: %v", err)
	}

	got, err := k.LoadPermanent()
	if err != nil {
		t.Fatalf("LoadPermanent: %v", err)
	}

	if !bytes.Equal(got.Bytes(), mk.Bytes()) {
		t.Error("recovered master key does not match original")
	}
}

func TestLockThenLoadReturnsNoSession(t *testing.T) {
	dir := t.TempDir()
	vaultID := uuid.New()

	mk := vaultcrypto.NewMasterKey(bytes.Repeat([]byte{0x01}, vaultcrypto.KeySize))

	k := session.NewKeeper(dir, "work", vaultID)

	if err := k.CreatePermanent(mk); err != nil {
		t.Fatalf("CreatePermanent: %v", err)
	}

	if err := k.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	if _, err := k.LoadPermanent(); err != vaulterrors.ErrNoSession {
		t.Errorf("LoadPermanent after Lock = %v, want ErrNoSession", err)
	}
}

func TestExpiredSessionDeletesAndReturnsExpired(t *testing.T) {
	dir := t.TempDir()
	vaultID := uuid.New()

	mk := vaultcrypto.NewMasterKey(bytes.Repeat([]byte{0x07}, vaultcrypto.KeySize))

	k := session.NewKeeper(dir, "work", vaultID)

	if err := k.CreatePasswordBound([]byte("pw"), mk, -time.Minute); err != nil {
		t.Fatalf("CreatePasswordBound: %v", err)
	}

	if _, err := k.Load([]byte("pw")); err != vaulterrors.ErrSessionExpired {
		t.Errorf("Load on expired session = %v, want ErrSessionExpired", err)
	}

	if k.Exists() {
		t.Error("expired session file should have been deleted")
	}
}

func TestPasswordBoundSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	vaultID := uuid.New()

	mk := vaultcrypto.NewMasterKey(bytes.Repeat([]byte{0x09}, vaultcrypto.KeySize))

	k := session.NewKeeper(dir, "work", vaultID)

	if err := k.CreatePasswordBound([]byte("correct horse"), mk, time.Hour); err != nil {
		t.Fatalf("CreatePasswordBound: %v", err)
	}

	got, err := k.Load([]byte("correct horse"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !bytes.Equal(got.Bytes(), mk.Bytes()) {
		t.Error("recovered master key does not match original")
	}
}
