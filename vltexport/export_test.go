package vltexport_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vltexport"

	"github.com/google/uuid"
)

func fastParams() vaultcrypto.Argon2Params {
	return vaultcrypto.Argon2Params{Memory: 8 * 1024, Time: 1, Parallelism: 1}
}

func newSourceVault(t *testing.T) (*vault.Store, vaultcrypto.MasterKey, uuid.UUID) {
	t.Helper()

	id := uuid.New()
	cfg := vault.VaultConfig{
		ID:         id,
		Name:       "src",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		Encryption: vault.EncryptionConfig{Algorithm: "chacha20poly1305", KDF: "argon2id", Params: fastParams()},
	}

	s, err := vault.Init(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	mk, err := vaultcrypto.DeriveKey([]byte("master pw"), id[:], fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	for _, item := range []struct{ key, value string }{
		{"email/gmail", "hunter2"},
		{"bank/chase", "s3cr3t"},
	} {
		if err := s.StoreEntry(vault.NewEntry(item.key, vault.KindPassword, []byte(item.value)), mk); err != nil {
			t.Fatalf("StoreEntry(%s): %v", item.key, err)
		}
	}

	return s, mk, id
}

func TestExportImportRoundTrip(t *testing.T) {
	src, mk, id := newSourceVault(t)

	env, err := vltexport.Export(src, []byte("export-pw"), fastParams())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst, err := vltexport.Import(env, []byte("export-pw"), t.TempDir(), "dst", fastParams())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	cfg, err := dst.Config()
	if err != nil {
		t.Fatalf("Config: %v", err)
	}

	if cfg.ID != id {
		t.Errorf("imported vault id = %s, want %s (preserved identifier)", cfg.ID, id)
	}

	if cfg.Name != "dst" {
		t.Errorf("imported vault name = %q, want %q", cfg.Name, "dst")
	}

	keys, err := dst.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(keys) != 2 {
		t.Fatalf("List() = %v, want 2 entries", keys)
	}

	entry, err := dst.LoadEntry("email/gmail", mk)
	if err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}

	if !bytes.Equal(entry.PlaintextValue(), []byte("hunter2")) {
		t.Errorf("PlaintextValue() = %q, want %q", entry.PlaintextValue(), "hunter2")
	}
}

func TestImportChecksumMismatchFails(t *testing.T) {
	src, _, _ := newSourceVault(t)

	env, err := vltexport.Export(src, []byte("export-pw"), fastParams())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	env.Checksum = "0000000000000000000000000000000000000000000000000000000000000000"

	if _, err := vltexport.Import(env, []byte("export-pw"), t.TempDir(), "dst", fastParams()); err == nil {
		t.Fatal("expected checksum mismatch error")
	}
}

func TestImportNonBunkerExportFails(t *testing.T) {
	env := vltexport.Envelope{BunkerExport: false}

	if _, err := vltexport.Import(env, []byte("pw"), t.TempDir(), "dst", fastParams()); err == nil {
		t.Fatal("expected error importing non-bunker envelope")
	}
}
