package vault_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"

	"github.com/google/uuid"
)

func fastParams() vaultcrypto.Argon2Params {
	return vaultcrypto.Argon2Params{Memory: 8 * 1024, Time: 1, Parallelism: 1}
}

func newTestVault(t *testing.T) (*vault.Store, vaultcrypto.MasterKey) {
	t.Helper()

	id := uuid.New()
	cfg := vault.VaultConfig{
		ID:        id,
		Name:      "test",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Encryption: vault.EncryptionConfig{
			Algorithm: "chacha20poly1305",
			KDF:       "argon2id",
			Params:    fastParams(),
		},
	}

	s, err := vault.Init(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	mk, err := vaultcrypto.DeriveKey([]byte("correct horse"), id[:], fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	return s, mk
}

func TestInitExistingFails(t *testing.T) {
	dir := t.TempDir()

	cfg := vault.VaultConfig{ID: uuid.New(), Name: "dup"}

	if _, err := vault.Init(dir, cfg); err != nil {
		t.Fatalf("first Init: %v", err)
	}

	if _, err := vault.Init(dir, cfg); err == nil {
		t.Fatal("expected ErrVaultExists on second Init")
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, mk := newTestVault(t)

	entry := vault.NewEntry("email/gmail", vault.KindPassword, []byte("hunter2"))

	if err := s.StoreEntry(entry, mk); err != nil {
		t.Fatalf("StoreEntry: %v", err)
	}

	got, err := s.LoadEntry("email/gmail", mk)
	if err != nil {
		t.Fatalf("LoadEntry: %v", err)
	}

	if !bytes.Equal(got.PlaintextValue(), []byte("hunter2")) {
		t.Errorf("PlaintextValue() = %q, want %q", got.PlaintextValue(), "hunter2")
	}

	if got.Key != entry.Key || got.ID != entry.ID || got.Kind != entry.Kind {
		t.Errorf("round-tripped entry metadata mismatch: got %+v", got)
	}
}

func TestLoadMissingEntry(t *testing.T) {
	s, mk := newTestVault(t)

	if _, err := s.LoadEntry("nope", mk); err == nil {
		t.Fatal("expected error for missing entry")
	}
}

func TestLoadWrongKeyFails(t *testing.T) {
	s, mk := newTestVault(t)

	entry := vault.NewEntry("secret", vault.KindPassword, []byte("value"))
	if err := s.StoreEntry(entry, mk); err != nil {
		t.Fatalf("StoreEntry: %v", err)
	}

	otherID := uuid.New()

	wrongKey, err := vaultcrypto.DeriveKey([]byte("wrong password"), otherID[:], fastParams())
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}

	if _, err := s.LoadEntry("secret", wrongKey); err == nil {
		t.Fatal("expected decrypt failure with wrong key")
	}
}

func TestListSortedAndDeletePrunesDirectories(t *testing.T) {
	s, mk := newTestVault(t)

	for _, key := range []string{"a/b", "a/c"} {
		if err := s.StoreEntry(vault.NewEntry(key, vault.KindNote, []byte("v")), mk); err != nil {
			t.Fatalf("StoreEntry(%s): %v", key, err)
		}
	}

	keys, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(keys) != 2 || keys[0] != "a/b" || keys[1] != "a/c" {
		t.Fatalf("List() = %v, want [a/b a/c]", keys)
	}

	if err := s.DeleteEntry("a/b"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	keys, err = s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(keys) != 1 || keys[0] != "a/c" {
		t.Fatalf("List() after delete = %v, want [a/c]", keys)
	}

	if m, err := filepathGlob(t, s, "a"); err != nil || len(m) == 0 {
		t.Fatalf("expected a/ directory to still exist: %v", err)
	}

	if err := s.DeleteEntry("a/c"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}

	if m, err := filepathGlob(t, s, "a"); err != nil || len(m) != 0 {
		t.Fatal("expected a/ directory to be pruned after deleting last entry")
	}
}

func filepathGlob(t *testing.T, s *vault.Store, rel string) ([]string, error) {
	t.Helper()
	return filepath.Glob(filepath.Join(s.Path(), "store", rel))
}

func TestDeleteMissingEntry(t *testing.T) {
	s, _ := newTestVault(t)

	err := s.DeleteEntry("nope")
	if err == nil {
		t.Fatal("expected error deleting missing entry")
	}

	if !isEntryNotFound(err) {
		t.Errorf("got %v, want ErrEntryNotFound", err)
	}
}

func isEntryNotFound(err error) bool {
	return err == vaulterrors.ErrEntryNotFound
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	s, mk := newTestVault(t)

	e1 := vault.NewEntry("email/gmail", vault.KindPassword, []byte("hunter2"))
	e1.Username = "alice@example.com"

	e2 := vault.NewEntry("bank/chase", vault.KindPassword, []byte("other"))
	e2.Tags = []string{"finance"}

	if err := s.StoreEntry(e1, mk); err != nil {
		t.Fatalf("StoreEntry: %v", err)
	}

	if err := s.StoreEntry(e2, mk); err != nil {
		t.Fatalf("StoreEntry: %v", err)
	}

	matches, err := s.Search("alice", mk)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(matches) != 1 || matches[0].Key != "email/gmail" {
		t.Fatalf("Search(alice) = %v, want [email/gmail]", matches)
	}

	matches, err = s.Search("finance", mk)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(matches) != 1 || matches[0].Key != "bank/chase" {
		t.Fatalf("Search(finance) = %v, want [bank/chase]", matches)
	}
}

func TestMoveEntry(t *testing.T) {
	s, mk := newTestVault(t)

	if err := s.StoreEntry(vault.NewEntry("old/path", vault.KindNote, []byte("v")), mk); err != nil {
		t.Fatalf("StoreEntry: %v", err)
	}

	if err := s.MoveEntry("old/path", "new/path"); err != nil {
		t.Fatalf("MoveEntry: %v", err)
	}

	if _, err := s.LoadEntry("old/path", mk); err == nil {
		t.Fatal("expected old key to be gone")
	}

	got, err := s.LoadEntry("new/path", mk)
	if err != nil {
		t.Fatalf("LoadEntry(new/path): %v", err)
	}

	if !bytes.Equal(got.PlaintextValue(), []byte("v")) {
		t.Errorf("PlaintextValue() = %q, want %q", got.PlaintextValue(), "v")
	}
}
