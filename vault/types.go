// Package vault implements the on-disk vault store: the
// VaultConfig/Entry/EncryptedValue data model, the pretty-JSON codec
// that serializes them, and the directory-of-files CRUD operations that
// read and write them under <base>/vaults/<name>/.
package vault

import (
	"time"

	"github.com/ladzaretti/bunker/vaultcrypto"

	"github.com/google/uuid"
)

// EncryptionConfig records the algorithm tag, KDF tag, and KDF cost
// parameters a vault was created with. Changing Params after the fact does
// not re-encrypt existing entries; it only affects future operations that
// re-derive keys (e.g. a future `rekey` command, not part of this core).
type EncryptionConfig struct {
	Algorithm string                  `json:"algorithm"`
	KDF       string                  `json:"kdf"`
	Params    vaultcrypto.Argon2Params `json:"params"`
}

// DefaultEncryptionConfig is the EncryptionConfig stamped on a newly
// created vault.
var DefaultEncryptionConfig = EncryptionConfig{
	Algorithm: "chacha20poly1305",
	KDF:       "argon2id",
	Params:    vaultcrypto.DefaultArgon2Params,
}

// VaultConfig is the record persisted at a vault's `.vault` file. Its ID is
// fixed at creation and is the KDF salt for the vault's master key --
// changing it invalidates every entry, and import must preserve it.
type VaultConfig struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Encryption EncryptionConfig `json:"encryption"`

	HistoryRemote    string `json:"history_remote,omitempty"`
	AutoSync         bool   `json:"auto_sync"`
	AutoLockMinutes  *uint64 `json:"auto_lock_minutes,omitempty"`
}

// EntryKind enumerates the kinds of secrets an Entry can hold. Custom kinds
// not in this fixed set are represented by KindCustom, with the
// caller-supplied tag carried in Entry.CustomKind.
type EntryKind string

const (
	KindPassword   EntryKind = "password"
	KindNote       EntryKind = "note"
	KindCard       EntryKind = "card"
	KindIdentity   EntryKind = "identity"
	KindSecureFile EntryKind = "secure-file"
	KindAPIKey     EntryKind = "api-key"
	KindSSHKey     EntryKind = "ssh-key"
	KindDatabase   EntryKind = "database"
	KindCustom     EntryKind = "custom"
)

// Entry is one stored secret plus its metadata, addressed within a vault by
// Key (a slash-delimited logical path that maps 1:1 to a file under
// store/).
type Entry struct {
	ID    uuid.UUID `json:"id"`
	Key   string    `json:"key"`
	Value EncryptedValue `json:"value"`

	Kind       EntryKind         `json:"kind"`
	CustomKind string            `json:"custom_kind,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Username   string            `json:"username,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	URL        string            `json:"url,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Expiry     *time.Time        `json:"expiry,omitempty"`
	AutoType   string            `json:"auto_type,omitempty"`

	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// NewEntry constructs an Entry ready to be passed to [Store.StoreEntry]. The
// Entry arrives with its plaintext value already "wrapped" in an
// EncryptedValue-shaped placeholder -- Ciphertext carries the raw
// plaintext bytes verbatim, Nonce and Salt are empty -- so the inner schema
// shape is stable even before the store's own encryption pass runs.
func NewEntry(key string, kind EntryKind, plaintext []byte) Entry {
	now := time.Now()

	return Entry{
		ID:         uuid.New(),
		Key:        key,
		Value:      EncryptedValue{Ciphertext: RawBytes(plaintext)},
		Kind:       kind,
		CreatedAt:  now,
		UpdatedAt:  now,
		AccessedAt: now,
	}
}

// PlaintextValue returns the decrypted secret carried by an Entry that has
// just come back from [Store.LoadEntry]: the inner placeholder's Ciphertext
// field, which after the store's unwrap holds the raw value bytes again.
func (e Entry) PlaintextValue() []byte {
	return e.Value.Ciphertext
}
