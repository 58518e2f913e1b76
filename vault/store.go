package vault

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ladzaretti/bunker/util"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"
)

const (
	configFileName = ".vault"
	storeDirName   = "store"
	entryExt       = ".json"
)

// Store is a single vault's on-disk directory tree rooted at
// <base>/vaults/<name>/. The zero value is not usable; construct with
// [Open] or [Init].
type Store struct {
	path string
}

// Open binds a Store to an already-existing vault directory. It does not
// verify the directory contains a `.vault` file -- callers that need that
// guarantee should call [Store.Config].
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the vault's root directory.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) configPath() string {
	return filepath.Join(s.path, configFileName)
}

func (s *Store) storeDir() string {
	return filepath.Join(s.path, storeDirName)
}

// Exists reports whether a vault is present at path: a vault exists iff
// its directory contains `.vault`.
func Exists(path string) bool {
	_, err := os.Stat(filepath.Join(path, configFileName))
	return err == nil
}

// Init creates a new vault at path: the store/ directory and the `.vault`
// config file. It fails with [vaulterrors.ErrVaultExists] if `.vault`
// already exists there.
func Init(path string, cfg VaultConfig) (*Store, error) {
	if Exists(path) {
		return nil, vaulterrors.ErrVaultExists
	}

	if err := os.MkdirAll(filepath.Join(path, storeDirName), 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	s := &Store{path: path}

	if err := s.writeConfig(cfg); err != nil {
		return nil, err
	}

	return s, nil
}

// Config reads and parses the vault's `.vault` file.
func (s *Store) Config() (VaultConfig, error) {
	data, err := os.ReadFile(s.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return VaultConfig{}, vaulterrors.ErrVaultNotFound
		}

		return VaultConfig{}, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	var cfg VaultConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return VaultConfig{}, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	return cfg, nil
}

// SaveConfig overwrites the vault's `.vault` file, bumping UpdatedAt.
func (s *Store) SaveConfig(cfg VaultConfig) error {
	cfg.UpdatedAt = time.Now()
	return s.writeConfig(cfg)
}

func (s *Store) writeConfig(cfg VaultConfig) error {
	data, err := marshalPretty(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	if err := util.AtomicWriteFile(s.configPath(), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	return nil
}

func (s *Store) entryPath(key string) string {
	return filepath.Join(s.storeDir(), filepath.FromSlash(key)+entryExt)
}

// EntryPath returns the on-disk path of the (possibly not yet written)
// entry file for key. Exported for collaborators -- such as vltexport and
// the history/git restore commands -- that need to read, write, or locate an
// entry's raw file without going through the full encrypt/decrypt path.
func (s *Store) EntryPath(key string) string {
	return s.entryPath(key)
}

// StoreEntry double-wraps entry.Value under key: the
// inner placeholder value (already shaped as an EncryptedValue, carrying
// the plaintext in its Ciphertext field) is serialized and AEAD-encrypted,
// and the resulting real EncryptedValue replaces entry.Value before the
// Entry is written to disk. The inner shape is preserved for schema
// stability; the outer layer is what actually protects the secret at rest.
func (s *Store) StoreEntry(entry Entry, mk vaultcrypto.MasterKey) error {
	inner, err := json.Marshal(entry.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	wrapped, err := vaultcrypto.Encrypt(inner, mk)
	if err != nil {
		return vaulterrors.ErrEncryptFailure
	}

	entry.Value = fromCrypto(wrapped)
	entry.UpdatedAt = time.Now()

	data, err := marshalPretty(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	path := s.entryPath(entry.Key)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	return nil
}

// LoadEntry reads and decrypts the entry at key, the inverse of
// [Store.StoreEntry]. On auth failure it returns
// [vaulterrors.ErrDecryptFailure]; on a missing file,
// [vaulterrors.ErrEntryNotFound].
func (s *Store) LoadEntry(key string, mk vaultcrypto.MasterKey) (Entry, error) {
	data, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, vaulterrors.ErrEntryNotFound
		}

		return Entry{}, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	plaintext, err := vaultcrypto.Decrypt(entry.Value.toCrypto(), mk)
	if err != nil {
		return Entry{}, vaulterrors.ErrDecryptFailure
	}

	var inner EncryptedValue
	if err := json.Unmarshal(plaintext, &inner); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	entry.Value = inner
	entry.AccessedAt = time.Now()

	return entry, nil
}

// DeleteEntry removes the file at key and prunes now-empty ancestor
// directories up to but not including store/.
func (s *Store) DeleteEntry(key string) error {
	path := s.entryPath(key)

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return vaulterrors.ErrEntryNotFound
		}

		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	root := s.storeDir()

	for dir := filepath.Dir(path); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}

		if err := os.Remove(dir); err != nil {
			break
		}
	}

	return nil
}

// MoveEntry renames an entry's logical key in place, used by the `mv`
// command. It loads neither the value nor the master key: the underlying
// file, still encrypted, moves verbatim.
func (s *Store) MoveEntry(oldKey, newKey string) error {
	oldPath, newPath := s.entryPath(oldKey), s.entryPath(newKey)

	if _, err := os.Stat(oldPath); err != nil {
		if os.IsNotExist(err) {
			return vaulterrors.ErrEntryNotFound
		}

		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0o700); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	root := s.storeDir()

	for dir := filepath.Dir(oldPath); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}

		if err := os.Remove(dir); err != nil {
			break
		}
	}

	return nil
}

// List returns every logical key currently on disk, sorted lexicographically,
// with the `.json` suffix stripped and `/` as separator.
func (s *Store) List() ([]string, error) {
	root := s.storeDir()

	var keys []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(path) != entryExt {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		key := strings.TrimSuffix(filepath.ToSlash(rel), entryExt)
		keys = append(keys, key)

		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
	}

	sort.Strings(keys)

	return keys, nil
}

// Search decrypts every entry and returns those matching query
// case-insensitively against: the logical key, the decrypted value,
// username, notes, url, each tag, and each custom field value. Order
// follows [Store.List].
func (s *Store) Search(query string, mk vaultcrypto.MasterKey) ([]Entry, error) {
	keys, err := s.List()
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)

	var matches []Entry

	for _, key := range keys {
		entry, err := s.LoadEntry(key, mk)
		if err != nil {
			return nil, err
		}

		if entryMatches(entry, q) {
			matches = append(matches, entry)
		}
	}

	return matches, nil
}

func entryMatches(e Entry, q string) bool {
	contains := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	if contains(e.Key) || contains(string(e.PlaintextValue())) || contains(e.Username) || contains(e.Notes) || contains(e.URL) {
		return true
	}

	for _, tag := range e.Tags {
		if contains(tag) {
			return true
		}
	}

	for _, v := range e.Fields {
		if contains(v) {
			return true
		}
	}

	return false
}
