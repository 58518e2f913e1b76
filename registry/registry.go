// Package registry implements the global, cross-vault bookkeeping that sits
// above any single vault: base directory discovery and vault enumeration.
// Choosing the default vault is left to the CLI, which reads it from the
// global config file.
package registry

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaulterrors"
)

const (
	vaultsDirName   = "vaults"
	sessionsDirName = "sessions"
	backupsDirName  = "backups"
	configFileName  = "config.toml"
)

// Registry resolves the well-known subdirectories of the base directory
// (the `<HOME>/.bunker/` layout) and enumerates the vaults found there.
type Registry struct {
	base string
}

// New returns a Registry rooted at base (typically `~/.bunker`).
func New(base string) *Registry {
	return &Registry{base: base}
}

// DefaultBase returns `~/.bunker`, resolved via [os.UserHomeDir].
func DefaultBase() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".bunker"), nil
}

func (r *Registry) Base() string { return r.base }

func (r *Registry) VaultsDir() string   { return filepath.Join(r.base, vaultsDirName) }
func (r *Registry) SessionsDir() string { return filepath.Join(r.base, sessionsDirName) }
func (r *Registry) BackupsDir() string  { return filepath.Join(r.base, backupsDirName) }
func (r *Registry) ConfigPath() string  { return filepath.Join(r.base, configFileName) }

// VaultPath returns the directory a named vault lives (or would live) at.
func (r *Registry) VaultPath(name string) string {
	return filepath.Join(r.VaultsDir(), name)
}

// EnsureLayout creates the base directory tree's fixed subdirectories if
// absent. It does not create a config file or any vault.
func (r *Registry) EnsureLayout() error {
	for _, dir := range []string{r.base, r.VaultsDir(), r.SessionsDir(), r.BackupsDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return vaulterrors.ErrIO
		}
	}

	return nil
}

// List enumerates every vault name present under the vaults directory,
// sorted lexicographically. A subdirectory only counts as a vault if
// [vault.Exists] reports a `.vault` file inside it.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.VaultsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, vaulterrors.ErrIO
	}

	var names []string

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		if vault.Exists(filepath.Join(r.VaultsDir(), e.Name())) {
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	return names, nil
}

// Exists reports whether a named vault is present under the vaults
// directory.
func (r *Registry) Exists(name string) bool {
	return vault.Exists(r.VaultPath(name))
}

// Open binds a [vault.Store] to the named vault, failing with
// [vaulterrors.ErrVaultNotFound] if it does not exist.
func (r *Registry) Open(name string) (*vault.Store, error) {
	path := r.VaultPath(name)

	if !vault.Exists(path) {
		return nil, vaulterrors.ErrVaultNotFound
	}

	return vault.Open(path), nil
}

// Delete removes a vault's entire directory tree. It does not touch the
// vault's session file; callers should call the session keeper's Lock
// first.
func (r *Registry) Delete(name string) error {
	path := r.VaultPath(name)

	if !vault.Exists(path) {
		return vaulterrors.ErrVaultNotFound
	}

	if err := os.RemoveAll(path); err != nil {
		return vaulterrors.ErrIO
	}

	return nil
}
