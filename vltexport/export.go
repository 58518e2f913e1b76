// Package vltexport implements the portable vault-export/import envelope:
// a password-encrypted, checksummed JSON archive of a vault's raw entry
// files plus its VaultConfig.
package vltexport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ladzaretti/bunker/util"
	"github.com/ladzaretti/bunker/vault"
	"github.com/ladzaretti/bunker/vaultcrypto"
	"github.com/ladzaretti/bunker/vaulterrors"
)

const envelopeVersion = "1.0"

// Envelope is the on-disk shape of an exported vault.
type Envelope struct {
	BunkerExport  bool   `json:"bunker_export"`
	Version       string `json:"version"`
	EncryptedData string `json:"encrypted_data"`
	Nonce         string `json:"nonce"`
	Salt          string `json:"salt"`
	Checksum      string `json:"checksum"`
}

// innerPayload is the plaintext bundled inside an Envelope once decrypted.
type innerPayload struct {
	Version     string            `json:"version"`
	VaultConfig vault.VaultConfig `json:"vault_config"`
	Entries     map[string]string `json:"entries"`
	ExportedAt  time.Time         `json:"exported_at"`
}

var b64 = base64.StdEncoding

// Export walks every entry file under the vault's store/ directory
// verbatim (still encrypted; no re-encryption of entry contents happens
// here), bundles them with the VaultConfig into canonical JSON, and
// password-encrypts the bundle.
func Export(s *vault.Store, password []byte, params vaultcrypto.Argon2Params) (Envelope, error) {
	cfg, err := s.Config()
	if err != nil {
		return Envelope{}, err
	}

	keys, err := s.List()
	if err != nil {
		return Envelope{}, err
	}

	entries := make(map[string]string, len(keys))

	for _, key := range keys {
		path := s.EntryPath(key)

		raw, err := os.ReadFile(path)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", vaulterrors.ErrExport, err)
		}

		entries[key] = string(raw)
	}

	inner := innerPayload{
		Version:     envelopeVersion,
		VaultConfig: cfg,
		Entries:     entries,
		ExportedAt:  time.Now(),
	}

	canonical, err := json.Marshal(inner)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	ciphertext, nonce, salt, err := vaultcrypto.EncryptWithPassword(canonical, password, params)
	if err != nil {
		return Envelope{}, vaulterrors.ErrEncryptFailure
	}

	return Envelope{
		BunkerExport:  true,
		Version:       envelopeVersion,
		EncryptedData: b64.EncodeToString(ciphertext),
		Nonce:         b64.EncodeToString(nonce),
		Salt:          b64.EncodeToString(salt),
		Checksum:      vaultcrypto.Checksum(ciphertext),
	}, nil
}

// Import verifies and decrypts env, then materializes a new vault at
// destPath named newVaultName, preserving the original vault identifier --
// the id doubles as the master-key salt, so changing it would invalidate
// every entry. It writes nothing to destPath until the checksum has been
// verified.
func Import(env Envelope, password []byte, destPath, newVaultName string, params vaultcrypto.Argon2Params) (*vault.Store, error) {
	if !env.BunkerExport {
		return nil, fmt.Errorf("%w: not a bunker export", vaulterrors.ErrImport)
	}

	ciphertext, err := b64.DecodeString(env.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encrypted_data encoding: %v", vaulterrors.ErrImport, err)
	}

	nonce, err := b64.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid nonce encoding: %v", vaulterrors.ErrImport, err)
	}

	salt, err := b64.DecodeString(env.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid salt encoding: %v", vaulterrors.ErrImport, err)
	}

	if vaultcrypto.Checksum(ciphertext) != env.Checksum {
		return nil, vaulterrors.ErrChecksumMismatch
	}

	plaintext, err := vaultcrypto.DecryptWithPassword(ciphertext, nonce, salt, password, params)
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}

	var inner innerPayload
	if err := json.Unmarshal(plaintext, &inner); err != nil {
		return nil, fmt.Errorf("%w: %v", vaulterrors.ErrSerialization, err)
	}

	cfg := inner.VaultConfig
	cfg.Name = newVaultName

	s, err := vault.Init(destPath, cfg)
	if err != nil {
		return nil, err
	}

	for key, raw := range inner.Entries {
		path := s.EntryPath(key)

		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
		}

		if err := util.AtomicWriteFile(path, []byte(raw), 0o600); err != nil {
			return nil, fmt.Errorf("%w: %v", vaulterrors.ErrIO, err)
		}
	}

	return s, nil
}
