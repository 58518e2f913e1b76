// Package vaulterrors defines the sentinel error taxonomy shared across
// the core: crypto, codec, vault store, session, export and history
// packages all return (or wrap) one of these so the CLI front-end can map
// a single failure onto a single exit message via clierror.Check.
package vaulterrors

import "errors"

var (
	ErrVaultNotFound    = errors.New("vault not found")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrVaultExists      = errors.New("vault already exists")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrSessionExpired   = errors.New("session expired")
	ErrNoSession        = errors.New("no session")
	ErrDecryptFailure   = errors.New("decryption failed")
	ErrEncryptFailure   = errors.New("encryption failed")
	ErrKdfFailure       = errors.New("key derivation failed")
	ErrIO               = errors.New("i/o error")
	ErrSerialization    = errors.New("serialization error")
	ErrConfig           = errors.New("configuration error")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrImport           = errors.New("import error")
	ErrExport           = errors.New("export error")
	ErrHistoryStore     = errors.New("history store error")
	ErrClipboard        = errors.New("clipboard error")
	ErrOther            = errors.New("other error")

	// ErrNonInteractiveUnsupported and ErrEmptySecret are CLI-facing
	// companions to the core taxonomy above; they never cross a core
	// package boundary but are kept here so clierror has one place to
	// look up user-facing messages.
	ErrNonInteractiveUnsupported = errors.New("non-interactive input not supported")
	ErrEmptySecret               = errors.New("secret cannot be empty")
	ErrSearchNoMatch             = errors.New("no match found")
	ErrAmbiguousMatch            = errors.New("ambiguous match: multiple entries match the search criteria")
)

// InvalidPassword and DecryptFailure are intentionally indistinguishable to
// the user: a caller verifying a session or vault password must return
// ErrInvalidPassword, never leak whether the password or the ciphertext
// was the actual reason decryption failed.
