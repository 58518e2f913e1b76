// Package vaultcrypto implements the fixed cryptographic primitives used
// throughout bunker: Argon2id key derivation, ChaCha20-Poly1305 AEAD
// encryption, password verifiers, checksums, and the CSPRNG helpers they
// are all built from. Every choice here is fixed and non-negotiable:
// 32-byte keys, 12-byte nonces, 32-byte salts, Argon2id with cost defaults
// of time=3/memory=64MiB/parallelism=2, SHA-256 checksums rendered as
// lowercase hex.
package vaultcrypto

import (
	"crypto/subtle"

	"github.com/ladzaretti/bunker/vaulterrors"
)

// EncryptedValue is the (nonce, ciphertext, salt) tuple produced by the
// AEAD step. salt is carried for format symmetry with the rest of the
// on-disk schema but is not used when decrypting an inner value.
type EncryptedValue struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Salt       []byte `json:"salt"`
}

// DeriveKey derives a 32-byte MasterKey from password and salt using
// Argon2id with the given cost parameters. It is deterministic: the same
// (password, salt, params) always yields the same key.
func DeriveKey(password, salt []byte, params Argon2Params) (MasterKey, error) {
	kdf := NewArgon2idKDF(WithSalt(salt), WithParams(params))

	raw, err := kdf.Derive(password)
	if err != nil {
		return MasterKey{}, vaulterrors.ErrKdfFailure
	}

	defer SecureClear(raw)

	return NewMasterKey(raw), nil
}

// Encrypt AEAD-encrypts plaintext under key, generating a fresh nonce and
// a fresh (unused-on-decrypt) salt for format symmetry.
func Encrypt(plaintext []byte, key MasterKey) (EncryptedValue, error) {
	nonce, err := RandBytes(NonceSize)
	if err != nil {
		return EncryptedValue{}, vaulterrors.ErrEncryptFailure
	}

	salt, err := RandBytes(SaltSize)
	if err != nil {
		return EncryptedValue{}, vaulterrors.ErrEncryptFailure
	}

	aead, err := NewChaCha20Poly1305(key.Bytes())
	if err != nil {
		return EncryptedValue{}, vaulterrors.ErrEncryptFailure
	}

	ciphertext, err := aead.Seal(nonce, plaintext)
	if err != nil {
		return EncryptedValue{}, vaulterrors.ErrEncryptFailure
	}

	return EncryptedValue{Nonce: nonce, Ciphertext: ciphertext, Salt: salt}, nil
}

// Decrypt AEAD-decrypts ev under key. A tag mismatch (wrong key or
// tampered ciphertext) surfaces as [vaulterrors.ErrDecryptFailure].
func Decrypt(ev EncryptedValue, key MasterKey) ([]byte, error) {
	aead, err := NewChaCha20Poly1305(key.Bytes())
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}

	plaintext, err := aead.Open(ev.Nonce, ev.Ciphertext)
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}

	return plaintext, nil
}

// HashPassword produces an Argon2id PHC-formatted verifier string for
// password. The verifier is used only for session authentication, never
// as key material.
func HashPassword(password []byte, params Argon2Params) (string, error) {
	salt, err := RandBytes(SaltSize)
	if err != nil {
		return "", vaulterrors.ErrKdfFailure
	}

	kdf := NewArgon2idKDF(WithSalt(salt), WithParams(params))

	hash, err := kdf.Derive(password)
	if err != nil {
		return "", vaulterrors.ErrKdfFailure
	}

	phc := kdf.PHC()
	phc.Salt = salt
	phc.Hash = hash

	return phc.String(), nil
}

// VerifyPassword reports whether password matches the PHC-formatted
// verifier produced by [HashPassword].
func VerifyPassword(password []byte, verifier string) (bool, error) {
	phc, err := DecodeAragon2idPHC(verifier)
	if err != nil {
		return false, vaulterrors.ErrKdfFailure
	}

	kdf := NewArgon2idKDF(WithSalt(phc.Salt), WithParams(phc.Argon2Params), WithVersion(phc.Version), WithKeyLen(uint32(len(phc.Hash))))

	derived, err := kdf.Derive(password)
	if err != nil {
		return false, vaulterrors.ErrKdfFailure
	}

	defer SecureClear(derived)

	return subtle.ConstantTimeCompare(phc.Hash, derived) == 1, nil
}

// EncryptWithPassword derives an ephemeral key from password and a fresh
// salt, then AEAD-encrypts plaintext. Used by the export envelope, where
// the key only needs to exist for the duration of one export/import.
func EncryptWithPassword(plaintext, password []byte, params Argon2Params) (ciphertext, nonce, salt []byte, err error) {
	salt, err = RandBytes(SaltSize)
	if err != nil {
		return nil, nil, nil, vaulterrors.ErrEncryptFailure
	}

	key, err := DeriveKey(password, salt, params)
	if err != nil {
		return nil, nil, nil, vaulterrors.ErrEncryptFailure
	}
	defer key.Clear()

	nonce, err = RandBytes(NonceSize)
	if err != nil {
		return nil, nil, nil, vaulterrors.ErrEncryptFailure
	}

	aead, err := NewChaCha20Poly1305(key.Bytes())
	if err != nil {
		return nil, nil, nil, vaulterrors.ErrEncryptFailure
	}

	ciphertext, err = aead.Seal(nonce, plaintext)
	if err != nil {
		return nil, nil, nil, vaulterrors.ErrEncryptFailure
	}

	return ciphertext, nonce, salt, nil
}

// DecryptWithPassword is the inverse of [EncryptWithPassword].
func DecryptWithPassword(ciphertext, nonce, salt, password []byte, params Argon2Params) ([]byte, error) {
	key, err := DeriveKey(password, salt, params)
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}
	defer key.Clear()

	aead, err := NewChaCha20Poly1305(key.Bytes())
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}

	return aead.Open(nonce, ciphertext)
}
