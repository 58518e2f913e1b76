package vaultcrypto

import (
	"crypto/cipher"
	"errors"

	"github.com/ladzaretti/bunker/vaulterrors"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the size, in bytes, of a MasterKey and of any key accepted by
// [NewChaCha20Poly1305].
const KeySize = chacha20poly1305.KeySize

// NonceSize is the size, in bytes, of the AEAD nonce.
const NonceSize = chacha20poly1305.NonceSize

// SaltSize is the size, in bytes, of a KDF salt and of the (unused on
// decrypt) salt field carried by an EncryptedValue.
const SaltSize = 32

var ErrNilAEAD = errors.New("chacha20poly1305 cipher is nil")

// ChaCha20Poly1305 wraps a [cipher.AEAD] using the IETF ChaCha20-Poly1305
// construction, the only AEAD this package supports for encrypting entry
// values and export envelopes.
type ChaCha20Poly1305 struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305 constructs a ChaCha20-Poly1305 AEAD from a 32-byte key.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &ChaCha20Poly1305{aead}, nil
}

// Seal encrypts plaintext using the given nonce. nonce must be NonceSize
// bytes and must never be reused under the same key.
func (c *ChaCha20Poly1305) Seal(nonce, plaintext []byte) ([]byte, error) {
	if c == nil {
		return nil, ErrNilAEAD
	}

	return c.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext using the given nonce, returning
// [vaulterrors.ErrDecryptFailure] on an authentication tag mismatch.
func (c *ChaCha20Poly1305) Open(nonce, ciphertext []byte) ([]byte, error) {
	if c == nil {
		return nil, ErrNilAEAD
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, vaulterrors.ErrDecryptFailure
	}

	return plaintext, nil
}

// AEAD returns the underlying cipher.AEAD instance.
func (c *ChaCha20Poly1305) AEAD() cipher.AEAD {
	return c.aead
}
