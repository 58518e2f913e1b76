package vaultcrypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Checksum returns the lowercase hex-encoded SHA-256 digest of b.
//
// No third-party checksum library appears anywhere in the retrieved
// example pack; crypto/sha256 is the stdlib and is used here directly
// (see DESIGN.md).
func Checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
