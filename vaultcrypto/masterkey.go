package vaultcrypto

// MasterKey is the 32-byte symmetric key that encrypts every entry in a
// vault. It is derived once per vault unlock and held only in process
// memory; [MasterKey.Clear] must be called (typically via defer) as soon
// as the key is no longer needed.
type MasterKey struct {
	b [KeySize]byte
}

// NewMasterKey copies raw into a new MasterKey. raw must be KeySize bytes.
func NewMasterKey(raw []byte) MasterKey {
	var mk MasterKey

	copy(mk.b[:], raw)

	return mk
}

// Bytes returns the key material. Callers must not retain the returned
// slice beyond the MasterKey's lifetime.
func (mk *MasterKey) Bytes() []byte {
	return mk.b[:]
}

// Clear overwrites the key buffer with zeros. Safe to call more than once.
func (mk *MasterKey) Clear() {
	SecureClear(mk.b[:])
}

// SecureClear overwrites buf with zeros before it is released, per spec
// §4.1's secure_clear contract. Go's GC can still relocate/copy the
// backing array before this runs; this is a best-effort wipe, not a
// guarantee against a sufficiently motivated memory-forensics attacker.
func SecureClear(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
