package vaultcrypto

import (
	"github.com/ladzaretti/bunker/vaulterrors"

	"golang.org/x/crypto/argon2"
)

// DefaultArgon2idVersion is the argon2 version recorded in a newly built PHC
// string when no override is configured.
const DefaultArgon2idVersion = 19

// Argon2Params represents the parameters for the Argon2id KDF.
type Argon2Params struct {
	Memory      uint32 // Memory cost in KiB
	Time        uint32 // Time cost (iterations)
	Parallelism uint8  // Parallelism factor (number of threads)
}

// DefaultArgon2Params mirrors the EncryptionConfig defaults: time=3,
// memory=64 MiB, parallelism=2.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 2,
}

// Argon2idKDF derives symmetric keys from a password and a salt using
// Argon2id. The zero value is not usable; construct with [NewArgon2idKDF].
type Argon2idKDF struct {
	phc    Argon2idPHC
	salt   []byte
	keyLen uint32 // keyLen is the length of the derived key in bytes.
}

type Argon2idKDFOpt func(*Argon2idKDF)

// NewArgon2idKDF creates a new [Argon2idKDF] using [DefaultArgon2Params],
// [DefaultArgon2idVersion], and a 32-byte key length, overridable via opts.
func NewArgon2idKDF(opts ...Argon2idKDFOpt) *Argon2idKDF {
	kdf := &Argon2idKDF{
		phc: Argon2idPHC{
			Argon2Params: DefaultArgon2Params,
			Version:      DefaultArgon2idVersion,
		},
		keyLen: 32,
	}

	for _, opt := range opts {
		opt(kdf)
	}

	return kdf
}

func WithSalt(salt []byte) Argon2idKDFOpt {
	return func(kdf *Argon2idKDF) {
		kdf.salt = salt
	}
}

func WithPHC(phc Argon2idPHC) Argon2idKDFOpt {
	return func(kdf *Argon2idKDF) {
		kdf.phc = phc
	}
}

func WithParams(params Argon2Params) Argon2idKDFOpt {
	return func(kdf *Argon2idKDF) {
		kdf.phc.Argon2Params = params
	}
}

func WithVersion(v int) Argon2idKDFOpt {
	return func(kdf *Argon2idKDF) {
		kdf.phc.Version = v
	}
}

func WithKeyLen(n uint32) Argon2idKDFOpt {
	return func(kdf *Argon2idKDF) {
		kdf.keyLen = n
	}
}

// Derive runs Argon2id over password using the configured salt and cost
// parameters. Argon2 itself has no failure mode for well-formed inputs;
// the panic recovery here exists only to satisfy DeriveKey's contract that
// a malformed parameter set (e.g. a corrupted PHC string) surfaces as
// ErrKdfFailure instead of crashing the process.
func (a *Argon2idKDF) Derive(password []byte) (key []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			key, err = nil, vaulterrors.ErrKdfFailure
		}
	}()

	params := a.phc.Argon2Params

	return argon2.IDKey(password, a.salt, params.Time, params.Memory, params.Parallelism, a.keyLen), nil
}

func (a *Argon2idKDF) PHC() Argon2idPHC {
	return a.phc
}
