// Package randstring implements a character-class-based random secret
// generator for passwords and other generated values.
package randstring

import (
	"crypto/rand"
	"errors"
	"math/big"
)

var (
	ErrInvalidLength = errors.New("length must be greater than 0")
	ErrEmptyAlphabet = errors.New("alphabet must not be empty")
)

const (
	lower   = "abcdefghijklmnopqrstuvwxyz"
	upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	symbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"

	// ambiguous is the exact set excluded when [Options.ExcludeAmbiguous]
	// is set.
	ambiguous = "0Oo1lI"

	alphanumeric = digits + upper + lower
)

// Options configures [New]. A caller that wants every character class
// enabled must say so explicitly -- the CLI layer, not this package,
// applies the "all classes on by default" policy.
type Options struct {
	Lowercase bool
	Uppercase bool
	Digits    bool
	Symbols   bool

	// CustomCharset, if non-empty, replaces the class flags above.
	CustomCharset string

	// ExcludeAmbiguous removes '0','O','o','l','1','I' from the alphabet
	// before sampling.
	ExcludeAmbiguous bool

	Length int
}

// DefaultOptions enables every character class at a 16-character length.
var DefaultOptions = Options{
	Lowercase: true,
	Uppercase: true,
	Digits:    true,
	Symbols:   true,
	Length:    16,
}

// New generates a random password per opts. The result has length exactly
// opts.Length, sampled uniformly from the resolved alphabet via the OS
// CSPRNG. If the alphabet is empty after class selection and ambiguous-
// character filtering, New falls back to a uniform alphanumeric alphabet.
func New(opts Options) (string, error) {
	alphabet := alphabetFor(opts)
	if len(alphabet) == 0 {
		alphabet = alphanumeric
	}

	return generateRandomString(opts.Length, alphabet)
}

func alphabetFor(opts Options) string {
	if len(opts.CustomCharset) > 0 {
		return filterAmbiguous(opts.CustomCharset, opts.ExcludeAmbiguous)
	}

	var alphabet string

	if opts.Lowercase {
		alphabet += lower
	}

	if opts.Uppercase {
		alphabet += upper
	}

	if opts.Digits {
		alphabet += digits
	}

	if opts.Symbols {
		alphabet += symbols
	}

	return filterAmbiguous(alphabet, opts.ExcludeAmbiguous)
}

func filterAmbiguous(alphabet string, exclude bool) string {
	if !exclude {
		return alphabet
	}

	filtered := make([]byte, 0, len(alphabet))

	for i := 0; i < len(alphabet); i++ {
		if isAmbiguous(alphabet[i]) {
			continue
		}

		filtered = append(filtered, alphabet[i])
	}

	return string(filtered)
}

func isAmbiguous(c byte) bool {
	for i := 0; i < len(ambiguous); i++ {
		if ambiguous[i] == c {
			return true
		}
	}

	return false
}

// generateRandomString returns a cryptographically secure random string
// using the given alphabet, sampling each position independently.
func generateRandomString(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}

	if len(alphabet) == 0 {
		return "", ErrEmptyAlphabet
	}

	ret := make([]byte, n)
	for i := range n {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}

		ret[i] = alphabet[num.Int64()]
	}

	return string(ret), nil
}
