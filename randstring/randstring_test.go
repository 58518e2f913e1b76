package randstring_test

import (
	"strings"
	"testing"

	"github.com/ladzaretti/bunker/randstring"
)

func TestNewLength(t *testing.T) {
	s, err := randstring.New(randstring.Options{Lowercase: true, Length: 24})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(s) != 24 {
		t.Errorf("len(s) = %d, want 24", len(s))
	}
}

func TestNewInvalidLength(t *testing.T) {
	if _, err := randstring.New(randstring.Options{Lowercase: true, Length: 0}); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestNewExcludeAmbiguous(t *testing.T) {
	s, err := randstring.New(randstring.Options{
		Digits:           true,
		Uppercase:        true,
		Lowercase:        true,
		ExcludeAmbiguous: true,
		Length:           500,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, c := range "0Oo1lI" {
		if strings.ContainsRune(s, c) {
			t.Errorf("generated password contains excluded ambiguous character %q", c)
		}
	}
}

func TestNewCustomCharset(t *testing.T) {
	s, err := randstring.New(randstring.Options{CustomCharset: "ab", Length: 200})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, c := range s {
		if c != 'a' && c != 'b' {
			t.Errorf("unexpected character %q outside custom charset", c)
		}
	}
}

func TestNewNoClassesFallsBackToAlphanumeric(t *testing.T) {
	s, err := randstring.New(randstring.Options{Length: 32})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if len(s) != 32 {
		t.Errorf("len(s) = %d, want 32", len(s))
	}

	for _, r := range s {
		if !strings.ContainsRune("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz", r) {
			t.Errorf("unexpected non-alphanumeric rune %q in %q", r, s)
		}
	}
}
