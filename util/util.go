package util

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Ptr returns a pointer to a copy of t. Handy for populating optional
// fields in struct literals without an intermediate variable.
func Ptr[T any](t T) *T {
	return &t
}

func ParseCommaSeparated(raw string) []string {
	res := make([]string, 0, 8)

	split := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' })
	for _, s := range split {
		if l := strings.TrimSpace(s); len(l) > 0 {
			res = append(res, l)
		}
	}

	return res
}

func ToAnySlice[T any](ts []T) []any {
	args := make([]any, len(ts))

	for i, t := range ts {
		args[i] = t
	}

	return args
}

// SliceWithout returns a new slice containing all elements of s
// except those found in the excluded list.
func SliceWithout[T comparable](s []T, excluded ...T) []T {
	result := make([]T, 0, len(s))
	for _, t := range s {
		if !slices.Contains(excluded, t) {
			result = append(result, t)
		}
	}

	return result
}

// AtomicWriteFile writes data to path by first writing to a temp file in
// the same directory and then renaming it into place, so a crash or power
// loss mid-write never leaves path holding a truncated or partial file.
// This resolves the on-disk write-durability open question: every vault
// file and the session file are written with this helper.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)

		return err
	}

	return os.Rename(tmpName, path)
}
