// Package cache stores generation results keyed by the content of their
// inputs, so an unchanged declaration unit is not regenerated.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strconv"
)

// FileHasher computes content hashes for cache keys
type FileHasher struct{}

// NewFileHasher creates a new file hasher
func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile computes a SHA-256 hash of the file contents
func (fh *FileHasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashContent computes a SHA-256 hash of the given content
func (fh *FileHasher) HashContent(content []byte) string {
	hasher := sha256.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}

// KeyInputs are the settings that change the generated output for a given
// declaration unit.
type KeyInputs struct {
	UnitHash       string
	CollisionsHash string
	FormatVersion  byte
	PointerSize    int
	ArrayCountSize int
}

// Key derives the cache key of a generation run
func (fh *FileHasher) Key(in KeyInputs) string {
	hasher := sha256.New()
	for _, part := range []string{
		in.UnitHash,
		in.CollisionsHash,
		strconv.Itoa(int(in.FormatVersion)),
		strconv.Itoa(in.PointerSize),
		strconv.Itoa(in.ArrayCountSize),
	} {
		hasher.Write([]byte(part))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
