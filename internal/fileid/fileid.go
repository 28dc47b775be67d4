// Package fileid derives deterministic pattern ids for records ingested from files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	prefix    = "file:"
	hashChars = 16
)

// PathKey returns a short stable key for path. Paths that differ only in
// cleaning (trailing slash, "." segments) share a key.
func PathKey(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:])[:hashChars]
}

// PatternID returns the id of the n-th record (0-based) read from path.
func PatternID(path string, n int) string {
	return prefix + PathKey(path) + ":" + strconv.Itoa(n)
}

// FromPath reports whether id was produced by PatternID for path.
func FromPath(id, path string) bool {
	return strings.HasPrefix(id, prefix+PathKey(path)+":")
}
