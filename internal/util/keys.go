package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StorageKey returns the provider key holding a collection snapshot:
// mirror:<namespace>:<collection>.
func StorageKey(namespace, collection string) string {
	var b strings.Builder
	b.Grow(len("mirror:") + len(namespace) + 1 + len(collection))
	b.WriteString("mirror:")
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(collection)
	return b.String()
}

// ShortHash is the first 16 hex chars of sha256(s). Used to keep keys and
// references out of logs.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
