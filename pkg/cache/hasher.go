package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Fingerprint computes a deterministic digest over a canonicalized set of
// key/value fields, truncated to n hex characters. Field order does not
// matter: fields are sorted by key before hashing.
func Fingerprint(fields map[string]string, n int) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonical []byte
	for _, k := range keys {
		canonical = append(canonical, []byte(fmt.Sprintf("%s=%s;", k, fields[k]))...)
	}

	hash := sha256.Sum256(canonical)
	enc := hex.EncodeToString(hash[:])
	if n <= 0 || n > len(enc) {
		return enc
	}
	return enc[:n]
}

// BuildCacheKey joins a namespace and an ordered list of key components into
// a single namespaced cache key, e.g. BuildCacheKey("geocoding", "paris") →
// "geocoding:paris".
func BuildCacheKey(namespace string, parts ...string) string {
	key := namespace
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

// QuickHash is a fast full-length hash for arbitrary byte payloads.
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash is a 16-hex-char hash, used when key length matters more than
// collision resistance over huge key spaces.
func ShortHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}
