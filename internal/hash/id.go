package hash

import "github.com/cespare/xxhash/v2"

// FieldID computes the xxHash64 of a field key given as raw bytes, typically
// a key token's span inside a JSON source buffer. No copy is made.
func FieldID(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// FieldIDString computes the xxHash64 of a field key given as a string.
func FieldIDString(key string) uint64 {
	return xxhash.Sum64String(key)
}
