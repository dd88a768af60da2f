package object

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// HashLen is the length of a hex-encoded Hash.
const HashLen = 64

// ZeroHash is the null revision. Push hooks report it as the old value of a
// newly created ref and as the new value of a deleted ref.
const ZeroHash = Hash("0000000000000000000000000000000000000000000000000000000000000000")

// EmptyTreeHash is the hash of a tree with no entries. It is valid as a diff
// base even when no such object has been written to a store.
var EmptyTreeHash = HashObject(TypeTree, nil)

// HashBytes computes the raw SHA-256 hash of data and returns it as a
// lowercase hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-256 of the envelope "type len\0content",
// mirroring Git's object hashing but with SHA-256.
func HashObject(objType ObjectType, data []byte) Hash {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	h := sha256.New()
	h.Write([]byte(header))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// IsZero reports whether h is empty or the null revision.
func (h Hash) IsZero() bool {
	return strings.TrimSpace(string(h)) == "" || h == ZeroHash
}

// Valid reports whether h is a well-formed lowercase hex digest.
func (h Hash) Valid() bool {
	if len(h) != HashLen {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
