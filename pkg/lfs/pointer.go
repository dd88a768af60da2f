// Package lfs recognises large file pointers and finds the ones a push
// introduces.
package lfs

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPointerSize is the largest blob that can hold a pointer. Larger blobs
// are ordinary content and are never read by the scanner.
const MaxPointerSize = 1024

// VersionURL is the spec URL written by current clients.
const VersionURL = "https://git-lfs.github.com/spec/v1"

// legacyVersionURL was written by pre-release clients and is still valid.
const legacyVersionURL = "https://hawser.github.com/spec/v1"

const oidPrefix = "sha256:"

// OIDLen is the length of a hex-encoded sha256 oid.
const OIDLen = 64

// ErrNotPointer is returned by ParsePointer for content that is not a valid
// pointer file.
var ErrNotPointer = errors.New("not a pointer")

// Pointer references a large object stored outside the repository.
type Pointer struct {
	OID  string // 64 lowercase hex characters, without the "sha256:" prefix
	Size int64
	Path string // tree path the pointer was found at; empty when parsed directly
}

// Encode renders p in canonical pointer form.
func (p Pointer) Encode() []byte {
	return fmt.Appendf(nil, "version %s\noid %s%s\nsize %d\n", VersionURL, oidPrefix, p.OID, p.Size)
}

// ParsePointer strictly validates data as a pointer file. Anything that
// deviates from the canonical layout returns an error wrapping
// ErrNotPointer.
func ParsePointer(data []byte) (Pointer, error) {
	if len(data) == 0 || len(data) > MaxPointerSize {
		return Pointer{}, fmt.Errorf("%w: size %d", ErrNotPointer, len(data))
	}
	if data[len(data)-1] != '\n' {
		return Pointer{}, fmt.Errorf("%w: missing trailing newline", ErrNotPointer)
	}
	if bytes.IndexByte(data, '\r') >= 0 {
		return Pointer{}, fmt.Errorf("%w: carriage return", ErrNotPointer)
	}

	lines := strings.Split(string(data[:len(data)-1]), "\n")
	version, ok := strings.CutPrefix(lines[0], "version ")
	if !ok || (version != VersionURL && version != legacyVersionURL) {
		return Pointer{}, fmt.Errorf("%w: bad version line %q", ErrNotPointer, lines[0])
	}

	var (
		p       Pointer
		hasOID  bool
		hasSize bool
		prevKey string
	)
	for _, line := range lines[1:] {
		key, val, ok := strings.Cut(line, " ")
		if !ok || !validKey(key) || val == "" {
			return Pointer{}, fmt.Errorf("%w: malformed line %q", ErrNotPointer, line)
		}
		if key <= prevKey || key == "version" {
			return Pointer{}, fmt.Errorf("%w: key %q out of order", ErrNotPointer, key)
		}
		prevKey = key

		switch key {
		case "oid":
			oid, err := parseOID(val)
			if err != nil {
				return Pointer{}, err
			}
			p.OID = oid
			hasOID = true
		case "size":
			size, err := parseSize(val)
			if err != nil {
				return Pointer{}, err
			}
			p.Size = size
			hasSize = true
		}
	}
	if !hasOID || !hasSize {
		return Pointer{}, fmt.Errorf("%w: missing oid or size", ErrNotPointer)
	}
	return p, nil
}

// ValidOID reports whether oid is 64 lowercase hex characters.
func ValidOID(oid string) bool {
	if len(oid) != OIDLen {
		return false
	}
	for i := 0; i < len(oid); i++ {
		c := oid[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func parseOID(val string) (string, error) {
	oid, ok := strings.CutPrefix(val, oidPrefix)
	if !ok || !ValidOID(oid) {
		return "", fmt.Errorf("%w: bad oid %q", ErrNotPointer, val)
	}
	return oid, nil
}

func parseSize(val string) (int64, error) {
	if val != "0" && strings.HasPrefix(val, "0") {
		return 0, fmt.Errorf("%w: bad size %q", ErrNotPointer, val)
	}
	for i := 0; i < len(val); i++ {
		if val[i] < '0' || val[i] > '9' {
			return 0, fmt.Errorf("%w: bad size %q", ErrNotPointer, val)
		}
	}
	size, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad size %q", ErrNotPointer, val)
	}
	return size, nil
}

// validKey accepts lowercase alphanumerics plus '.' and '-', which covers
// "oid", "size" and "ext-0-name" style extension keys.
func validKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '.' && c != '-' {
			return false
		}
	}
	return true
}
