package object

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrNotFound is returned when an object is absent from the store.
var ErrNotFound = errors.New("object not found")

// maxHeaderLen bounds the "type len\0" envelope read by Stat.
const maxHeaderLen = 64

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and
// one decoder serve every Store.
var (
	objectEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	objectDecoder, _ = zstd.NewReader(nil)
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Each file holds the
// zstd-compressed envelope "type len\0content".
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writes are atomic:
// data is written to a temp file and then renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	h := HashObject(objType, data)
	if s.Has(h) {
		return h, nil
	}

	envelope := fmt.Appendf(nil, "%s %d\x00", objType, len(data))
	raw := objectEncoder.EncodeAll(append(envelope, data...), nil)

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}
	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, fmt.Errorf("object read %q: invalid hash", h)
	}
	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	raw, err := objectDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: decompress: %w", h, err)
	}

	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid format (no NUL)", h)
	}
	objType, length, err := parseEnvelope(string(raw[:nulIdx]))
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	content := raw[nulIdx+1:]
	if int64(len(content)) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d)", h, length, len(content))
	}
	return objType, content, nil
}

// Stat returns an object's type and content length by decoding only the
// envelope header.
func (s *Store) Stat(h Hash) (ObjectType, int64, error) {
	if !h.Valid() {
		return "", 0, fmt.Errorf("object stat %q: invalid hash", h)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, fmt.Errorf("object stat %s: %w", h, ErrNotFound)
		}
		return "", 0, fmt.Errorf("object stat %s: %w", h, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return "", 0, fmt.Errorf("object stat %s: %w", h, err)
	}
	defer dec.Close()

	br := bufio.NewReaderSize(io.LimitReader(dec, maxHeaderLen), maxHeaderLen)
	header, err := br.ReadString(0)
	if err != nil {
		return "", 0, fmt.Errorf("object stat %s: invalid format (no NUL): %w", h, err)
	}
	objType, length, err := parseEnvelope(strings.TrimSuffix(header, "\x00"))
	if err != nil {
		return "", 0, fmt.Errorf("object stat %s: %w", h, err)
	}
	return objType, length, nil
}

func parseEnvelope(header string) (ObjectType, int64, error) {
	typ, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", 0, fmt.Errorf("invalid header %q", header)
	}
	length, err := strconv.ParseInt(lenStr, 10, 64)
	if err != nil || length < 0 {
		return "", 0, fmt.Errorf("invalid length %q", lenStr)
	}
	return ObjectType(typ), length, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj. The empty tree resolves
// without a store lookup.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	if h == EmptyTreeHash {
		return &TreeObj{}, nil
	}
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return UnmarshalTree(data)
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return UnmarshalCommit(data)
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: type mismatch: got %q, want %q", h, objType, want)
	}
	return data, nil
}
