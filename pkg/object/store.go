package object

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/odvcencio/mgit/pkg/compress"
	"github.com/odvcencio/mgit/pkg/vfs"
)

const objectsDir = "objects"

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
//
// Every file holds the compressed framed object. The FS is expected to be
// rooted at the repository metadata directory.
type Store struct {
	fs    vfs.FS
	codec compress.Codec
}

// NewStore creates a Store on fsys. A nil codec selects compress.Default.
// The objects/ subdirectory is created lazily on first write.
func NewStore(fsys vfs.FS, codec compress.Codec) *Store {
	if codec == nil {
		codec = compress.Default
	}
	return &Store{fs: fsys, codec: codec}
}

// Codec returns the compression codec used for loose objects.
func (s *Store) Codec() compress.Codec {
	return s.codec
}

// objectPath returns the storage name for a given hash. A malformed hash
// here means a caller skipped validation, so it panics.
func (s *Store) objectPath(h Hash) string {
	if !h.Valid() {
		panic(fmt.Sprintf("object path: invalid hash %q", string(h)))
	}
	return vfs.Join(objectsDir, string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	ok, err := s.fs.Exists(s.objectPath(h))
	return err == nil && ok
}

// Put stores an already framed object and returns its hash. Writing an
// object that already exists is a no-op.
func (s *Store) Put(framed []byte) (Hash, error) {
	if _, _, err := SplitFrame(framed); err != nil {
		return "", fmt.Errorf("object put: %w", err)
	}
	h := HashBytes(framed)
	if s.Has(h) {
		return h, nil
	}
	packed, err := s.codec.Compress(framed)
	if err != nil {
		return "", fmt.Errorf("object put %s: compress: %w", h, err)
	}
	if err := s.fs.WriteFile(s.objectPath(h), packed, 0o644); err != nil {
		return "", fmt.Errorf("object put %s: %w", h, err)
	}
	return h, nil
}

// Write frames data as objType and stores it.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	return s.Put(Frame(objType, data))
}

// Get retrieves an object by hash, returning its type and body.
func (s *Store) Get(h Hash) (ObjectType, []byte, error) {
	packed, err := s.ReadRaw(h)
	if err != nil {
		return "", nil, err
	}
	raw, err := s.codec.Decompress(packed)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w: %v", h, ErrInvalidFormat, err)
	}
	objType, body, err := SplitFrame(raw)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return objType, body, nil
}

// ReadRaw returns the stored, still-compressed bytes of an object.
func (s *Store) ReadRaw(h Hash) ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("object read: %w: %q", ErrInvalidHash, string(h))
	}
	packed, err := s.fs.ReadFile(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("object read %s: %w: %w", h, ErrObjectNotFound, err)
		}
		return nil, fmt.Errorf("object read %s: %w", h, err)
	}
	return packed, nil
}

// WriteRaw persists compressed bytes under h after checking that they
// decompress to a well-formed object whose identity is h.
func (s *Store) WriteRaw(h Hash, packed []byte) error {
	if !h.Valid() {
		return fmt.Errorf("object write raw: %w: %q", ErrInvalidHash, string(h))
	}
	raw, err := s.codec.Decompress(packed)
	if err != nil {
		return fmt.Errorf("object write raw %s: %w: %v", h, ErrInvalidFormat, err)
	}
	if _, _, err := SplitFrame(raw); err != nil {
		return fmt.Errorf("object write raw %s: %w", h, err)
	}
	if got := HashBytes(raw); got != h {
		return fmt.Errorf("object write raw %s: %w: content hashes to %s", h, ErrInvalidFormat, got)
	}
	if s.Has(h) {
		return nil
	}
	if err := s.fs.WriteFile(s.objectPath(h), packed, 0o644); err != nil {
		return fmt.Errorf("object write raw %s: %w", h, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Get(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: type mismatch: got %q, want %q", h, ErrInvalidFormat, objType, want)
	}
	return data, nil
}

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Put(EncodeBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	// Get has already removed the frame; data is the exact content.
	return &Blob{Data: data}, nil
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Put(EncodeTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Put(EncodeCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}
