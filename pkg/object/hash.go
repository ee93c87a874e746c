package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// HashSize is the length of a raw digest in bytes.
const HashSize = sha1.Size

// HashHexSize is the length of a hex-encoded digest.
const HashHexSize = 2 * HashSize

// EmptyTreeHash is the identity of a tree with no entries.
const EmptyTreeHash Hash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// HashBytes computes the raw SHA-1 of data and returns it as a lowercase
// hex-encoded Hash.
func HashBytes(data []byte) Hash {
	sum := sha1.Sum(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashObject computes the SHA-1 of the envelope "type len\0content". This is
// the identity under which the object is stored.
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	h.Write(frameHeader(objType, len(data)))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// ParseHash validates s as a full hex digest and returns it lowercased.
func ParseHash(s string) (Hash, error) {
	if len(s) != HashHexSize {
		return "", fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidHash, s, len(s), HashHexSize)
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidHash, s, err)
	}
	return Hash(hex.EncodeToString(raw)), nil
}

// Valid reports whether h is a well-formed lowercase hex digest.
func (h Hash) Valid() bool {
	p, err := ParseHash(string(h))
	return err == nil && p == h
}

// Raw decodes the hash into its 20-byte binary form.
func (h Hash) Raw() ([HashSize]byte, error) {
	var out [HashSize]byte
	if len(h) != HashHexSize {
		return out, fmt.Errorf("%w: %q", ErrInvalidHash, string(h))
	}
	if _, err := hex.Decode(out[:], []byte(h)); err != nil {
		return out, fmt.Errorf("%w: %q: %v", ErrInvalidHash, string(h), err)
	}
	return out, nil
}

// Short returns an abbreviated form for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// HashFromRaw encodes a 20-byte binary digest.
func HashFromRaw(raw []byte) (Hash, error) {
	if len(raw) != HashSize {
		return "", fmt.Errorf("%w: raw digest has %d bytes, want %d", ErrInvalidFormat, len(raw), HashSize)
	}
	return Hash(hex.EncodeToString(raw)), nil
}
