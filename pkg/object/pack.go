package object

import (
	"encoding/binary"
	"fmt"
)

// Pack archive layout:
//
//	"MPK1"
//	uint32 count (big-endian)
//	count × { 40-byte hex hash, uint32 length (big-endian), length bytes }
//
// Payloads are the loose-object bytes exactly as stored, so they are already
// compressed with the store's codec.
const (
	packMagic      = "MPK1"
	packHeaderSize = len(packMagic) + 4
	packLenSize    = 4
)

// PackEntry is one (hash, compressed payload) pair of a pack archive.
type PackEntry struct {
	Hash    Hash
	Payload []byte
}

// PackHeader is the fixed-size archive header.
type PackHeader struct {
	NumObjects uint32
}

// Marshal serializes the header to its 8-byte form.
func (h PackHeader) Marshal() []byte {
	buf := make([]byte, packHeaderSize)
	copy(buf[:4], packMagic)
	binary.BigEndian.PutUint32(buf[4:8], h.NumObjects)
	return buf
}

// UnmarshalPackHeader parses the archive header.
func UnmarshalPackHeader(data []byte) (*PackHeader, error) {
	if len(data) < packHeaderSize {
		return nil, fmt.Errorf("%w: header too short: got %d bytes", ErrInvalidPack, len(data))
	}
	if string(data[:4]) != packMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidPack, data[:4])
	}
	return &PackHeader{NumObjects: binary.BigEndian.Uint32(data[4:8])}, nil
}
