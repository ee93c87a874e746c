package object

import (
	"encoding/binary"
	"fmt"
	"io"
)

// PackFile is the decoded content of a full archive.
type PackFile struct {
	Header  PackHeader
	Entries []PackEntry
}

// ReadPack parses a complete archive. Any structural fault (truncation,
// trailing bytes, malformed hash) rejects the whole archive with an error
// wrapping ErrInvalidPack; no partial result is returned.
func ReadPack(data []byte) (*PackFile, error) {
	header, err := UnmarshalPackHeader(data)
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	// Every entry needs at least a hash and a length.
	minEntry := uint64(HashHexSize + packLenSize)
	if uint64(header.NumObjects)*minEntry > uint64(len(data)-offset) {
		return nil, fmt.Errorf("%w: count %d exceeds archive size", ErrInvalidPack, header.NumObjects)
	}

	entries := make([]PackEntry, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		if offset+HashHexSize+packLenSize > len(data) {
			return nil, fmt.Errorf("%w: entry %d: truncated header", ErrInvalidPack, i)
		}
		h, err := ParseHash(string(data[offset : offset+HashHexSize]))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidPack, i, err)
		}
		offset += HashHexSize

		size := int(binary.BigEndian.Uint32(data[offset : offset+packLenSize]))
		offset += packLenSize
		if size > len(data)-offset {
			return nil, fmt.Errorf("%w: entry %d (%s): payload truncated: want %d bytes, have %d", ErrInvalidPack, i, h, size, len(data)-offset)
		}

		payload := make([]byte, size)
		copy(payload, data[offset:offset+size])
		offset += size

		entries = append(entries, PackEntry{Hash: h, Payload: payload})
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidPack, len(data)-offset)
	}

	return &PackFile{Header: *header, Entries: entries}, nil
}

// ReadPackFromReader reads a complete archive from r and delegates to
// ReadPack.
func ReadPackFromReader(r io.Reader) (*PackFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack stream: %w", err)
	}
	return ReadPack(data)
}
