package object

import (
	"encoding/binary"
	"fmt"
	"io"
)

type packCountedWriter struct {
	w io.Writer
	n uint64
}

func (cw *packCountedWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	return n, err
}

// PackWriter streams an MPK1 archive. The entry count is fixed up front and
// Finish fails if a different number of entries was written.
type PackWriter struct {
	out      *packCountedWriter
	expected uint32
	written  uint32
	finished bool
}

// NewPackWriter writes the archive header for numObjects entries.
func NewPackWriter(out io.Writer, numObjects uint32) (*PackWriter, error) {
	pw := &PackWriter{
		out:      &packCountedWriter{w: out},
		expected: numObjects,
	}
	header := PackHeader{NumObjects: numObjects}
	if _, err := pw.out.Write(header.Marshal()); err != nil {
		return nil, fmt.Errorf("write pack header: %w", err)
	}
	return pw, nil
}

// BytesWritten returns the archive size so far.
func (p *PackWriter) BytesWritten() uint64 {
	return p.out.n
}

// WriteEntry appends one (hash, payload) entry.
func (p *PackWriter) WriteEntry(h Hash, payload []byte) error {
	if p.finished {
		return fmt.Errorf("pack writer already finished")
	}
	if p.written >= p.expected {
		return fmt.Errorf("pack object count exceeded: expected %d", p.expected)
	}
	if !h.Valid() {
		return fmt.Errorf("write pack entry: %w: %q", ErrInvalidHash, string(h))
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("write pack entry %s: payload too large: %d bytes", h, len(payload))
	}

	if _, err := io.WriteString(p.out, string(h)); err != nil {
		return fmt.Errorf("write pack entry hash: %w", err)
	}
	var lenBuf [packLenSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := p.out.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write pack entry length: %w", err)
	}
	if _, err := p.out.Write(payload); err != nil {
		return fmt.Errorf("write pack entry payload: %w", err)
	}

	p.written++
	return nil
}

// Finish validates the entry count. No trailer is written.
func (p *PackWriter) Finish() error {
	if p.finished {
		return fmt.Errorf("pack writer already finished")
	}
	if p.written != p.expected {
		return fmt.Errorf("pack object count mismatch: wrote %d, expected %d", p.written, p.expected)
	}
	p.finished = true
	return nil
}
