package object

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/odvcencio/mgit/pkg/vfs"
)

// PackDir is where archives live relative to the store root.
const PackDir = objectsDir + "/pack"

// VerifySummary reports the outcome of Store.Verify.
type VerifySummary struct {
	LooseObjects int
	Bytes        int64
}

// List returns the hash of every loose object, sorted.
func (s *Store) List() ([]Hash, error) {
	fanoutDirs, err := s.fs.ReadDir(objectsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read objects dir: %w", err)
	}

	hashes := make([]Hash, 0)
	for _, fanoutDir := range fanoutDirs {
		if !fanoutDir.IsDir() {
			continue
		}
		prefix := fanoutDir.Name()
		if !isHexHashComponent(prefix, 2) {
			continue
		}

		objectEntries, err := s.fs.ReadDir(vfs.Join(objectsDir, prefix))
		if err != nil {
			return nil, fmt.Errorf("read objects fanout %s: %w", prefix, err)
		}
		for _, objectEntry := range objectEntries {
			if objectEntry.IsDir() {
				continue
			}
			suffix := objectEntry.Name()
			if !isHexHashComponent(suffix, HashHexSize-2) {
				continue
			}
			hashes = append(hashes, Hash(prefix+suffix))
		}
	}

	sort.Slice(hashes, func(i, j int) bool {
		return hashes[i] < hashes[j]
	})
	return hashes, nil
}

// Verify re-hashes every loose object. It does not stop at the first
// failure: every corrupt object is reported in the returned error.
func (s *Store) Verify() (*VerifySummary, error) {
	hashes, err := s.List()
	if err != nil {
		return nil, err
	}

	report := &VerifySummary{}
	var result *multierror.Error
	for _, h := range hashes {
		packed, err := s.ReadRaw(h)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("verify %s: %w", h, err))
			continue
		}
		raw, err := s.codec.Decompress(packed)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("verify %s: %w: %v", h, ErrInvalidFormat, err))
			continue
		}
		if _, _, err := SplitFrame(raw); err != nil {
			result = multierror.Append(result, fmt.Errorf("verify %s: %w", h, err))
			continue
		}
		if actual := HashBytes(raw); actual != h {
			result = multierror.Append(result, fmt.Errorf("verify %s: %w: hash mismatch (computed %s)", h, ErrInvalidFormat, actual))
			continue
		}
		report.LooseObjects++
		report.Bytes += int64(len(packed))
	}
	return report, result.ErrorOrNil()
}

// WritePack writes every loose object of s to w as one archive, in hash
// order. It fails with ErrEmptyStore when there is nothing to pack.
func WritePack(s *Store, w io.Writer) (int, error) {
	hashes, err := s.List()
	if err != nil {
		return 0, err
	}
	return writePackHashes(s, w, hashes)
}

// WritePackReachable is WritePack restricted to objects reachable from
// roots.
func WritePackReachable(s *Store, w io.Writer, roots []Hash) (int, error) {
	set, err := s.ReachableSet(roots)
	if err != nil {
		return 0, err
	}
	hashes := make([]Hash, 0, len(set))
	for h := range set {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return writePackHashes(s, w, hashes)
}

func writePackHashes(s *Store, w io.Writer, hashes []Hash) (int, error) {
	if len(hashes) == 0 {
		return 0, fmt.Errorf("write pack: %w", ErrEmptyStore)
	}
	if uint64(len(hashes)) > uint64(^uint32(0)) {
		return 0, fmt.Errorf("write pack: too many objects: %d", len(hashes))
	}

	// Buffer so a failed read never leaves a half-written archive in w.
	var buf bytes.Buffer
	pw, err := NewPackWriter(&buf, uint32(len(hashes)))
	if err != nil {
		return 0, err
	}
	for _, h := range hashes {
		packed, err := s.ReadRaw(h)
		if err != nil {
			return 0, fmt.Errorf("write pack: %w", err)
		}
		if err := pw.WriteEntry(h, packed); err != nil {
			return 0, fmt.Errorf("write pack: %w", err)
		}
	}
	if err := pw.Finish(); err != nil {
		return 0, fmt.Errorf("write pack: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, fmt.Errorf("write pack: %w", err)
	}
	return len(hashes), nil
}

// UnpackInto writes every archive entry into s as a loose object. Each
// payload is verified against its hash before it is stored; the first bad
// entry aborts the unpack.
func UnpackInto(s *Store, entries []PackEntry) (int, error) {
	written := 0
	for _, e := range entries {
		existed := s.Has(e.Hash)
		if err := s.WriteRaw(e.Hash, e.Payload); err != nil {
			return written, fmt.Errorf("unpack: %w", err)
		}
		if !existed {
			written++
		}
	}
	return written, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	if len(s) != expectedLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
