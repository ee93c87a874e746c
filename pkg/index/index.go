// Package index implements the flat staging list: the path-keyed set of
// (mode, path, hash) entries that the next commit will snapshot.
//
// On disk the list is plain text, one entry per line:
//
//	<mode> <hash> <path>\n
//
// Lines are always written in path order so the file is stable across
// writers. The path is everything after the second space, so paths may
// contain spaces.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// ErrInvalidIndex marks a staging file line that does not parse.
var ErrInvalidIndex = errors.New("invalid index")

// Entry is one staged file.
type Entry struct {
	Mode string
	Path string
	Hash object.Hash
}

// Index is a path-keyed ordered map of entries. The zero value is not
// usable; call New or Parse.
type Index struct {
	entries map[string]Entry
}

// New returns an empty index.
func New() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// FromEntries builds an index from entries. Later duplicates of a path
// replace earlier ones.
func FromEntries(entries []Entry) *Index {
	ix := New()
	for _, e := range entries {
		ix.Upsert(e)
	}
	return ix
}

// Parse decodes the staging text format. Blank lines and CR line endings
// are tolerated. A line with fewer than three fields, an empty mode or path,
// or a hash that is not 40 hex characters fails with ErrInvalidIndex.
func Parse(data []byte) (*Index, error) {
	ix := New()
	for n, line := range bytes.Split(data, []byte("\n")) {
		text := strings.TrimRight(string(line), "\r")
		if text == "" {
			continue
		}
		mode, rest, ok := strings.Cut(text, " ")
		if !ok || mode == "" {
			return nil, fmt.Errorf("%w: line %d: missing mode", ErrInvalidIndex, n+1)
		}
		hashText, path, ok := strings.Cut(rest, " ")
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: line %d: missing path", ErrInvalidIndex, n+1)
		}
		h, err := object.ParseHash(hashText)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidIndex, n+1, err)
		}
		ix.Upsert(Entry{Mode: mode, Path: path, Hash: h})
	}
	return ix, nil
}

// Marshal encodes the index in path order.
func (ix *Index) Marshal() []byte {
	var buf bytes.Buffer
	for _, e := range ix.Entries() {
		buf.WriteString(e.Mode)
		buf.WriteByte(' ')
		buf.WriteString(string(e.Hash))
		buf.WriteByte(' ')
		buf.WriteString(e.Path)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Upsert inserts e or replaces the entry with the same path.
func (ix *Index) Upsert(e Entry) {
	e.Path = vfs.Clean(e.Path)
	if e.Mode == "" {
		e.Mode = object.TreeModeFile
	}
	ix.entries[e.Path] = e
}

// Remove deletes path and reports whether it was staged.
func (ix *Index) Remove(path string) bool {
	path = vfs.Clean(path)
	if _, ok := ix.entries[path]; !ok {
		return false
	}
	delete(ix.entries, path)
	return true
}

// Get returns the entry staged at path.
func (ix *Index) Get(path string) (Entry, bool) {
	e, ok := ix.entries[vfs.Clean(path)]
	return e, ok
}

// Len returns the number of staged entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Paths returns all staged paths in lexical order.
func (ix *Index) Paths() []string {
	paths := lo.Keys(ix.entries)
	sort.Strings(paths)
	return paths
}

// Entries returns all entries in path order.
func (ix *Index) Entries() []Entry {
	return lo.Map(ix.Paths(), func(p string, _ int) Entry {
		return ix.entries[p]
	})
}

// Map returns a path→entry copy of the index.
func (ix *Index) Map() map[string]Entry {
	out := make(map[string]Entry, len(ix.entries))
	for p, e := range ix.entries {
		out[p] = e
	}
	return out
}

// Load reads the staging file name from fsys. A missing file yields an
// empty index.
func Load(fsys vfs.FS, name string) (*Index, error) {
	data, err := fsys.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read index: %w", err)
	}
	ix, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	return ix, nil
}

// Save writes the whole index to name. The write is atomic but not locked;
// concurrent read-modify-write cycles must be serialized by the caller.
func (ix *Index) Save(fsys vfs.FS, name string) error {
	if err := fsys.WriteFile(name, ix.Marshal(), 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
