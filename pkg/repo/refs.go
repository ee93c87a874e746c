package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// ErrAmbiguousRevision is returned when a hash prefix matches more than one
// stored object.
var ErrAmbiguousRevision = errors.New("ambiguous revision")

// ErrUnknownRevision is returned when a revision names neither a ref nor an
// object.
var ErrUnknownRevision = errors.New("unknown revision")

// minPrefixLen is the shortest hash prefix ResolveRevision accepts.
const minPrefixLen = 4

// ListRefs lists references under .mgit/refs.
// Names are returned relative to refs root, e.g. "heads/main".
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	dir := "refs"
	if strings.TrimSpace(prefix) != "" {
		dir = vfs.Join("refs", prefix)
	}

	refs := make(map[string]object.Hash)
	err := vfs.Walk(r.Meta, dir, nil, func(name string, _ fs.DirEntry) error {
		data, err := r.Meta.ReadFile(name)
		if err != nil {
			return err
		}
		refs[strings.TrimPrefix(name, "refs/")] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// ResolveRevision turns a user-supplied revision into a commit-ish hash.
// Accepted forms, in order: "HEAD", a branch name or "refs/..." path, a tag
// name, a full hash, or a unique hash prefix of at least four characters.
func (r *Repo) ResolveRevision(rev string) (object.Hash, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("resolve %q: %w", rev, ErrUnknownRevision)
	}

	h, err := r.ResolveRef(rev)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if !strings.HasPrefix(rev, "refs/") {
		if h, err := r.ResolveRef(tagRef + rev); err == nil {
			return h, nil
		}
	}

	if full, err := object.ParseHash(rev); err == nil {
		if !r.Store.Has(full) {
			return "", fmt.Errorf("resolve %q: %w", rev, object.ErrObjectNotFound)
		}
		return full, nil
	}

	prefix := strings.ToLower(rev)
	if len(prefix) < minPrefixLen || !isHex(prefix) {
		return "", fmt.Errorf("resolve %q: %w", rev, ErrUnknownRevision)
	}
	all, err := r.Store.List()
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rev, err)
	}
	var match object.Hash
	for _, cand := range all {
		if !strings.HasPrefix(string(cand), prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("resolve %q: %w", rev, ErrAmbiguousRevision)
		}
		match = cand
	}
	if match == "" {
		return "", fmt.Errorf("resolve %q: %w", rev, ErrUnknownRevision)
	}
	return match, nil
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
