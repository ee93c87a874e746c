package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// PackOptions selects which loose objects go into a pack.
type PackOptions struct {
	// ReachableOnly restricts the pack to objects reachable from refs and
	// HEAD instead of every loose object.
	ReachableOnly bool
}

// PackSummary describes a written pack archive.
type PackSummary struct {
	Name    string // path relative to .mgit/
	Objects int
	Bytes   int
}

// Pack bundles loose objects into .mgit/objects/pack/pack-<sha1>.mpk, named
// by the SHA-1 of the archive bytes. Loose objects are kept.
func (r *Repo) Pack(opts PackOptions) (*PackSummary, error) {
	var (
		buf bytes.Buffer
		n   int
		err error
	)
	if opts.ReachableOnly {
		roots, rerr := r.refRoots()
		if rerr != nil {
			return nil, fmt.Errorf("pack: %w", rerr)
		}
		n, err = object.WritePackReachable(r.Store, &buf, roots)
	} else {
		n, err = object.WritePack(r.Store, &buf)
	}
	if err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}

	name := vfs.Join(object.PackDir, "pack-"+string(object.HashBytes(buf.Bytes()))+".mpk")
	if err := r.Meta.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("pack: %w", err)
	}
	r.log.Debug("wrote pack", zap.String("name", name), zap.Int("objects", n), zap.Int("bytes", buf.Len()))
	return &PackSummary{Name: name, Objects: n, Bytes: buf.Len()}, nil
}

// ListPacks returns the pack archive names under .mgit/objects/pack, sorted.
func (r *Repo) ListPacks() ([]string, error) {
	entries, err := r.Meta.ReadDir(object.PackDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list packs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".mpk") {
			names = append(names, vfs.Join(object.PackDir, e.Name()))
		}
	}
	return names, nil
}

// Unpack reads a pack archive and stores every entry as a loose object. The
// archive structure is validated before anything is written. Payloads are
// stored as they are, so they must have been compressed with this
// repository's codec. It returns the number of objects that were not
// already present.
func (r *Repo) Unpack(data []byte) (int, error) {
	pf, err := object.ReadPack(data)
	if err != nil {
		return 0, fmt.Errorf("unpack: %w", err)
	}
	n, err := object.UnpackInto(r.Store, pf.Entries)
	if err != nil {
		return n, fmt.Errorf("unpack: %w", err)
	}
	r.log.Debug("unpacked", zap.Int("entries", len(pf.Entries)), zap.Int("new", n))
	return n, nil
}

// Verify re-hashes every loose object. All failures are reported together.
func (r *Repo) Verify() (*object.VerifySummary, error) {
	return r.Store.Verify()
}

// refRoots collects the commits named by refs and HEAD, deduplicated and
// sorted.
func (r *Repo) refRoots() ([]object.Hash, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, err
	}
	rootSet := make(map[object.Hash]struct{}, len(refs)+1)
	for _, h := range refs {
		if full, err := object.ParseHash(string(h)); err == nil {
			rootSet[full] = struct{}{}
		}
	}
	head, err := r.HeadCommit()
	if err != nil {
		return nil, err
	}
	if head != "" {
		rootSet[head] = struct{}{}
	}

	roots := make([]object.Hash, 0, len(rootSet))
	for h := range rootSet {
		roots = append(roots, h)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots, nil
}
