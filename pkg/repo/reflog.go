package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

var zeroHash = object.Hash(strings.Repeat("0", object.HashHexSize))

// ReflogEntry is one recorded movement of a ref.
type ReflogEntry struct {
	Ref       string
	OldHash   object.Hash
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

func reflogPath(ref string) string {
	return vfs.Join("logs", ref)
}

// appendReflog rewrites the ref's log with one more line. The log is small
// and vfs writes are whole-file, so there is no append primitive.
func (r *Repo) appendReflog(ref string, oldHash, newHash object.Hash, reason string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}
	reason = strings.ReplaceAll(reason, "\n", " ")

	old := oldHash
	if strings.TrimSpace(string(old)) == "" {
		old = zeroHash
	}
	newVal := newHash
	if strings.TrimSpace(string(newVal)) == "" {
		newVal = zeroHash
	}
	line := fmt.Sprintf("%s %s %d %s\n", old, newVal, r.now().Unix(), reason)

	name := reflogPath(ref)
	existing, err := r.Meta.ReadFile(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reflog read: %w", err)
	}
	if err := r.Meta.WriteFile(name, append(existing, line...), 0o644); err != nil {
		return fmt.Errorf("reflog write: %w", err)
	}
	return nil
}

// ReadReflog returns the movements of ref, newest first. "" or "HEAD" reads
// the log of the current branch (or of HEAD itself when detached). A limit
// of 0 returns everything.
func (r *Repo) ReadReflog(ref string, limit int) ([]ReflogEntry, error) {
	refName := r.resolveReflogRefName(ref)

	data, err := r.Meta.ReadFile(reflogPath(refName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	var entries []ReflogEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, ReflogEntry{
			Ref:       refName,
			OldHash:   object.Hash(parts[0]),
			NewHash:   object.Hash(parts[1]),
			Timestamp: ts,
			Reason:    parts[3],
		})
	}

	entries = lo.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *Repo) resolveReflogRefName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == headFile {
		head, err := r.Head()
		if err == nil && strings.HasPrefix(head, "refs/") {
			return head
		}
		return headFile
	}
	if strings.HasPrefix(ref, "refs/") {
		return ref
	}
	return branchRef + ref
}
