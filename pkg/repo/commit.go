package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
)

// ErrNothingStaged is returned by Commit when the staging list is empty.
var ErrNothingStaged = errors.New("nothing staged")

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// Commit creates a new commit from the current staging list. An empty author
// uses the configured identity.
func (r *Repo) Commit(message, author string) (object.Hash, error) {
	return r.CommitWithSigner(message, author, nil)
}

// CommitWithSigner creates a new commit and signs it when signer is provided.
//
//  1. Read the staging list and project it into trees
//  2. Resolve HEAD to get the parent commit (none on an unborn branch)
//  3. Write the commit, then advance the current branch (or detached HEAD)
func (r *Repo) CommitWithSigner(message, author string, signer CommitSigner) (object.Hash, error) {
	ix, err := r.ReadIndex()
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if ix.Len() == 0 {
		return "", fmt.Errorf("commit: %w", ErrNothingStaged)
	}

	treeHash, err := r.BuildTree(ix)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	parentHash, err := r.HeadCommit()
	if err != nil {
		return "", fmt.Errorf("commit: resolve HEAD: %w", err)
	}
	var parents []object.Hash
	if parentHash != "" {
		parents = append(parents, parentHash)
	}

	commitHash, err := r.writeCommit(treeHash, parents, message, author, signer)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	if err := r.advanceHead(commitHash, parentHash, "commit: "+firstLine(message)); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.log.Debug("created commit",
		zap.String("commit", string(commitHash)),
		zap.String("tree", string(treeHash)),
		zap.Int("entries", ix.Len()),
	)
	return commitHash, nil
}

func (r *Repo) writeCommit(tree object.Hash, parents []object.Hash, message, author string, signer CommitSigner) (object.Hash, error) {
	committer := r.Signature()
	if strings.TrimSpace(author) == "" {
		author = committer
	}
	commitObj := &object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    author,
		Committer: committer,
		Message:   message,
	}
	if signer != nil {
		signature, err := signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return "", fmt.Errorf("sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	h, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return "", fmt.Errorf("write commit: %w", err)
	}
	return h, nil
}

// advanceHead moves the current branch, or HEAD itself when detached, from
// old to h with a compare-and-swap.
func (r *Repo) advanceHead(h, old object.Hash, reason string) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	ref := headFile
	if strings.HasPrefix(head, "refs/") {
		ref = head
	}
	if err := r.updateRefCAS(ref, h, reason, old); err != nil {
		return fmt.Errorf("update ref %q: %w", ref, err)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first. A limit
// of 0 or less walks to the root.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var out []LogEntry
	current := start

	for current != "" && (limit <= 0 || len(out) < limit) {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		out = append(out, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return out, nil
}
