package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
)

// ErrInvalidBranchName rejects names that cannot be stored as a single ref
// file.
var ErrInvalidBranchName = errors.New("invalid branch name")

func validateBranchName(name string) error {
	if name == "" || name == "." || name == ".." || name == headFile ||
		strings.ContainsAny(name, "/\\ \t\n") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("%w: %q", ErrInvalidBranchName, name)
	}
	return nil
}

// CreateBranch creates a new branch pointing at the given target hash.
// It writes the hash to .mgit/refs/heads/<name>. Returns an error if the
// branch already exists.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := r.updateRefCAS(branchRef+name, target, "branch: created", ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch: branch %q already exists", name)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	r.log.Debug("created branch", zap.String("branch", name), zap.String("target", string(target)))
	return nil
}

// DeleteBranch removes the branch ref file .mgit/refs/heads/<name>.
// Returns an error if the branch is the current branch or does not exist.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := validateBranchName(name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}

	if err := r.Meta.Remove(branchRef + name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete branch: branch %q does not exist", name)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	r.log.Debug("deleted branch", zap.String("branch", name))
	return nil
}

// ListBranches reads .mgit/refs/heads/ and returns the branch names sorted
// alphabetically.
func (r *Repo) ListBranches() ([]string, error) {
	entries, err := r.Meta.ReadDir(headsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list branches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// CurrentBranch reads HEAD and returns the branch name if HEAD is a symbolic
// ref (e.g. "ref: refs/heads/main" → "main"). If HEAD is detached (contains
// a raw hash), it returns "".
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	if strings.HasPrefix(head, branchRef) {
		return strings.TrimPrefix(head, branchRef), nil
	}
	return "", nil
}

// BranchExists reports whether refs/heads/<name> exists.
func (r *Repo) BranchExists(name string) (bool, error) {
	if validateBranchName(name) != nil {
		return false, nil
	}
	return r.Meta.Exists(branchRef + name)
}
