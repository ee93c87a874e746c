package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

var (
	ErrRefCASMismatch                  = errors.New("ref compare-and-swap mismatch")
	ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")
	ErrNotARepository                  = errors.New("not an mgit repository (or any parent up to /)")
	ErrRepositoryExists                = errors.New("repository already exists")
)

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

// Init creates a new repository at path with a .mgit/ directory holding HEAD,
// objects/, refs/heads/ and config.toml. A nil cfg selects DefaultConfig.
// Returns ErrRepositoryExists if .mgit/ is already present.
func Init(path string, cfg *Config, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("init: abs path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir %s: %w", abs, err)
	}
	r, err := InitFS(vfs.NewOS(abs), vfs.NewOS(filepath.Join(abs, MetaDirName)), cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.RootDir = abs
	return r, nil
}

// InitFS initializes a repository whose working tree and metadata live on
// the given filesystems.
func InitFS(work, meta vfs.FS, cfg *Config, opts ...Option) (*Repo, error) {
	exists, err := meta.Exists(headFile)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("init: %w", ErrRepositoryExists)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	for _, d := range []string{"objects", headsDir, "logs/refs/heads"} {
		if err := meta.MkdirAll(d); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}
	data, err := encodeConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init: config: %w", err)
	}
	if err := meta.WriteFile(configFile, data, 0o644); err != nil {
		return nil, fmt.Errorf("init: write config: %w", err)
	}
	if err := meta.WriteFile(headFile, []byte("ref: "+branchRef+"main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := newRepo("", work, meta, cfg, opts)
	r.log.Debug("initialized repository", zap.String("compression", cfg.Core.Compression))
	return r, nil
}

// Open searches upward from path for a .mgit/ directory and opens the
// repository. Returns ErrNotARepository if none is found.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		metaDir := filepath.Join(cur, MetaDirName)
		info, err := os.Stat(metaDir)
		if err == nil && info.IsDir() {
			r, err := OpenFS(vfs.NewOS(cur), vfs.NewOS(metaDir), opts...)
			if err != nil {
				return nil, err
			}
			r.RootDir = cur
			return r, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: %w", ErrNotARepository)
		}
		cur = parent
	}
}

// OpenFS opens a repository on explicit filesystems.
func OpenFS(work, meta vfs.FS, opts ...Option) (*Repo, error) {
	exists, err := meta.Exists(headFile)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("open: %w", ErrNotARepository)
	}
	cfg, err := readConfig(meta)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return newRepo("", work, meta, cfg, opts), nil
}

// Head reads .mgit/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := r.Meta.ReadFile(headFile)
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimSpace(strings.TrimPrefix(content, "ref: ")), nil
	}
	return content, nil
}

// SetHeadRef points HEAD at a ref symbolically.
func (r *Repo) SetHeadRef(ref string) error {
	if err := r.Meta.WriteFile(headFile, []byte("ref: "+ref+"\n"), 0o644); err != nil {
		return fmt.Errorf("set HEAD: %w", err)
	}
	return nil
}

// DetachHead stores a commit hash directly in HEAD.
func (r *Repo) DetachHead(h object.Hash) error {
	if err := r.Meta.WriteFile(headFile, []byte(string(h)+"\n"), 0o644); err != nil {
		return fmt.Errorf("detach HEAD: %w", err)
	}
	return nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target ref.
//  2. If name starts with "refs/", read .mgit/<name>.
//  3. Otherwise, try "refs/heads/<name>".
//
// A missing ref wraps fs.ErrNotExist.
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == headFile {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.ParseHash(head)
	}

	refPath := name
	if !strings.HasPrefix(name, "refs/") {
		refPath = branchRef + name
	}

	data, err := r.Meta.ReadFile(refPath)
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	h, err := object.ParseHash(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return h, nil
}

// HeadCommit resolves HEAD, returning "" (and no error) on an unborn branch.
func (r *Repo) HeadCommit() (object.Hash, error) {
	h, err := r.ResolveRef(headFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return h, nil
}

// UpdateRef writes a hash to the named ref file under .mgit/.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file under .mgit/. If
// expectedOld is provided, the update only succeeds when the current ref
// hash matches it ("" meaning the ref must not exist yet).
//
// The compare and write are serialized within one Repo but not across
// processes; callers serialize concurrent use externally.
//
// Reflog append happens after the ref write; if reflog append fails, the ref
// update remains committed and a RefUpdateReflogError is returned.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	return r.updateRefCAS(name, h, "update", expectedOld...)
}

func (r *Repo) updateRefCAS(name string, h object.Hash, reason string, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	if !h.Valid() {
		return fmt.Errorf("update ref %q: %w", name, object.ErrInvalidHash)
	}
	r.refMu.Lock()
	defer r.refMu.Unlock()

	oldHash, err := r.readRefHash(name)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf(
			"update ref %q: %w (expected %s, found %s)",
			name,
			ErrRefCASMismatch,
			expectedOld[0],
			oldHash,
		)
	}

	if err := r.Meta.WriteFile(name, []byte(string(h)+"\n"), 0o644); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	r.log.Debug("updated ref",
		zap.String("ref", name),
		zap.String("old", string(oldHash)),
		zap.String("new", string(h)),
	)

	if err := r.appendReflog(name, oldHash, h, reason); err != nil {
		return &RefUpdateReflogError{
			Ref:     name,
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}
	return nil
}

// readRefHash returns the raw hash stored in a ref file, or "" if the ref
// does not exist. For HEAD it returns the detached hash or "".
func (r *Repo) readRefHash(name string) (object.Hash, error) {
	data, err := r.Meta.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, "ref: ") {
		return "", nil
	}
	return object.Hash(content), nil
}
