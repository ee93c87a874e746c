package repo

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
	"github.com/odvcencio/mgit/pkg/vfs"
)

// MetaDirName is the metadata directory created at the working tree root.
const MetaDirName = ".mgit"

const (
	headFile   = "HEAD"
	indexFile  = "index"
	configFile = "config.toml"
	headsDir   = "refs/heads"
	branchRef  = "refs/heads/"
)

// Repo represents an opened mgit repository.
type Repo struct {
	RootDir string        // working directory root; empty for in-memory repos
	Work    vfs.FS        // working tree
	Meta    vfs.FS        // .mgit/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	log *zap.Logger
	now func() time.Time

	// refMu serializes ref compare-and-swap within this process.
	refMu sync.Mutex

	mergeTraversalStateOnce sync.Once
	mergeTraversalState     *dagState
}

// Option configures a Repo at Init or Open time.
type Option func(*Repo)

// WithLogger routes repository debug logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(r *Repo) {
		if l != nil {
			r.log = l
		}
	}
}

// WithClock overrides the time source used for commit timestamps and reflog
// entries.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.now = now
		}
	}
}

func newRepo(root string, work, meta vfs.FS, cfg *Config, opts []Option) *Repo {
	r := &Repo{
		RootDir: root,
		Work:    work,
		Meta:    meta,
		Config:  cfg,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(meta, cfg.codec())
	return r
}

// Logger returns the repository logger.
func (r *Repo) Logger() *zap.Logger {
	return r.log
}

func (r *Repo) getMergeTraversalState() *dagState {
	r.mergeTraversalStateOnce.Do(func() {
		r.mergeTraversalState = newDAGState()
	})
	return r.mergeTraversalState
}

// resetMergeTraversalState drops memoized commit reads. Called at the start
// of every top-level operation that walks history.
func (r *Repo) resetMergeTraversalState() *dagState {
	s := r.getMergeTraversalState()
	s.reset()
	return s
}
