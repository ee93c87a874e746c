package repo

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/odvcencio/mgit/pkg/object"
)

const maxDAGTraversalSteps = 1_000_000

// dagTraversalStepsLimit lets tests tighten the safety limit without
// affecting production defaults.
var dagTraversalStepsLimit = maxDAGTraversalSteps

// ErrTraversalLimit is returned when a history walk visits more commits than
// the safety limit allows.
var ErrTraversalLimit = errors.New("commit traversal exceeded maximum steps")

// ErrNoCommonAncestor reports that two histories share no commit. It is
// informational: CommonAncestor signals the same condition with found=false.
var ErrNoCommonAncestor = errors.New("no common ancestor")

func dagTraversalLimit() int {
	// Keep the safety default as a hard bound; tests may only tighten.
	if dagTraversalStepsLimit <= 0 || dagTraversalStepsLimit > maxDAGTraversalSteps {
		return maxDAGTraversalSteps
	}
	return dagTraversalStepsLimit
}

type mergeBaseCacheKey struct {
	left  object.Hash
	right object.Hash
}

type mergeBaseCacheEntry struct {
	base  object.Hash
	found bool
}

// dagState memoizes commit reads for the duration of one operation and
// common-ancestor answers for the lifetime of the Repo. Both are safe to
// keep since commits are immutable.
type dagState struct {
	mu sync.RWMutex

	commits    map[object.Hash]*object.CommitObj
	mergeBases map[mergeBaseCacheKey]mergeBaseCacheEntry
	reads      int
}

func newDAGState() *dagState {
	return &dagState{
		commits:    make(map[object.Hash]*object.CommitObj),
		mergeBases: make(map[mergeBaseCacheKey]mergeBaseCacheEntry),
	}
}

func (s *dagState) reset() {
	s.mu.Lock()
	s.commits = make(map[object.Hash]*object.CommitObj)
	s.mu.Unlock()
}

// The first-found rule is order dependent, so (a,b) and (b,a) are cached
// separately.
func mergeBaseKey(a, b object.Hash) mergeBaseCacheKey {
	return mergeBaseCacheKey{left: a, right: b}
}

func (s *dagState) loadMergeBase(a, b object.Hash) (mergeBaseCacheEntry, bool) {
	key := mergeBaseKey(a, b)
	s.mu.RLock()
	entry, ok := s.mergeBases[key]
	s.mu.RUnlock()
	return entry, ok
}

func (s *dagState) storeMergeBase(a, b, base object.Hash, found bool) {
	key := mergeBaseKey(a, b)
	s.mu.Lock()
	s.mergeBases[key] = mergeBaseCacheEntry{base: base, found: found}
	s.mu.Unlock()
}

func (s *dagState) mergeBaseCacheSize() int {
	s.mu.RLock()
	n := len(s.mergeBases)
	s.mu.RUnlock()
	return n
}

func (s *dagState) readCommit(r *Repo, h object.Hash) (*object.CommitObj, error) {
	s.mu.RLock()
	cached, ok := s.commits[h]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	commit, err := r.Store.ReadCommit(h)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", h, err)
	}

	s.mu.Lock()
	if existing, exists := s.commits[h]; exists {
		s.mu.Unlock()
		return existing, nil
	}
	s.commits[h] = commit
	s.reads++
	s.mu.Unlock()
	return commit, nil
}

// walkAncestors visits start and its ancestors breadth-first, parents in
// recorded order, each commit once. fn returning true stops the walk.
func (r *Repo) walkAncestors(state *dagState, start object.Hash, fn func(object.Hash) bool) error {
	limit := dagTraversalLimit()
	visited := map[object.Hash]struct{}{start: {}}
	queue := []object.Hash{start}
	steps := 0

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		steps++
		if steps > limit {
			return fmt.Errorf("%w (%d)", ErrTraversalLimit, limit)
		}
		if fn(h) {
			return nil
		}

		c, err := state.readCommit(r, h)
		if err != nil {
			return err
		}
		for _, p := range c.Parents {
			if _, seen := visited[p]; seen {
				continue
			}
			visited[p] = struct{}{}
			queue = append(queue, p)
		}
	}
	return nil
}

// IsAncestor reports whether candidate is reachable from descendant by
// following parent links. A commit is its own ancestor.
func (r *Repo) IsAncestor(candidate, descendant object.Hash) (bool, error) {
	if candidate == "" || descendant == "" {
		return false, nil
	}
	if candidate == descendant {
		return true, nil
	}

	state := r.resetMergeTraversalState()
	found := false
	err := r.walkAncestors(state, descendant, func(h object.Hash) bool {
		found = h == candidate
		return found
	})
	if err != nil {
		return false, fmt.Errorf("is ancestor: %w", err)
	}
	return found, nil
}

// CommonAncestor finds a shared ancestor of a and b: it collects every
// ancestor of a, then walks b breadth-first and returns the first commit in
// that set. With criss-cross histories this is one of possibly several best
// bases; the first found is kept. found is false when the histories are
// disjoint.
func (r *Repo) CommonAncestor(a, b object.Hash) (base object.Hash, found bool, err error) {
	if a == "" || b == "" {
		return "", false, nil
	}
	if a == b {
		return a, true, nil
	}

	state := r.getMergeTraversalState()
	if cached, ok := state.loadMergeBase(a, b); ok {
		return cached.base, cached.found, nil
	}
	state.reset()

	ancestorsOfA := make(map[object.Hash]struct{})
	err = r.walkAncestors(state, a, func(h object.Hash) bool {
		ancestorsOfA[h] = struct{}{}
		return false
	})
	if err != nil {
		return "", false, fmt.Errorf("common ancestor: %w", err)
	}

	err = r.walkAncestors(state, b, func(h object.Hash) bool {
		if _, ok := ancestorsOfA[h]; ok {
			base, found = h, true
		}
		return found
	})
	if err != nil {
		return "", false, fmt.Errorf("common ancestor: %w", err)
	}

	state.storeMergeBase(a, b, base, found)
	r.log.Debug("common ancestor",
		zap.String("a", string(a)),
		zap.String("b", string(b)),
		zap.String("base", string(base)),
		zap.Bool("found", found),
	)
	return base, found, nil
}
