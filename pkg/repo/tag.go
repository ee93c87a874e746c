package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/odvcencio/mgit/pkg/object"
)

const tagRef = "refs/tags/"

// CreateTag creates or updates a lightweight tag ref under refs/tags/.
func (r *Repo) CreateTag(name string, target object.Hash, force bool) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	if !r.Store.Has(target) {
		return fmt.Errorf("create tag %q: %s: %w", name, target, object.ErrObjectNotFound)
	}

	var expected []object.Hash
	if !force {
		expected = append(expected, "")
	}
	if err := r.updateRefCAS(tagRef+name, target, "tag", expected...); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create tag: tag %q already exists", name)
		}
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// DeleteTag removes a tag ref from refs/tags/.
func (r *Repo) DeleteTag(name string) error {
	name = strings.TrimSpace(name)
	if err := validateTagName(name); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if err := r.Meta.Remove(tagRef + name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete tag: tag %q does not exist", name)
		}
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// ListTags returns tag name -> target hash.
func (r *Repo) ListTags() (map[string]object.Hash, error) {
	refs, err := r.ListRefs("tags")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return lo.MapKeys(refs, func(_ object.Hash, full string) string {
		return strings.TrimPrefix(full, "tags/")
	}), nil
}

// TagNames lists tag names sorted alphabetically.
func (r *Repo) TagNames() ([]string, error) {
	tags, err := r.ListTags()
	if err != nil {
		return nil, err
	}
	names := lo.Keys(tags)
	sort.Strings(names)
	return names, nil
}

func validateTagName(name string) error {
	if name == "" {
		return fmt.Errorf("tag name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.Contains(name, "..") || strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid tag name %q", name)
	}
	return nil
}
