package vfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// OS is an FS rooted at a directory on the local filesystem.
type OS struct {
	root string
}

// NewOS returns an FS rooted at dir. The directory is not created.
func NewOS(dir string) *OS {
	return &OS{root: dir}
}

// Root returns the absolute or relative directory the FS is rooted at.
func (o *OS) Root() string {
	return o.root
}

func (o *OS) abs(name string) string {
	name = Clean(name)
	if name == "." {
		return o.root
	}
	return filepath.Join(o.root, filepath.FromSlash(name))
}

func (o *OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(o.abs(name))
}

// WriteFile writes data atomically: the bytes go to a temp file in the
// destination directory which is then renamed into place.
func (o *OS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	dest := o.abs(name)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: mkdir: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: tmpfile: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: close: %w", name, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: chmod: %w", name, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: rename: %w", name, err)
	}
	return nil
}

func (o *OS) Exists(name string) (bool, error) {
	_, err := os.Stat(o.abs(name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (o *OS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(o.abs(name))
}

func (o *OS) MkdirAll(name string) error {
	return os.MkdirAll(o.abs(name), 0o755)
}

func (o *OS) ReadDir(name string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(o.abs(name))
	if err != nil {
		return nil, err
	}
	sortDirEntries(entries)
	return entries, nil
}

// Remove deletes a file, then prunes parent directories left empty, stopping
// at the FS root.
func (o *OS) Remove(name string) error {
	if err := os.Remove(o.abs(name)); err != nil {
		return err
	}
	for dir := Dir(name); dir != "."; dir = Dir(dir) {
		entries, err := os.ReadDir(o.abs(dir))
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(o.abs(dir)); err != nil {
			break
		}
	}
	return nil
}
