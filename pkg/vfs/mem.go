package vfs

import (
	"io/fs"
	"strings"
	"sync"
	"time"
)

// Mem is an in-memory FS used by tests and by callers that want a scratch
// repository without touching disk.
type Mem struct {
	mu    sync.RWMutex
	files map[string]memFile
	dirs  map[string]struct{}
}

type memFile struct {
	data    []byte
	perm    fs.FileMode
	modTime time.Time
}

// NewMem returns an empty in-memory FS.
func NewMem() *Mem {
	return &Mem{
		files: make(map[string]memFile),
		dirs:  map[string]struct{}{".": {}},
	}
}

func (m *Mem) ReadFile(name string) ([]byte, error) {
	name = Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (m *Mem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	name = Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, isDir := m.dirs[name]; isDir {
		return &fs.PathError{Op: "write", Path: name, Err: fs.ErrExist}
	}
	m.mkdirAllLocked(Dir(name))
	buf := make([]byte, len(data))
	copy(buf, data)
	m.files[name] = memFile{data: buf, perm: perm, modTime: time.Now()}
	return nil
}

func (m *Mem) Exists(name string) (bool, error) {
	name = Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[name]; ok {
		return true, nil
	}
	_, ok := m.dirs[name]
	return ok, nil
}

func (m *Mem) Stat(name string) (fs.FileInfo, error) {
	name = Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.files[name]; ok {
		return memInfo{name: baseName(name), size: int64(len(f.data)), mode: f.perm, modTime: f.modTime}, nil
	}
	if _, ok := m.dirs[name]; ok {
		return memInfo{name: baseName(name), mode: fs.ModeDir | 0o755, dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
}

func (m *Mem) MkdirAll(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mkdirAllLocked(Clean(name))
	return nil
}

func (m *Mem) mkdirAllLocked(name string) {
	for {
		m.dirs[name] = struct{}{}
		if name == "." {
			return
		}
		name = Dir(name)
	}
}

func (m *Mem) ReadDir(name string) ([]fs.DirEntry, error) {
	name = Clean(name)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.dirs[name]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}

	var out []fs.DirEntry
	for d := range m.dirs {
		if d != "." && Dir(d) == name {
			out = append(out, memEntry{info: memInfo{name: baseName(d), mode: fs.ModeDir | 0o755, dir: true}})
		}
	}
	for f, file := range m.files {
		if Dir(f) == name {
			out = append(out, memEntry{info: memInfo{name: baseName(f), size: int64(len(file.data)), mode: file.perm, modTime: file.modTime}})
		}
	}
	sortDirEntries(out)
	return out, nil
}

// Remove deletes a file and prunes parent directories left empty.
func (m *Mem) Remove(name string) error {
	name = Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	for dir := Dir(name); dir != "."; dir = Dir(dir) {
		if m.hasChildrenLocked(dir) {
			break
		}
		delete(m.dirs, dir)
	}
	return nil
}

func (m *Mem) hasChildrenLocked(dir string) bool {
	for f := range m.files {
		if Dir(f) == dir {
			return true
		}
	}
	for d := range m.dirs {
		if d != "." && d != dir && Dir(d) == dir {
			return true
		}
	}
	return false
}

func baseName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

type memInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	dir     bool
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return i.mode }
func (i memInfo) ModTime() time.Time { return i.modTime }
func (i memInfo) IsDir() bool        { return i.dir }
func (i memInfo) Sys() any           { return nil }

type memEntry struct {
	info memInfo
}

func (e memEntry) Name() string               { return e.info.name }
func (e memEntry) IsDir() bool                { return e.info.dir }
func (e memEntry) Type() fs.FileMode          { return e.info.mode.Type() }
func (e memEntry) Info() (fs.FileInfo, error) { return e.info, nil }
