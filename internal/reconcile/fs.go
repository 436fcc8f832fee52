package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"hlspack/internal/fileutil"
)

// FS is the filesystem surface reconciliation needs.
type FS interface {
	// ReadDir returns the names of the regular files in dir, sorted.
	ReadDir(dir string) ([]string, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Rename(from, to string) error
	Remove(path string) error
}

// OSFS is the production FS.
type OSFS struct{}

func (OSFS) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (OSFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OSFS) WriteFile(path string, data []byte) error {
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func (OSFS) Rename(from, to string) error { return os.Rename(from, to) }

func (OSFS) Remove(path string) error { return os.Remove(path) }

// MemFS is an in-memory FS keyed by cleaned slash paths.
type MemFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]struct{}
	// FailOn makes any operation touching the named path fail.
	FailOn map[string]error
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{files: map[string][]byte{}, dirs: map[string]struct{}{}}
}

func (m *MemFS) fail(path string) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn[filepath.Clean(path)]
}

// Mkdir records an empty directory.
func (m *MemFS) Mkdir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addDirs(filepath.Clean(dir))
}

func (m *MemFS) addDirs(dir string) {
	for dir != "." && dir != string(filepath.Separator) && dir != "" {
		m.dirs[dir] = struct{}{}
		dir = filepath.Dir(dir)
	}
}

func (m *MemFS) ReadDir(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	if err := m.fail(dir); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dirs[dir]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: dir, Err: fs.ErrNotExist}
	}
	var names []string
	for path := range m.files {
		if filepath.Dir(path) == dir {
			names = append(names, filepath.Base(path))
		}
	}
	slices.Sort(names)
	return names, nil
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	path = filepath.Clean(path)
	if err := m.fail(path); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemFS) WriteFile(path string, data []byte) error {
	path = filepath.Clean(path)
	if err := m.fail(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)
	m.addDirs(filepath.Dir(path))
	return nil
}

func (m *MemFS) Rename(from, to string) error {
	from, to = filepath.Clean(from), filepath.Clean(to)
	if err := m.fail(from); err != nil {
		return err
	}
	if err := m.fail(to); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[from]
	if !ok {
		return &fs.PathError{Op: "rename", Path: from, Err: fs.ErrNotExist}
	}
	delete(m.files, from)
	m.files[to] = data
	m.addDirs(filepath.Dir(to))
	return nil
}

func (m *MemFS) Remove(path string) error {
	path = filepath.Clean(path)
	if err := m.fail(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		return &fs.PathError{Op: "remove", Path: path, Err: fs.ErrNotExist}
	}
	delete(m.files, path)
	return nil
}

// Paths lists every file path, sorted.
func (m *MemFS) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Dump renders the tree for test failure messages.
func (m *MemFS) Dump() string {
	var b strings.Builder
	for _, p := range m.Paths() {
		data, _ := m.ReadFile(p)
		fmt.Fprintf(&b, "%s (%d bytes)\n", p, len(data))
	}
	return b.String()
}
