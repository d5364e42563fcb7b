package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"sio-go/internal/organize"
)

// MockFileOps is an in-memory organize.FileOps implementation.
// It records every mutation so tests can assert that dry runs touch nothing,
// and supports per-path failure injection for partial-failure scenarios.
type MockFileOps struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// Failure injection, keyed by the path the operation acts on.
	FailMove   map[string]error // keyed by source path
	FailCopy   map[string]error // keyed by source path
	FailRemove map[string]error
	FailMkdir  map[string]error

	mutations []string
}

func NewMockFileOps() *MockFileOps {
	return &MockFileOps{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		FailMove:   make(map[string]error),
		FailCopy:   make(map[string]error),
		FailRemove: make(map[string]error),
		FailMkdir:  make(map[string]error),
	}
}

// AddFile seeds a file without recording a mutation.
func (m *MockFileOps) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
	m.dirs[filepath.Dir(path)] = true
}

// Content returns a file's bytes and whether it exists.
func (m *MockFileOps) Content(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// Mutations returns every recorded filesystem mutation, in order.
func (m *MockFileOps) Mutations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.mutations...)
}

// DeleteTree removes a directory and everything under it, simulating
// external interference between runs.
func (m *MockFileOps) DeleteTree(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.dirs, path)
	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			delete(m.files, p)
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
}

func (m *MockFileOps) Exists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.existsLocked(path), nil
}

func (m *MockFileOps) existsLocked(path string) bool {
	if _, ok := m.files[path]; ok {
		return true
	}
	if m.dirs[path] {
		return true
	}
	// A directory implicitly exists while anything lives under it.
	prefix := path + string(filepath.Separator)
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for d := range m.dirs {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}

func (m *MockFileOps) MkdirAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailMkdir[path]; err != nil {
		return err
	}
	m.dirs[path] = true
	m.mutations = append(m.mutations, "mkdir "+path)
	return nil
}

func (m *MockFileOps) Move(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailMove[src]; err != nil {
		return err
	}
	data, ok := m.files[src]
	if !ok {
		return fmt.Errorf("no such file: %s", src)
	}
	if _, ok := m.files[dst]; ok {
		return fmt.Errorf("destination exists: %s", dst)
	}
	delete(m.files, src)
	m.files[dst] = data
	m.mutations = append(m.mutations, fmt.Sprintf("move %s -> %s", src, dst))
	return nil
}

func (m *MockFileOps) Copy(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailCopy[src]; err != nil {
		return err
	}
	data, ok := m.files[src]
	if !ok {
		return fmt.Errorf("no such file: %s", src)
	}
	if _, ok := m.files[dst]; ok {
		return fmt.Errorf("destination exists: %s", dst)
	}
	m.files[dst] = append([]byte(nil), data...)
	m.mutations = append(m.mutations, fmt.Sprintf("copy %s -> %s", src, dst))
	return nil
}

func (m *MockFileOps) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailRemove[path]; err != nil {
		return err
	}
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("no such file: %s", path)
	}
	delete(m.files, path)
	m.mutations = append(m.mutations, "remove "+path)
	return nil
}

func (m *MockFileOps) WriteFile(path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), data...)
	m.mutations = append(m.mutations, "write "+path)
	return nil
}

func (m *MockFileOps) FindImages(root string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := root + string(filepath.Separator)
	var paths []string
	for p := range m.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".heic":
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

var _ organize.FileOps = (*MockFileOps)(nil)
