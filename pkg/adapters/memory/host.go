// Package memory provides an in-memory Host, used by tests and by remote
// dry-run surfaces that must never touch the real filesystem.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/sapling/pkg/domain"
)

// Host implements ports.Host in memory. Safe for concurrent use.
type Host struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewHost creates a new empty in-memory host.
func NewHost() *Host {
	return &Host{
		files: make(map[string][]byte),
	}
}

// NewHostFrom creates a host pre-seeded with the given files.
func NewHostFrom(files map[string]string) *Host {
	h := NewHost()
	for path, content := range files {
		h.files[path] = []byte(content)
	}
	return h
}

// Exists reports whether a file is present at path.
func (h *Host) Exists(path string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.files[path]
	return ok
}

// Read returns a copy of the file content so callers can't mutate the store
// through the returned slice.
func (h *Host) Read(path string) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	content, ok := h.files[path]
	if !ok {
		return nil, fmt.Errorf("reading %q: %w", path, domain.ErrPathDoesNotExist)
	}
	return append([]byte(nil), content...), nil
}

// Write creates or replaces the file at path.
func (h *Host) Write(path string, content []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = append([]byte(nil), content...)
	return nil
}

// Delete removes the file at path.
func (h *Host) Delete(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.files[path]; !ok {
		return fmt.Errorf("deleting %q: %w", path, domain.ErrPathDoesNotExist)
	}
	delete(h.files, path)
	return nil
}

// Rename moves a file from one path to another.
func (h *Host) Rename(from, to string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	content, ok := h.files[from]
	if !ok {
		return fmt.Errorf("renaming %q: %w", from, domain.ErrPathDoesNotExist)
	}
	h.files[to] = content
	delete(h.files, from)
	return nil
}

// Walk visits every file in lexical path order.
func (h *Host) Walk(fn func(path string) error) error {
	h.mu.RLock()
	paths := make([]string, 0, len(h.files))
	for path := range h.files {
		paths = append(paths, path)
	}
	h.mu.RUnlock()

	sort.Strings(paths)
	for _, path := range paths {
		if err := fn(path); err != nil {
			return err
		}
	}
	return nil
}
