// Package osfs provides a Host rooted at a directory on the local
// filesystem. This is the store real workflow commits write to.
package osfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sapling/pkg/domain"
)

// Host implements ports.Host over a directory tree. Paths are
// slash-separated and relative to the root; attempts to escape the root are
// rejected.
type Host struct {
	root string
}

// NewHost creates a host rooted at dir. The directory does not need to
// exist yet; it is created on the first write.
func NewHost(dir string) (*Host, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid root: %w", err)
	}
	return &Host{root: abs}, nil
}

// Root returns the absolute root directory of the host.
func (h *Host) Root() string {
	return h.root
}

func (h *Host) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("path %q escapes host root", path)
	}
	return filepath.Join(h.root, clean), nil
}

// Exists reports whether a regular file is present at path.
func (h *Host) Exists(path string) bool {
	full, err := h.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// Read returns the content of the file at path.
func (h *Host) Read(path string) ([]byte, error) {
	full, err := h.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", path, domain.ErrPathDoesNotExist)
		}
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return content, nil
}

// Write creates or replaces the file at path, creating parent directories
// as needed.
func (h *Host) Write(path string, content []byte) error {
	full, err := h.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// Delete removes the file at path.
func (h *Host) Delete(path string) error {
	full, err := h.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting %q: %w", path, domain.ErrPathDoesNotExist)
		}
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	return nil
}

// Rename moves a file from one path to another, creating the destination's
// parent directories as needed.
func (h *Host) Rename(from, to string) error {
	src, err := h.resolve(from)
	if err != nil {
		return err
	}
	dst, err := h.resolve(to)
	if err != nil {
		return err
	}
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("renaming %q: %w", from, domain.ErrPathDoesNotExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("renaming %q: %w", from, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming %q: %w", from, err)
	}
	return nil
}

// Walk visits every regular file under the root in lexical order. A missing
// root walks as an empty store.
func (h *Host) Walk(fn func(path string) error) error {
	err := filepath.WalkDir(h.root, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && full == h.root {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(h.root, full)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
