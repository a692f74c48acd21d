package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrPathOutsideRoot is returned when a folder or storage path would resolve
// outside the local backend's root directory. The check runs before any
// write touches the disk.
var ErrPathOutsideRoot = errors.New("path resolves outside storage root")

// LocalBackend stores files on the local filesystem under a fixed root
// directory. It is the guaranteed-available fallback provider.
type LocalBackend struct {
	root    string // absolute, cleaned
	baseURL string
}

// NewLocal creates the local backend rooted at dir, creating the directory
// if needed. baseURL, when set, prefixes public file URLs.
func NewLocal(dir, baseURL string) (*LocalBackend, error) {
	if dir == "" {
		dir = "./uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &ConfigError{Provider: ProviderLocal, Reason: fmt.Sprintf("cannot resolve root %q: %v", dir, err)}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, &ConfigError{Provider: ProviderLocal, Reason: fmt.Sprintf("cannot create root %q: %v", abs, err)}
	}
	return &LocalBackend{
		root:    filepath.Clean(abs),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (l *LocalBackend) Name() string {
	return ProviderLocal
}

// Root returns the absolute root directory.
func (l *LocalBackend) Root() string {
	return l.root
}

func (l *LocalBackend) Save(_ context.Context, folder, filename string, content []byte, _ string) (string, error) {
	rel := filepath.Join(folder, filename)
	full := filepath.Join(l.root, rel)
	if !l.contains(full) {
		return "", ErrPathOutsideRoot
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", &WriteError{Provider: ProviderLocal, Err: err}
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", &WriteError{Provider: ProviderLocal, Err: err}
	}

	return filepath.ToSlash(rel), nil
}

func (l *LocalBackend) FileURL(storagePath string) string {
	if l.baseURL != "" {
		return l.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(storagePath), "/")
	}
	return "/files/" + strings.TrimLeft(filepath.ToSlash(storagePath), "/")
}

// LocalPath resolves a stored path against the root, handling both relative
// and absolute stored values. Escapes return ok=false rather than an error
// so callers can answer not-found.
func (l *LocalBackend) LocalPath(storagePath string) (string, bool) {
	if storagePath == "" {
		return "", false
	}
	var full string
	if filepath.IsAbs(storagePath) {
		full = filepath.Clean(storagePath)
	} else {
		full = filepath.Join(l.root, filepath.FromSlash(storagePath))
	}
	if !l.contains(full) {
		return "", false
	}
	return full, true
}

// DownloadURL never signs: local files are streamed directly.
func (l *LocalBackend) DownloadURL(_ context.Context, _ string, _ time.Duration) (string, bool) {
	return "", false
}

func (l *LocalBackend) Remove(_ context.Context, storagePath string) error {
	full, ok := l.LocalPath(storagePath)
	if !ok {
		return ErrPathOutsideRoot
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", storagePath, err)
	}
	return nil
}

func (l *LocalBackend) RemoveFolder(_ context.Context, prefix string) error {
	full, ok := l.LocalPath(prefix)
	if !ok {
		return ErrPathOutsideRoot
	}
	if full == l.root {
		return fmt.Errorf("refusing to remove storage root")
	}
	return os.RemoveAll(full)
}

func (l *LocalBackend) contains(full string) bool {
	full = filepath.Clean(full)
	return full == l.root || strings.HasPrefix(full, l.root+string(os.PathSeparator))
}
