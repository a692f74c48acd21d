// Package storage provides the pluggable file-storage backends (local disk,
// S3-compatible object stores, Azure Blob) behind a single interface. A
// storage path returned by Save is opaque to callers and only dereferenceable
// by the backend that produced it.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Provider names used as registry keys and persisted on file records.
const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
	ProviderAzure = "azure"
)

// Backend is the contract shared by all storage providers.
type Backend interface {
	// Name returns the provider name ("local", "s3", "azure").
	Name() string

	// Save persists content under a location derived from folder and
	// filename and returns the storage path. Callers always pass freshly
	// generated unique filenames, so overwrites are not a concern. Any
	// I/O, credential or network failure surfaces as a *WriteError.
	Save(ctx context.Context, folder, filename string, content []byte, contentType string) (string, error)

	// FileURL derives a public-style URL for a storage path without any
	// I/O. The URL may not be usable if the underlying object is private.
	FileURL(storagePath string) string

	// LocalPath resolves a storage path to a filesystem path. Only the
	// local backend returns ok=true, and only when the path is provably
	// contained within its root directory.
	LocalPath(storagePath string) (string, bool)

	// DownloadURL mints a time-limited signed URL for a storage path.
	// ok=false means signing is not possible here (missing key material,
	// non-remote backend); callers should try the next delivery strategy.
	DownloadURL(ctx context.Context, storagePath string, expiry time.Duration) (string, bool)

	// Remove deletes the object for a storage path.
	Remove(ctx context.Context, storagePath string) error

	// RemoveFolder deletes every object under the given prefix.
	RemoveFolder(ctx context.Context, prefix string) error
}

// WriteError wraps a failed backend write. The partial object, if any, is
// never reported as a success.
type WriteError struct {
	Provider string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write failed (%s): %v", e.Provider, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ConfigError reports an unusable backend configuration detected at
// construction time. The registry logs these and omits the backend instead
// of failing startup.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("storage configuration invalid (%s): %s", e.Provider, e.Reason)
}
