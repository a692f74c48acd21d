package storage

import (
	"sort"

	"github.com/rs/zerolog"
)

// LocalConfig configures the local disk backend.
type LocalConfig struct {
	RootDir       string
	PublicBaseURL string
}

// RegistryConfig lists every provider the service should try to bring up.
type RegistryConfig struct {
	DefaultProvider string
	Local           LocalConfig
	S3              S3Config
	Azure           AzureConfig
}

// Registry is the immutable provider-name-keyed set of constructed backends.
// It is built once at startup and read concurrently afterwards. Providers
// that fail construction are logged and omitted; local always succeeds, so
// the registry is never empty and the default never dangles.
type Registry struct {
	backends    map[string]Backend
	defaultName string
}

// BuildRegistry constructs every configured backend. Only a broken local
// backend is fatal.
func BuildRegistry(cfg RegistryConfig, logger zerolog.Logger) (*Registry, error) {
	backends := map[string]Backend{}

	local, err := NewLocal(cfg.Local.RootDir, cfg.Local.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	backends[ProviderLocal] = local

	if cfg.S3.Bucket != "" || cfg.S3.Endpoint != "" || cfg.S3.AccessKey != "" {
		if s3, err := NewS3(cfg.S3); err != nil {
			logger.Warn().Err(err).Msg("s3 backend unavailable")
		} else {
			backends[ProviderS3] = s3
		}
	}

	if cfg.Azure.Container != "" || cfg.Azure.ConnectionString != "" || cfg.Azure.AccountURL != "" {
		if az, err := NewAzure(cfg.Azure); err != nil {
			logger.Warn().Err(err).Msg("azure backend unavailable")
		} else {
			backends[ProviderAzure] = az
		}
	}

	defaultName := cfg.DefaultProvider
	if defaultName == "" {
		defaultName = ProviderLocal
	}
	if _, ok := backends[defaultName]; !ok {
		logger.Warn().
			Str("configured", defaultName).
			Msg("default storage provider unavailable, falling back to local")
		defaultName = ProviderLocal
	}

	logger.Info().
		Strs("providers", names(backends)).
		Str("default", defaultName).
		Msg("storage backends ready")

	return &Registry{backends: backends, defaultName: defaultName}, nil
}

// NewRegistry wraps pre-built backends; used by tests.
func NewRegistry(defaultName string, bs ...Backend) *Registry {
	backends := map[string]Backend{}
	for _, b := range bs {
		backends[b.Name()] = b
	}
	if _, ok := backends[defaultName]; !ok && len(bs) > 0 {
		defaultName = bs[0].Name()
	}
	return &Registry{backends: backends, defaultName: defaultName}
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, bool) {
	b, ok := r.backends[name]
	return b, ok
}

// Default returns the default backend; always non-nil.
func (r *Registry) Default() Backend {
	return r.backends[r.defaultName]
}

// DefaultName returns the resolved default provider name.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Names lists registered providers, sorted.
func (r *Registry) Names() []string {
	return names(r.backends)
}

func names(backends map[string]Backend) []string {
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
