// Package configuration loads the immutable service configuration from an
// optional config file, a .env file and environment variables. Every tunable
// the file service consumes lives here; nothing reads ambient globals.
package configuration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/openlms/file-service/internal/storage"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Storage  StorageConfig

	NATSURL        string `mapstructure:"nats_url"`
	ClamAVURL      string `mapstructure:"clamav_url"`
	OIDCIssuerURL  string `mapstructure:"oidc_issuer_url"`
	TracingEnabled bool   `mapstructure:"tracing_enabled"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type UploadConfig struct {
	// MaxFileSize is the per-file byte ceiling.
	MaxFileSize int64 `mapstructure:"max_file_size" validate:"gt=0"`
	// AllowedExtensions is the comma-separated extension allow-list.
	AllowedExtensions string `mapstructure:"allowed_extensions" validate:"required"`
	// DefaultFolder receives uploads that name no folder.
	DefaultFolder string `mapstructure:"default_folder"`
	// VerifyContent enables magic-number cross-checking of uploads.
	VerifyContent bool `mapstructure:"verify_content"`
	// DownloadURLExpirySeconds bounds the lifetime of signed download URLs.
	DownloadURLExpirySeconds int64 `mapstructure:"download_url_expiry_seconds" validate:"gte=0"`
}

type StorageConfig struct {
	DefaultProvider string `mapstructure:"default_provider" validate:"omitempty,oneof=local s3 azure"`

	Local struct {
		RootDir       string `mapstructure:"root_dir"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	}
	S3 struct {
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		Bucket        string `mapstructure:"bucket"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		UseSSL        bool   `mapstructure:"use_ssl"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	}
	Azure struct {
		Container        string `mapstructure:"container"`
		ConnectionString string `mapstructure:"connection_string"`
		AccountURL       string `mapstructure:"account_url"`
		AccountName      string `mapstructure:"account_name"`
		AccountKey       string `mapstructure:"account_key"`
	}
}

// Load reads configuration with precedence env > .env file > config.yml >
// defaults, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FILESERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "lms")
	v.SetDefault("database.password", "lms")
	v.SetDefault("database.name", "lms_files")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("upload.max_file_size", int64(100<<20))
	v.SetDefault("upload.allowed_extensions",
		"jpg,jpeg,png,gif,webp,pdf,doc,docx,xls,xlsx,ppt,pptx,txt,csv,md,mp4,mov,mkv,webm,mp3,wav,zip")
	v.SetDefault("upload.default_folder", "uploads")
	v.SetDefault("upload.verify_content", true)
	v.SetDefault("upload.download_url_expiry_seconds", int64(3600))

	v.SetDefault("storage.default_provider", "local")
	v.SetDefault("storage.local.root_dir", "./uploads")
	v.SetDefault("storage.s3.use_ssl", true)

	v.SetDefault("nats_url", "")
	v.SetDefault("clamav_url", "")
	v.SetDefault("oidc_issuer_url", "http://localhost:8081/realms/openlms")
	v.SetDefault("tracing_enabled", false)
}

// DownloadURLExpiry returns the signed URL lifetime.
func (u UploadConfig) DownloadURLExpiry() time.Duration {
	return time.Duration(u.DownloadURLExpirySeconds) * time.Second
}

// Extensions splits the allow-list into lowercase extensions without dots.
func (u UploadConfig) Extensions() []string {
	parts := strings.Split(u.AllowedExtensions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(p, ".")))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RegistryConfig translates the storage section for the backend registry.
func (c *Config) RegistryConfig() storage.RegistryConfig {
	rc := storage.RegistryConfig{
		DefaultProvider: c.Storage.DefaultProvider,
		Local: storage.LocalConfig{
			RootDir:       c.Storage.Local.RootDir,
			PublicBaseURL: c.Storage.Local.PublicBaseURL,
		},
		S3: storage.S3Config{
			Endpoint:      c.Storage.S3.Endpoint,
			Region:        c.Storage.S3.Region,
			Bucket:        c.Storage.S3.Bucket,
			AccessKey:     c.Storage.S3.AccessKey,
			SecretKey:     c.Storage.S3.SecretKey,
			UseSSL:        c.Storage.S3.UseSSL,
			PublicBaseURL: c.Storage.S3.PublicBaseURL,
		},
		Azure: storage.AzureConfig{
			Container:        c.Storage.Azure.Container,
			ConnectionString: c.Storage.Azure.ConnectionString,
			AccountURL:       c.Storage.Azure.AccountURL,
			AccountName:      c.Storage.Azure.AccountName,
			AccountKey:       c.Storage.Azure.AccountKey,
		},
	}
	return rc
}
