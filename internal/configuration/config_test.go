package configuration

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize != 100<<20 {
		t.Errorf("max file size = %d, want %d", cfg.Upload.MaxFileSize, int64(100<<20))
	}
	if !cfg.Upload.VerifyContent {
		t.Error("content verification disabled by default")
	}
	if cfg.Upload.DownloadURLExpiry() != time.Hour {
		t.Errorf("download url expiry = %v, want 1h", cfg.Upload.DownloadURLExpiry())
	}
	if cfg.Storage.DefaultProvider != "local" {
		t.Errorf("default provider = %q, want local", cfg.Storage.DefaultProvider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FILESERVICE_SERVER_PORT", "9090")
	t.Setenv("FILESERVICE_UPLOAD_MAX_FILE_SIZE", "1048576")
	t.Setenv("FILESERVICE_STORAGE_DEFAULT_PROVIDER", "s3")
	t.Setenv("FILESERVICE_STORAGE_S3_BUCKET", "lms-files")
	t.Setenv("FILESERVICE_UPLOAD_DOWNLOAD_URL_EXPIRY_SECONDS", "600")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize != 1<<20 {
		t.Errorf("max file size = %d, want %d", cfg.Upload.MaxFileSize, int64(1<<20))
	}
	if cfg.Storage.DefaultProvider != "s3" {
		t.Errorf("default provider = %q, want s3", cfg.Storage.DefaultProvider)
	}
	if cfg.Storage.S3.Bucket != "lms-files" {
		t.Errorf("bucket = %q, want lms-files", cfg.Storage.S3.Bucket)
	}
	// Plain integer seconds, not a duration string.
	if cfg.Upload.DownloadURLExpiry() != 10*time.Minute {
		t.Errorf("download url expiry = %v, want 10m", cfg.Upload.DownloadURLExpiry())
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FILESERVICE_STORAGE_DEFAULT_PROVIDER", "ftp")
	if _, err := Load(); err == nil {
		t.Error("Load accepted unknown storage provider")
	}
}

func TestExtensions(t *testing.T) {
	u := UploadConfig{AllowedExtensions: " .JPG, png ,,pdf,"}
	got := u.Extensions()
	want := []string{"jpg", "png", "pdf"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5432", User: "lms", Password: "secret",
		DBName: "lms_files", SSLMode: "disable",
	}
	want := "postgres://lms:secret@db:5432/lms_files?sslmode=disable"
	if got := c.ConnectionString(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
