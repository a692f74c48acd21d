package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

// Shared-key credentials must be base64; any value works for signing tests.
var testAccountKey = base64.StdEncoding.EncodeToString([]byte("not-a-real-key"))

func testConnectionString() string {
	return "DefaultEndpointsProtocol=https;AccountName=lmsfiles;AccountKey=" +
		testAccountKey + ";EndpointSuffix=core.windows.net"
}

func TestParseAzureConnectionString(t *testing.T) {
	parts := parseAzureConnectionString(testConnectionString())
	if parts["AccountName"] != "lmsfiles" {
		t.Errorf("AccountName = %q", parts["AccountName"])
	}
	if parts["AccountKey"] != testAccountKey {
		t.Errorf("AccountKey = %q", parts["AccountKey"])
	}
	if parts["EndpointSuffix"] != "core.windows.net" {
		t.Errorf("EndpointSuffix = %q", parts["EndpointSuffix"])
	}
}

func TestNewAzureValidation(t *testing.T) {
	if _, err := NewAzure(AzureConfig{ConnectionString: testConnectionString()}); err == nil {
		t.Error("missing container must fail")
	}
	var cfgErr *ConfigError
	_, err := NewAzure(AzureConfig{Container: "media"})
	if !errors.As(err, &cfgErr) {
		t.Errorf("missing connection info: error = %v, want *ConfigError", err)
	}
}

func TestAzureFileURLFromConnectionString(t *testing.T) {
	b, err := NewAzure(AzureConfig{Container: "media", ConnectionString: testConnectionString()})
	if err != nil {
		t.Fatalf("NewAzure: %v", err)
	}
	want := "https://lmsfiles.blob.core.windows.net/media/uploads/a.png"
	if got := b.FileURL("uploads/a.png"); got != want {
		t.Errorf("FileURL = %q, want %q", got, want)
	}
}

func TestAzureDownloadURL(t *testing.T) {
	b, err := NewAzure(AzureConfig{Container: "media", ConnectionString: testConnectionString()})
	if err != nil {
		t.Fatalf("NewAzure: %v", err)
	}

	url, ok := b.DownloadURL(context.Background(), "uploads/a.png", time.Hour)
	if !ok {
		t.Fatal("expected a SAS URL with account name and key present")
	}
	if !strings.Contains(url, "sig=") {
		t.Errorf("SAS URL missing signature: %q", url)
	}
	if !strings.HasPrefix(url, "https://lmsfiles.blob.core.windows.net/media/uploads/a.png?") {
		t.Errorf("unexpected SAS URL: %q", url)
	}
}

func TestAzureDownloadURLWithoutKey(t *testing.T) {
	b, err := NewAzure(AzureConfig{
		Container:  "media",
		AccountURL: "https://lmsfiles.blob.core.windows.net",
	})
	if err != nil {
		t.Fatalf("NewAzure: %v", err)
	}
	if _, ok := b.DownloadURL(context.Background(), "uploads/a.png", time.Hour); ok {
		t.Error("signing without key material must return ok=false")
	}
}
