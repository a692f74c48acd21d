package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// AzureConfig configures the Azure Blob backend. Either ConnectionString or
// AccountURL must be set. AccountName/AccountKey are recovered from the
// connection string when not given explicitly; both are needed for SAS
// signing.
type AzureConfig struct {
	Container        string
	ConnectionString string
	AccountURL       string // e.g. https://myaccount.blob.core.windows.net
	AccountName      string
	AccountKey       string
}

// AzureBackend stores files as block blobs in a single container.
type AzureBackend struct {
	client      *azblob.Client
	container   string
	serviceURL  string
	accountName string
	accountKey  string
}

// NewAzure builds the Azure Blob backend.
func NewAzure(cfg AzureConfig) (*AzureBackend, error) {
	if cfg.Container == "" {
		return nil, &ConfigError{Provider: ProviderAzure, Reason: "container name is required"}
	}
	if cfg.ConnectionString == "" && cfg.AccountURL == "" {
		return nil, &ConfigError{Provider: ProviderAzure, Reason: "connection string or account URL is required"}
	}

	accountName := cfg.AccountName
	accountKey := cfg.AccountKey
	serviceURL := strings.TrimRight(cfg.AccountURL, "/")

	var client *azblob.Client
	var err error

	if cfg.ConnectionString != "" {
		parsed := parseAzureConnectionString(cfg.ConnectionString)
		if accountName == "" {
			accountName = parsed["AccountName"]
		}
		if accountKey == "" {
			accountKey = parsed["AccountKey"]
		}
		if serviceURL == "" {
			if ep := parsed["BlobEndpoint"]; ep != "" {
				serviceURL = strings.TrimRight(ep, "/")
			} else if accountName != "" {
				suffix := parsed["EndpointSuffix"]
				if suffix == "" {
					suffix = "core.windows.net"
				}
				serviceURL = fmt.Sprintf("https://%s.blob.%s", accountName, suffix)
			}
		}
		client, err = azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	} else if accountName != "" && accountKey != "" {
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(accountName, accountKey)
		if err == nil {
			client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		}
	} else {
		client, err = azblob.NewClientWithNoCredential(serviceURL, nil)
	}
	if err != nil {
		return nil, &ConfigError{Provider: ProviderAzure, Reason: fmt.Sprintf("failed to create client: %v", err)}
	}

	return &AzureBackend{
		client:      client,
		container:   cfg.Container,
		serviceURL:  serviceURL,
		accountName: accountName,
		accountKey:  accountKey,
	}, nil
}

func (a *AzureBackend) Name() string {
	return ProviderAzure
}

// Save uploads with overwrite semantics; filenames are unique per upload so
// overwrites cannot clobber another file.
func (a *AzureBackend) Save(ctx context.Context, folder, filename string, content []byte, contentType string) (string, error) {
	blobName := path.Join(folder, filename)

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	if _, err := a.client.UploadBuffer(ctx, a.container, blobName, content, opts); err != nil {
		return "", &WriteError{Provider: ProviderAzure, Err: err}
	}

	return blobName, nil
}

func (a *AzureBackend) FileURL(storagePath string) string {
	return fmt.Sprintf("%s/%s/%s", a.serviceURL, a.container, strings.TrimLeft(storagePath, "/"))
}

func (a *AzureBackend) LocalPath(_ string) (string, bool) {
	return "", false
}

// DownloadURL mints a read-only SAS URL. Both account name and key are
// needed to sign; otherwise ok=false and the caller falls through to the
// next delivery strategy.
func (a *AzureBackend) DownloadURL(_ context.Context, storagePath string, expiry time.Duration) (string, bool) {
	if a.accountName == "" || a.accountKey == "" {
		return "", false
	}

	cred, err := azblob.NewSharedKeyCredential(a.accountName, a.accountKey)
	if err != nil {
		return "", false
	}

	now := time.Now().UTC()
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     now.Add(-5 * time.Minute),
		ExpiryTime:    now.Add(expiry),
		Permissions:   (&sas.BlobPermissions{Read: true}).String(),
		ContainerName: a.container,
		BlobName:      storagePath,
	}

	params, err := values.SignWithSharedKey(cred)
	if err != nil {
		return "", false
	}

	return fmt.Sprintf("%s?%s", a.FileURL(storagePath), params.Encode()), true
}

func (a *AzureBackend) Remove(ctx context.Context, storagePath string) error {
	if _, err := a.client.DeleteBlob(ctx, a.container, storagePath, nil); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", storagePath, err)
	}
	return nil
}

func (a *AzureBackend) RemoveFolder(ctx context.Context, prefix string) error {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	pager := a.client.NewListBlobsFlatPager(a.container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list blobs under %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			if _, err := a.client.DeleteBlob(ctx, a.container, *item.Name, nil); err != nil {
				return fmt.Errorf("failed to delete blob %s: %w", *item.Name, err)
			}
		}
	}
	return nil
}

// parseAzureConnectionString splits "Key=Value;Key=Value" pairs. Values may
// contain '=' (base64 keys), so only the first separator counts.
func parseAzureConnectionString(connStr string) map[string]string {
	parts := map[string]string{}
	for _, seg := range strings.Split(connStr, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		kv := strings.SplitN(seg, "=", 2)
		if len(kv) == 2 {
			parts[kv[0]] = kv[1]
		}
	}
	return parts
}
