package services

import (
	"time"

	"github.com/openlms/file-service/internal/models"
)

// MetadataStore persists UploadedFile records. PostgresStore is the
// production implementation; JSONStore is the degraded fallback when the
// database is unreachable at startup.
type MetadataStore interface {
	SaveFile(file models.UploadedFile) error
	GetFile(fileID string) (models.UploadedFile, bool, error)
	// ListByUploader returns an uploader's files newest first; category
	// is an exact-match filter when non-empty.
	ListByUploader(uploaderID, category string) ([]models.UploadedFile, error)
	DeleteFile(fileID string) error
	DeleteAllForUploader(uploaderID string) (int, error)
	UpdateScanStatus(fileID, status string, scannedAt time.Time) error
}
