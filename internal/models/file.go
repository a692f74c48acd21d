package models

import (
	"time"
)

// File categories stored in UploadedFile.FileType.
const (
	CategoryVideo    = "video"
	CategoryImage    = "image"
	CategoryDocument = "document"
	CategoryOther    = "other"
)

// Scan states for uploaded content.
const (
	ScanPending  = "pending"
	ScanClean    = "clean"
	ScanInfected = "infected"
)

// UploadedFile is the persisted record for a single upload. It is written
// once at upload time and never mutated afterwards, except for the scan
// status columns. StoragePath is opaque outside the backend that produced
// it and is only meaningful together with StorageProvider.
type UploadedFile struct {
	ID               string     `json:"id"`
	UploaderID       string     `json:"uploader_id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	FileURL          string     `json:"file_url"`
	StoragePath      string     `json:"-"`
	FileType         string     `json:"file_type"`
	MimeType         string     `json:"mime_type"`
	FileSize         int64      `json:"file_size"`
	Folder           string     `json:"folder"`
	StorageProvider  string     `json:"storage_provider"`
	IsPublic         bool       `json:"is_public"`
	ScanStatus       string     `json:"scan_status,omitempty"`
	ScannedAt        *time.Time `json:"scanned_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
