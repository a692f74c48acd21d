package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openlms/file-service/internal/configuration"
	"github.com/openlms/file-service/internal/filetype"
	"github.com/openlms/file-service/internal/models"
	"github.com/openlms/file-service/internal/storage"
)

// Identity is the authenticated caller. The zero value is an anonymous
// requester, which can only reach public files.
type Identity struct {
	UserID string
	Admin  bool
}

// UploadParams carries one upload request.
type UploadParams struct {
	UploaderID  string
	Content     []byte
	Filename    string
	ContentType string
	Folder      string
	Public      bool
}

// Delivery modes for retrieved files.
const (
	DeliverLocalFile = "file"     // stream LocalPath from disk
	DeliverRedirect  = "redirect" // send the client to URL
)

// Delivery tells the transport layer how to hand the file to the client.
type Delivery struct {
	Mode      string
	LocalPath string
	URL       string
}

// FileService is the single entry point for uploads and retrieval. It owns
// backend selection, validation, metadata persistence and authorization.
type FileService struct {
	upload   configuration.UploadConfig
	allowed  []string
	backends *storage.Registry
	store    MetadataStore
	events   *EventBus
	scanner  *Scanner
	logger   zerolog.Logger
}

func NewFileService(upload configuration.UploadConfig, backends *storage.Registry, store MetadataStore, events *EventBus, logger zerolog.Logger) *FileService {
	return &FileService{
		upload:   upload,
		allowed:  upload.Extensions(),
		backends: backends,
		store:    store,
		events:   events,
		logger:   logger,
	}
}

// AttachScanner enables asynchronous virus scanning of new uploads.
func (s *FileService) AttachScanner(sc *Scanner) {
	s.scanner = sc
}

// Backends exposes the registry for health reporting.
func (s *FileService) Backends() *storage.Registry {
	return s.backends
}

// MaxFileSize returns the per-file byte ceiling so transports can refuse
// oversized bodies before buffering them.
func (s *FileService) MaxFileSize() int64 {
	return s.upload.MaxFileSize
}

// Upload validates, stores and records one file. The declared filename is
// only kept as a display label; the stored object name is always a fresh
// UUID plus the validated extension.
func (s *FileService) Upload(ctx context.Context, p UploadParams) (models.UploadedFile, error) {
	if len(p.Content) == 0 {
		return models.UploadedFile{}, &ValidationError{Reason: "file is empty"}
	}
	if int64(len(p.Content)) > s.upload.MaxFileSize {
		return models.UploadedFile{}, validationErrorf("file exceeds maximum size of %d bytes", s.upload.MaxFileSize)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p.Filename), "."))
	if ext == "" {
		return models.UploadedFile{}, &ValidationError{Reason: "filename has no extension"}
	}
	if !s.extensionAllowed(ext) {
		return models.UploadedFile{}, validationErrorf("file extension %q is not allowed", ext)
	}

	folder, err := cleanFolder(p.Folder, s.upload.DefaultFolder)
	if err != nil {
		return models.UploadedFile{}, err
	}

	if s.upload.VerifyContent && !filetype.Matches(p.Content, ext, s.allowed) {
		return models.UploadedFile{}, validationErrorf("file content does not match extension %q", ext)
	}

	detectedMIME, _ := filetype.Detect(p.Content)
	mimeType := p.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = detectedMIME
	}
	category := filetype.Classify(mimeType, ext)

	backend := s.backends.Default()
	fileID := uuid.New().String()
	storageName := fileID + "." + ext

	// Objects are grouped under the uploader so a whole account can be
	// purged by prefix.
	storagePath, err := backend.Save(ctx, path.Join(p.UploaderID, folder), storageName, p.Content, mimeType)
	if err != nil {
		if errors.Is(err, storage.ErrPathOutsideRoot) {
			return models.UploadedFile{}, &ValidationError{Reason: "invalid folder path"}
		}
		return models.UploadedFile{}, fmt.Errorf("failed to store file: %w", err)
	}

	record := models.UploadedFile{
		ID:               fileID,
		UploaderID:       p.UploaderID,
		Filename:         storageName,
		OriginalFilename: p.Filename,
		FileURL:          backend.FileURL(storagePath),
		StoragePath:      storagePath,
		FileType:         category,
		MimeType:         mimeType,
		FileSize:         int64(len(p.Content)),
		Folder:           folder,
		StorageProvider:  backend.Name(),
		IsPublic:         p.Public,
		CreatedAt:        time.Now().UTC(),
	}
	if s.scanner != nil {
		record.ScanStatus = models.ScanPending
	}

	if err := s.store.SaveFile(record); err != nil {
		// Keep storage and metadata consistent: drop the orphan object.
		if delErr := backend.Remove(ctx, storagePath); delErr != nil {
			s.logger.Warn().Err(delErr).Str("path", storagePath).
				Msg("failed to clean up object after metadata save failure")
		}
		return models.UploadedFile{}, fmt.Errorf("failed to save file metadata: %w", err)
	}

	if err := s.events.Publish(SubjectFileUploaded, map[string]any{
		"file_id":     record.ID,
		"uploader_id": record.UploaderID,
		"file_type":   record.FileType,
		"provider":    record.StorageProvider,
		"size":        record.FileSize,
		"uploaded_at": record.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		s.logger.Warn().Err(err).Str("file_id", record.ID).Msg("failed to publish upload event")
	}

	if s.scanner != nil {
		go s.scanner.Scan(record, p.Content)
	}

	return record, nil
}

// Get returns a record after the same authorization check as Retrieve.
func (s *FileService) Get(_ context.Context, fileID string, requester Identity) (models.UploadedFile, error) {
	record, ok, err := s.store.GetFile(fileID)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to load file: %w", err)
	}
	if !ok {
		return models.UploadedFile{}, ErrNotFound
	}
	if !s.mayRead(record, requester) {
		return models.UploadedFile{}, ErrForbidden
	}
	return record, nil
}

// Retrieve authorizes the requester and resolves a delivery strategy:
// local file, then signed URL, then (public only) the plain URL. A private
// remote file with no signing capability is undeliverable and reported as
// not found.
func (s *FileService) Retrieve(ctx context.Context, fileID string, requester Identity) (Delivery, models.UploadedFile, error) {
	record, ok, err := s.store.GetFile(fileID)
	if err != nil {
		return Delivery{}, models.UploadedFile{}, fmt.Errorf("failed to load file: %w", err)
	}
	if !ok {
		return Delivery{}, models.UploadedFile{}, ErrNotFound
	}
	if !s.mayRead(record, requester) {
		return Delivery{}, models.UploadedFile{}, ErrForbidden
	}

	// A storage path is only meaningful with its own provider; a missing
	// backend fails closed.
	backend, ok := s.backends.Get(record.StorageProvider)
	if !ok {
		return Delivery{}, models.UploadedFile{}, ErrNotFound
	}

	if localPath, ok := backend.LocalPath(record.StoragePath); ok {
		if _, err := os.Stat(localPath); err == nil {
			return Delivery{Mode: DeliverLocalFile, LocalPath: localPath}, record, nil
		}
	}

	if url, ok := backend.DownloadURL(ctx, record.StoragePath, s.upload.DownloadURLExpiry()); ok {
		return Delivery{Mode: DeliverRedirect, URL: url}, record, nil
	}

	if record.IsPublic {
		if url := backend.FileURL(record.StoragePath); url != "" {
			return Delivery{Mode: DeliverRedirect, URL: url}, record, nil
		}
	}

	return Delivery{}, models.UploadedFile{}, ErrNotFound
}

// ListByUploader returns an uploader's files newest first, optionally
// filtered to one category.
func (s *FileService) ListByUploader(_ context.Context, uploaderID, category string) ([]models.UploadedFile, error) {
	files, err := s.store.ListByUploader(uploaderID, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete removes a file's object and record. Only the uploader or an
// administrator may delete; public visibility grants read, not write.
func (s *FileService) Delete(ctx context.Context, fileID string, requester Identity) error {
	record, ok, err := s.store.GetFile(fileID)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if !requester.Admin && requester.UserID != record.UploaderID {
		return ErrForbidden
	}

	if backend, ok := s.backends.Get(record.StorageProvider); ok {
		if err := backend.Remove(ctx, record.StoragePath); err != nil {
			s.logger.Warn().Err(err).Str("file_id", fileID).Msg("failed to remove stored object")
		}
	}

	if err := s.store.DeleteFile(fileID); err != nil {
		return fmt.Errorf("failed to delete file metadata: %w", err)
	}

	if err := s.events.Publish(SubjectFileDeleted, map[string]any{
		"file_id":     fileID,
		"uploader_id": record.UploaderID,
	}); err != nil {
		s.logger.Warn().Err(err).Str("file_id", fileID).Msg("failed to publish delete event")
	}

	return nil
}

// PurgeUploader removes every record and object belonging to an uploader.
// Driven by the users.deleted event consumer.
func (s *FileService) PurgeUploader(ctx context.Context, uploaderID string) (int, error) {
	if uploaderID == "" {
		return 0, &ValidationError{Reason: "uploader id is required"}
	}

	deleted, err := s.store.DeleteAllForUploader(uploaderID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records for uploader: %w", err)
	}

	for _, name := range s.backends.Names() {
		backend, _ := s.backends.Get(name)
		if err := backend.RemoveFolder(ctx, uploaderID); err != nil {
			return deleted, fmt.Errorf("failed to purge %s objects: %w", name, err)
		}
	}

	return deleted, nil
}

func (s *FileService) mayRead(record models.UploadedFile, requester Identity) bool {
	return record.IsPublic || requester.Admin || (requester.UserID != "" && requester.UserID == record.UploaderID)
}

func (s *FileService) extensionAllowed(ext string) bool {
	for _, a := range s.allowed {
		if a == ext {
			return true
		}
	}
	return false
}

// cleanFolder normalizes the caller-supplied folder and rejects anything
// that could climb out of the storage root. Backends still enforce
// containment on their own.
func cleanFolder(folder, fallback string) (string, error) {
	if strings.TrimSpace(folder) == "" {
		return fallback, nil
	}
	f := path.Clean(strings.ReplaceAll(folder, "\\", "/"))
	if f == "." {
		return fallback, nil
	}
	if strings.HasPrefix(f, "/") || f == ".." || strings.HasPrefix(f, "../") {
		return "", &ValidationError{Reason: "invalid folder path"}
	}
	return f, nil
}
