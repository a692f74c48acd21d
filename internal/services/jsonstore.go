package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/openlms/file-service/internal/models"
)

// JSONStore is a file-backed metadata store used when PostgreSQL is
// unavailable at startup. Every mutation rewrites the JSON file atomically
// (temp file + rename). Not meant for production volumes.
type JSONStore struct {
	path string

	mu    sync.RWMutex
	files map[string]models.UploadedFile
}

// jsonRecord restores StoragePath, which the API serialization of
// UploadedFile deliberately omits.
type jsonRecord struct {
	models.UploadedFile
	StoragePath string `json:"storage_path"`
}

// NewJSONStore loads existing records from path, starting empty when the
// file does not exist yet.
func NewJSONStore(path string) (*JSONStore, error) {
	s := &JSONStore{
		path:  path,
		files: make(map[string]models.UploadedFile),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	records := make(map[string]jsonRecord)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	for id, r := range records {
		f := r.UploadedFile
		f.StoragePath = r.StoragePath
		s.files[id] = f
	}
	return s, nil
}

func (s *JSONStore) SaveFile(f models.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[f.ID] = f
	if err := s.flushLocked(); err != nil {
		delete(s.files, f.ID)
		return fmt.Errorf("failed to persist metadata: %w", err)
	}
	return nil
}

func (s *JSONStore) GetFile(fileID string) (models.UploadedFile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	return f, ok, nil
}

func (s *JSONStore) ListByUploader(uploaderID, category string) ([]models.UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]models.UploadedFile, 0)
	for _, f := range s.files {
		if f.UploaderID != uploaderID {
			continue
		}
		if category != "" && f.FileType != category {
			continue
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

func (s *JSONStore) DeleteFile(fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[fileID]; !ok {
		return nil
	}
	delete(s.files, fileID)
	return s.flushLocked()
}

func (s *JSONStore) DeleteAllForUploader(uploaderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, f := range s.files {
		if f.UploaderID == uploaderID {
			delete(s.files, id)
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.flushLocked()
}

func (s *JSONStore) UpdateScanStatus(fileID, status string, scannedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return fmt.Errorf("no metadata for file %s", fileID)
	}
	f.ScanStatus = status
	f.ScannedAt = &scannedAt
	s.files[fileID] = f
	return s.flushLocked()
}

// flushLocked writes the store to disk; callers hold the write lock.
func (s *JSONStore) flushLocked() error {
	records := make(map[string]jsonRecord, len(s.files))
	for id, f := range s.files {
		records[id] = jsonRecord{UploadedFile: f, StoragePath: f.StoragePath}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to rename metadata file: %w", err)
	}
	return nil
}
