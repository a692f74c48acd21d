package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/openlms/file-service/internal/models"
)

// PostgresStore keeps file records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, verifies the connection and ensures the schema.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &PostgresStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (p *PostgresStore) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS uploaded_files (
        id UUID PRIMARY KEY,
        uploader_id VARCHAR(255) NOT NULL,
        filename VARCHAR(255) NOT NULL,
        original_filename VARCHAR(255) NOT NULL,
        file_url VARCHAR(1000),
        storage_path VARCHAR(1000) NOT NULL,
        file_type VARCHAR(50) NOT NULL,
        mime_type VARCHAR(255),
        file_size BIGINT NOT NULL,
        folder VARCHAR(255),
        storage_provider VARCHAR(50) NOT NULL,
        is_public BOOLEAN NOT NULL DEFAULT false,
        scan_status VARCHAR(50) DEFAULT 'pending',
        scanned_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );
    CREATE INDEX IF NOT EXISTS idx_uploaded_files_uploader ON uploaded_files (uploader_id, created_at DESC);
    CREATE INDEX IF NOT EXISTS idx_uploaded_files_type ON uploaded_files (uploader_id, file_type);
    `
	_, err := p.db.Exec(query)
	return err
}

func (p *PostgresStore) SaveFile(f models.UploadedFile) error {
	query := `
        INSERT INTO uploaded_files
            (id, uploader_id, filename, original_filename, file_url, storage_path,
             file_type, mime_type, file_size, folder, storage_provider, is_public,
             scan_status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := p.db.Exec(query,
		f.ID, f.UploaderID, f.Filename, f.OriginalFilename, f.FileURL, f.StoragePath,
		f.FileType, f.MimeType, f.FileSize, f.Folder, f.StorageProvider, f.IsPublic,
		f.ScanStatus, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save file metadata: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetFile(fileID string) (models.UploadedFile, bool, error) {
	query := selectColumns + ` WHERE id = $1`
	row := p.db.QueryRow(query, fileID)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return models.UploadedFile{}, false, nil
	}
	if err != nil {
		return models.UploadedFile{}, false, fmt.Errorf("failed to load file metadata: %w", err)
	}
	return f, true, nil
}

func (p *PostgresStore) ListByUploader(uploaderID, category string) ([]models.UploadedFile, error) {
	query := selectColumns + ` WHERE uploader_id = $1`
	args := []any{uploaderID}
	if category != "" {
		query += ` AND file_type = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []models.UploadedFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (p *PostgresStore) DeleteFile(fileID string) error {
	_, err := p.db.Exec(`DELETE FROM uploaded_files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file metadata: %w", err)
	}
	return nil
}

func (p *PostgresStore) DeleteAllForUploader(uploaderID string) (int, error) {
	res, err := p.db.Exec(`DELETE FROM uploaded_files WHERE uploader_id = $1`, uploaderID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete files for uploader: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (p *PostgresStore) UpdateScanStatus(fileID, status string, scannedAt time.Time) error {
	_, err := p.db.Exec(
		`UPDATE uploaded_files SET scan_status = $1, scanned_at = $2 WHERE id = $3`,
		status, scannedAt, fileID)
	if err != nil {
		return fmt.Errorf("failed to update scan status: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

const selectColumns = `
    SELECT id, uploader_id, filename, original_filename, file_url, storage_path,
           file_type, mime_type, file_size, folder, storage_provider, is_public,
           scan_status, scanned_at, created_at
    FROM uploaded_files`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (models.UploadedFile, error) {
	var f models.UploadedFile
	var fileURL, mimeType, folder, scanStatus sql.NullString
	var scannedAt sql.NullTime

	err := row.Scan(&f.ID, &f.UploaderID, &f.Filename, &f.OriginalFilename,
		&fileURL, &f.StoragePath, &f.FileType, &mimeType, &f.FileSize,
		&folder, &f.StorageProvider, &f.IsPublic, &scanStatus, &scannedAt,
		&f.CreatedAt)
	if err != nil {
		return models.UploadedFile{}, err
	}

	f.FileURL = fileURL.String
	f.MimeType = mimeType.String
	f.Folder = folder.String
	f.ScanStatus = scanStatus.String
	if scannedAt.Valid {
		t := scannedAt.Time
		f.ScannedAt = &t
	}
	return f, nil
}
