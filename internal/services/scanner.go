package services

import (
	"bytes"
	"context"
	"time"

	clamd "github.com/dutchcoders/go-clamd"
	"github.com/rs/zerolog"

	"github.com/openlms/file-service/internal/models"
	"github.com/openlms/file-service/internal/storage"
)

// Scanner checks uploaded content against ClamAV after the upload has been
// acknowledged. Infected objects are removed from their backend and the
// record's scan status updated; scan failures leave the status at pending.
type Scanner struct {
	address  string
	store    MetadataStore
	backends *storage.Registry
	logger   zerolog.Logger
}

func NewScanner(address string, store MetadataStore, backends *storage.Registry, logger zerolog.Logger) *Scanner {
	return &Scanner{
		address:  address,
		store:    store,
		backends: backends,
		logger:   logger,
	}
}

// Scan streams content to ClamAV. Runs on its own goroutine; errors are
// logged, never surfaced to the uploader.
func (sc *Scanner) Scan(record models.UploadedFile, content []byte) {
	c := clamd.NewClamd(sc.address)

	results, err := c.ScanStream(bytes.NewReader(content), make(chan bool))
	if err != nil {
		sc.logger.Error().Err(err).Str("file_id", record.ID).Msg("virus scan failed")
		return
	}

	status := models.ScanClean
	for res := range results {
		if res.Status == clamd.RES_FOUND {
			sc.logger.Warn().
				Str("file_id", record.ID).
				Str("signature", res.Description).
				Msg("virus detected, removing object")
			status = models.ScanInfected

			if backend, ok := sc.backends.Get(record.StorageProvider); ok {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if err := backend.Remove(ctx, record.StoragePath); err != nil {
					sc.logger.Error().Err(err).Str("file_id", record.ID).
						Msg("failed to remove infected object")
				}
				cancel()
			}
		}
	}

	if err := sc.store.UpdateScanStatus(record.ID, status, time.Now().UTC()); err != nil {
		sc.logger.Error().Err(err).Str("file_id", record.ID).Msg("failed to update scan status")
		return
	}
	sc.logger.Info().Str("file_id", record.ID).Str("status", status).Msg("scan finished")
}
