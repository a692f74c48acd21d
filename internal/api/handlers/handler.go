// Package handlers wires the file service to its HTTP and NATS surfaces.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/openlms/file-service/internal/services"
)

type Handler struct {
	files  *services.FileService
	logger zerolog.Logger
}

func NewHandler(files *services.FileService, logger zerolog.Logger) *Handler {
	return &Handler{files: files, logger: logger}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"providers": h.files.Backends().Names(),
		"default":   h.files.Backends().DefaultName(),
	})
}

// writeError translates service errors into HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		h.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
