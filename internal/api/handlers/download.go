package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/file-service/internal/api/middleware"
	"github.com/openlms/file-service/internal/services"
)

// Download streams a locally stored file or redirects to a remote URL,
// following the service's delivery chain.
func (h *Handler) Download(c *gin.Context) {
	delivery, record, err := h.files.Retrieve(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	switch delivery.Mode {
	case services.DeliverLocalFile:
		c.Header("Content-Description", "File Transfer")
		c.Header("Content-Disposition", `attachment; filename="`+record.OriginalFilename+`"`)
		c.Header("Content-Type", record.MimeType)
		c.File(delivery.LocalPath)
	case services.DeliverRedirect:
		c.Redirect(http.StatusFound, delivery.URL)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	}
}

// Info returns a file's metadata under the same authorization rules as
// Download.
func (h *Handler) Info(c *gin.Context) {
	record, err := h.files.Get(c.Request.Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": record})
}
