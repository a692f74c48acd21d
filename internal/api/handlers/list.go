package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/file-service/internal/api/middleware"
	"github.com/openlms/file-service/internal/models"
)

// List returns the caller's files, newest first. "type" filters on the file
// category.
func (h *Handler) List(c *gin.Context) {
	ident := middleware.Identity(c)

	category := c.Query("type")
	switch category {
	case "", models.CategoryVideo, models.CategoryImage, models.CategoryDocument, models.CategoryOther:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown file type filter"})
		return
	}

	files, err := h.files.ListByUploader(c.Request.Context(), ident.UserID, category)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if files == nil {
		files = []models.UploadedFile{}
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": len(files),
	})
}
