package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/file-service/internal/api/middleware"
)

// Delete removes a file and its record; only the uploader or an admin may
// call it.
func (h *Handler) Delete(c *gin.Context) {
	fileID := c.Param("id")

	if err := h.files.Delete(c.Request.Context(), fileID, middleware.Identity(c)); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "file deleted",
		"file_id": fileID,
	})
}
