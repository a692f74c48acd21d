package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlms/file-service/internal/api/middleware"
	"github.com/openlms/file-service/internal/services"
)

// Upload accepts one multipart file plus optional "folder" and "is_public"
// fields and returns the created record.
func (h *Handler) Upload(c *gin.Context) {
	ident := middleware.Identity(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	// Checked against the declared part size before the body is buffered;
	// the service re-checks the actual byte count.
	if limit := h.files.MaxFileSize(); fileHeader.Size > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds maximum size of %d bytes", limit)})
		return
	}

	isPublic := false
	if v := c.PostForm("is_public"); v != "" {
		isPublic, _ = strconv.ParseBool(v)
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	record, err := h.files.Upload(c.Request.Context(), services.UploadParams{
		UploaderID:  ident.UserID,
		Content:     content,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Folder:      c.PostForm("folder"),
		Public:      isPublic,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file": record})
}
