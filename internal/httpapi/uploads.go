package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campussecurity/internal/cloudinary"
)

const maxUploadBytes = 10 << 20

var uploadFolders = map[string]bool{"uploads": true, "visitors": true, "lost-items": true, "students": true}

// Upload stores a photo (multipart "file" or JSON {"data": "<data URL>"}) and
// returns its public URL for use in visitor or lost item records.
func (h *Handler) Upload(c *gin.Context) {
	if h.d.Uploads == nil || !h.d.Uploads.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	folder := c.DefaultQuery("folder", "uploads")
	if !uploadFolders[folder] {
		badRequest(c, "unknown folder")
		return
	}

	var (
		result *cloudinary.UploadResult
		err    error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			badRequest(c, "file field required")
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			badRequest(c, "read file failed")
			return
		}
		result, err = h.d.Uploads.UploadBytes(c.Request.Context(), data, header.Filename, folder)
	} else {
		var body struct {
			Data string `json:"data" binding:"required"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil {
			badRequest(c, `provide {"data": "<base64 data URL>"}`)
			return
		}
		result, err = h.d.Uploads.UploadBase64(c.Request.Context(), body.Data, folder)
	}
	if err != nil {
		h.d.Log.Warn().Err(err).Msg("image upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":      result.SecureURL,
		"publicId": result.PublicID,
		"width":    result.Width,
		"height":   result.Height,
		"bytes":    result.Bytes,
	})
}
