package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/bennyh960/stupid-chat-app/internal/storage"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

// DownloadAttachment streams an attachment back and advances its lifecycle:
// the referencing messages flip to downloaded and the blob is reclaimed in
// the background once the grace period passes. A second request after that
// gets a plain 404, same as a filename that never existed.
func DownloadAttachment(c *gin.Context) {
	// gin routes on the decoded URL path, so the param already holds the
	// literal filename; decoding again would corrupt names containing
	// percent-sequences.
	filename := c.Param("filename")

	data, err := store.Retrieve(filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "File Not Found")
			return
		}
		logger.Error().Err(err).Str("file", filename).Msg("Failed to retrieve attachment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve file"})
		return
	}

	// RFC 5987 filename* form carries UTF-8 names (e.g. Hebrew) intact
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
