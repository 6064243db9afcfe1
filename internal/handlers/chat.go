package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bennyh960/stupid-chat-app/internal/config"
	"github.com/bennyh960/stupid-chat-app/internal/storage"
	"github.com/bennyh960/stupid-chat-app/pkg/logger"
)

// store is wired at startup (and by tests) via UseStore.
var store *storage.Store

// UseStore installs the storage handle the chat handlers operate on.
func UseStore(s *storage.Store) {
	store = s
}

// GetChat returns the full message log. Clients poll this endpoint and diff
// on their side, so no filtering or pagination happens here.
func GetChat(c *gin.Context) {
	messages, err := store.ListMessages()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read message log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendChat handles a multipart form with `message`, `sender`, `receiver`
// and an optional `file`. The file (if any) is written before the message
// record, so a rejected upload never leaves a dangling reference in the log.
func SendChat(c *gin.Context) {
	var att *storage.Attachment
	file, header, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()

		if max := config.AppConfig.MaxUploadBytes; max > 0 && header.Size > max {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		att = &storage.Attachment{Name: header.Filename, Data: file}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Text-only message; nothing to store on the blob side
	default:
		// A broken file part must fail the whole send, not silently
		// degrade to a text-only message
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed file upload"})
		return
	}

	sender := c.PostForm("sender")
	receiver := c.PostForm("receiver")
	text := c.PostForm("message")

	if sender == "" || receiver == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender and receiver are required"})
		return
	}
	if att == nil && text == "" {
		// Neither text nor file; nothing to relay
		c.JSON(http.StatusBadRequest, gin.H{"error": "message or file is required"})
		return
	}

	msg, err := store.AppendMessage(sender, receiver, text, att)
	if err != nil {
		logger.Error().Err(err).Str("sender", sender).Msg("Failed to append message")
		if errors.Is(err, storage.ErrWriteFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// DeleteFile removes a message's attachment: the blob goes first, then the
// record is marked deleted with its reference cleared. Repeating the call
// settles on the same end state.
func DeleteFile(c *gin.Context) {
	var req struct {
		MsgID    int64  `json:"msgId" binding:"required"`
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "msgId and filename are required"})
		return
	}

	if err := store.ExplicitDelete(req.MsgID, req.Filename); err != nil {
		logger.Error().Err(err).Int64("messageId", req.MsgID).Msg("Failed to delete attachment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearChat wipes the message log and every stored attachment.
func ClearChat(c *gin.Context) {
	if err := store.ResetAll(); err != nil {
		logger.Error().Err(err).Msg("Failed to clear chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
