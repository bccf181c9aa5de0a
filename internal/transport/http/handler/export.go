package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"docassist/internal/app"
	"docassist/internal/transport/http/response"
)

type ExportHandler struct {
	exportService *app.ExportService
	chatService   chatStreamer
}

type ExportRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Format         string `json:"format" binding:"required"`
}

func NewExportHandler(exportService *app.ExportService, chatService chatStreamer) *ExportHandler {
	return &ExportHandler{exportService: exportService, chatService: chatService}
}

// Export handles POST /export: renders the conversation to a file and returns
// its name for download.
func (h *ExportHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	turns, err := h.chatService.History(c.Request.Context(), currentUserID(c), req.ConversationID, 0)
	if err != nil {
		if errors.Is(err, app.ErrConversationNotFound) {
			response.Detail(c, http.StatusNotFound, "Conversation not found")
		} else {
			response.Detail(c, http.StatusInternalServerError, "fetch conversation failed")
		}
		return
	}
	if len(turns) == 0 {
		response.Detail(c, http.StatusNotFound, "Conversation not found")
		return
	}

	fileName, err := h.exportService.Export(req.ConversationID, turns, req.Format)
	if err != nil {
		if errors.Is(err, app.ErrUnsupportedFormat) {
			response.Detail(c, http.StatusBadRequest, err.Error())
		} else {
			response.Detail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"file_name": fileName})
}

// Download handles GET /download/:file_name.
func (h *ExportHandler) Download(c *gin.Context) {
	fileName := c.Param("file_name")
	path, err := h.exportService.ResolvePath(fileName)
	if err != nil {
		response.Detail(c, http.StatusBadRequest, "invalid file name")
		return
	}
	if _, err := os.Stat(path); err != nil {
		response.Detail(c, http.StatusNotFound, "File not found")
		return
	}
	c.FileAttachment(path, fileName)
}
