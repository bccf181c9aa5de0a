package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docassist/internal/app"
	"docassist/internal/pkg/extract"
	"docassist/internal/transport/http/response"
)

type DocumentHandler struct {
	docService *app.DocumentService
	maxUpload  int64
}

func NewDocumentHandler(docService *app.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{docService: docService, maxUpload: maxUpload}
}

// Upload handles POST /upload: multipart form field "file", validated against
// the supported extensions and the upload size cap.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Detail(c, http.StatusBadRequest, "missing file")
		return
	}

	allowed := strings.Join(extract.SupportedTypes(), ", ")
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		response.Detail(c, http.StatusBadRequest,
			fmt.Sprintf("File must have an extension. Allowed types: %s", allowed))
		return
	}
	if !extract.IsSupported(ext) {
		response.Detail(c, http.StatusBadRequest,
			fmt.Sprintf("Unsupported file type '%s'. Allowed types: %s", ext, allowed))
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Detail(c, http.StatusBadRequest,
			fmt.Sprintf("file too large (max %d MB)", h.maxUpload>>20))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	doc, err := h.docService.Upload(c.Request.Context(), currentUserID(c), file.Filename, file.Size, f)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingExtension),
			errors.Is(err, app.ErrUnsupportedFile),
			errors.Is(err, app.ErrFileTooLarge):
			response.Detail(c, http.StatusBadRequest, err.Error())
		default:
			response.Detail(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Document processed successfully",
		"document_info": doc,
	})
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docService.List(currentUserID(c))
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "list documents failed")
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Delete handles DELETE /api/v1/documents/:id, where :id is the document uid.
func (h *DocumentHandler) Delete(c *gin.Context) {
	docUID := strings.TrimSpace(c.Param("id"))
	if docUID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return
	}
	if err := h.docService.Delete(currentUserID(c), docUID); err != nil {
		if errors.Is(err, app.ErrDocumentNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_document_id": docUID})
}
