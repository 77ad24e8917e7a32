// handlers_files.go - Stored invoice document handlers
package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/invoice-workbench/backend/internal/storage"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	store       storage.Store
	allowedExts map[string]bool
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(store storage.Store, allowedExts []string) FileHandler {
	exts := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = true
	}
	return &FileHandlerImpl{store: store, allowedExts: exts}
}

// HandleGetFile serves a stored invoice document inline so the review pane
// can display it next to the extracted fields
func (h *FileHandlerImpl) HandleGetFile(c echo.Context) error {
	name := c.Param("filename")
	if name == "" {
		return NewValidationError("filename")
	}

	safe, err := storage.SafeName(name)
	if err != nil {
		return NewBadRequestError("invalid filename", err)
	}
	if !h.allowedExts[strings.ToLower(filepath.Ext(safe))] {
		return NewBadRequestError("unsupported file type: "+safe, nil)
	}

	content, info, err := h.store.Open(safe)
	if err != nil {
		return NewNotFoundError("file", safe)
	}
	defer content.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+info.Name+`"`)
	return c.Stream(http.StatusOK, info.ContentType, content)
}

// HandleGetRecentFiles returns the most recently uploaded documents
func (h *FileHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleDeleteFile removes a stored document
func (h *FileHandlerImpl) HandleDeleteFile(c echo.Context) error {
	name := c.Param("filename")
	if name == "" {
		return NewValidationError("filename")
	}

	if err := h.store.Delete(name); err != nil {
		return NewNotFoundError("file", name)
	}
	return c.NoContent(http.StatusNoContent)
}
