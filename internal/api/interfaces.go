// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// ExtractHandler handles batch extraction and upload progress operations
type ExtractHandler interface {
	HandleExtractBatch(c echo.Context) error
	HandleExtractStatus(c echo.Context) error
	HandleExtractProgressStream(c echo.Context) error
	HandleExtractResult(c echo.Context) error
}

// ReviewHandler handles invoice review and editing operations
type ReviewHandler interface {
	HandleGetInvoice(c echo.Context) error
	HandleEditInvoice(c echo.Context) error
}

// QueueHandler handles review queue listing and export operations
type QueueHandler interface {
	HandleQueueList(c echo.Context) error
	HandleQueueMsgpack(c echo.Context) error
	HandleQueueExport(c echo.Context) error
}

// FileHandler handles stored invoice document operations
type FileHandler interface {
	HandleGetFile(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
