// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/invoice-workbench/backend/internal/extraction"
	"github.com/invoice-workbench/backend/internal/session"
	"github.com/invoice-workbench/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store         storage.Store
	Sessions      *session.Manager
	Extractor     *extraction.Client
	MaxBatchFiles int
	AllowedExts   []string
	Version       string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Extract  ExtractHandler
	Review   ReviewHandler
	Queue    QueueHandler
	Files    FileHandler
	Progress *WebSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Extract:  NewExtractHandler(deps.Store, deps.Sessions, deps.Extractor, deps.MaxBatchFiles, deps.AllowedExts),
		Review:   NewReviewHandler(deps.Sessions),
		Queue:    NewQueueHandler(deps.Sessions),
		Files:    NewFileHandler(deps.Store, deps.AllowedExts),
		Progress: NewWebSocketHandler(deps.Sessions),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/health", handlers.Health.HandleHealth)

	// Batch extraction routes
	extractGroup := e.Group("/api/extract")
	extractGroup.POST("", handlers.Extract.HandleExtractBatch)
	extractGroup.GET("/status", handlers.Extract.HandleExtractStatus)
	extractGroup.GET("/progress", handlers.Extract.HandleExtractProgressStream)

	// Aggregate result and invoice review routes
	e.GET("/api/result", handlers.Extract.HandleExtractResult)
	invoiceGroup := e.Group("/api/invoices")
	invoiceGroup.GET("/:id", handlers.Review.HandleGetInvoice)
	invoiceGroup.PUT("/:id", handlers.Review.HandleEditInvoice)

	// Review queue routes
	queueGroup := e.Group("/api/queue")
	queueGroup.GET("", handlers.Queue.HandleQueueList)
	queueGroup.GET("/msgpack", handlers.Queue.HandleQueueMsgpack)
	queueGroup.GET("/export", handlers.Queue.HandleQueueExport)

	// Stored document routes
	fileGroup := e.Group("/api/files")
	fileGroup.GET("/recent", handlers.Files.HandleGetRecentFiles)
	fileGroup.GET("/:filename", handlers.Files.HandleGetFile)
	fileGroup.DELETE("/:filename", handlers.Files.HandleDeleteFile)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/progress", handlers.Progress.HandleProgressSocket)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
