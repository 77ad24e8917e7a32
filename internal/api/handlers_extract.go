// handlers_extract.go - Batch extraction and upload progress handlers
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/invoice-workbench/backend/internal/extraction"
	"github.com/invoice-workbench/backend/internal/progress"
	"github.com/invoice-workbench/backend/internal/session"
	"github.com/invoice-workbench/backend/internal/storage"
)

// ExtractHandlerImpl implements the ExtractHandler interface
type ExtractHandlerImpl struct {
	store         storage.Store
	sessions      *session.Manager
	extractor     *extraction.Client
	maxBatchFiles int
	allowedExts   map[string]bool
}

// NewExtractHandler creates a new extraction handler instance
func NewExtractHandler(store storage.Store, sessions *session.Manager, extractor *extraction.Client, maxBatchFiles int, allowedExts []string) ExtractHandler {
	exts := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = true
	}
	return &ExtractHandlerImpl{
		store:         store,
		sessions:      sessions,
		extractor:     extractor,
		maxBatchFiles: maxBatchFiles,
		allowedExts:   exts,
	}
}

// HandleExtractBatch accepts a multipart batch of invoice documents, stores
// them, and starts asynchronous extraction. The response carries the batch ID
// and the initial per-file states; progress is polled or streamed separately.
func (h *ExtractHandlerImpl) HandleExtractBatch(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		return NewValidationError("files")
	}
	if h.maxBatchFiles > 0 && len(parts) > h.maxBatchFiles {
		return NewBadRequestError(fmt.Sprintf("too many files: %d (limit %d)", len(parts), h.maxBatchFiles), nil)
	}

	var metas []progress.FileMeta
	var batchFiles []extraction.File

	for _, part := range parts {
		if !h.allowedExts[strings.ToLower(filepath.Ext(part.Filename))] {
			return NewBadRequestError("unsupported file type: "+part.Filename, nil)
		}

		src, err := part.Open()
		if err != nil {
			return NewInternalError("failed to open uploaded file", err)
		}

		// Buffered once: the same bytes go to storage and to the
		// extraction payload.
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, src); err != nil {
			src.Close()
			return NewInternalError("failed to read uploaded file", err)
		}
		src.Close()

		info, err := h.store.Save(part.Filename, bytes.NewReader(buf.Bytes()))
		if err != nil {
			return NewInternalError("failed to save file", err)
		}

		metas = append(metas, progress.FileMeta{Name: info.Name, Size: info.Size})
		batchFiles = append(batchFiles, extraction.File{
			Name:    info.Name,
			Size:    info.Size,
			Content: bytes.NewReader(buf.Bytes()),
		})
	}

	wsID := workspaceID(c)
	batchID, tracker := h.sessions.StartBatch(wsID, metas)

	go h.runBatch(wsID, batchID, tracker, batchFiles)

	return c.JSON(http.StatusAccepted, extractStatusResponse{
		BatchID:  batchID,
		Resolved: false,
		Files:    tracker.Snapshot(),
	})
}

// runBatch performs the extraction call in the background and resolves the
// batch either way.
func (h *ExtractHandlerImpl) runBatch(wsID, batchID string, tracker *progress.Tracker, files []extraction.File) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Extract %s] PANIC recovered: %v\n", shortID(batchID), r)
			h.sessions.FailBatch(wsID, batchID, "Failed to process invoices.")
		}
	}()

	start := time.Now()
	fmt.Printf("[Extract %s] Sending %d file(s), %d bytes total\n",
		shortID(batchID), len(files), tracker.Total())

	result, err := h.extractor.ExtractBatch(context.Background(), files, tracker.Observe)
	if err != nil {
		fmt.Printf("[Extract %s] ERROR: %v\n", shortID(batchID), err)
		h.sessions.FailBatch(wsID, batchID, extraction.UserMessage(err))
		return
	}

	fmt.Printf("[Extract %s] Done in %s\n", shortID(batchID), time.Since(start).Round(time.Millisecond))
	h.sessions.ResolveBatch(wsID, batchID, result)
}

// HandleExtractStatus returns the current per-file upload states
func (h *ExtractHandlerImpl) HandleExtractStatus(c echo.Context) error {
	tracker, batchID, ok := h.sessions.Tracker(workspaceID(c))
	if !ok {
		return NewNotFoundError("batch", "none in progress")
	}
	return c.JSON(http.StatusOK, extractStatusResponse{
		BatchID:  batchID,
		Resolved: tracker.Resolved(),
		Files:    tracker.Snapshot(),
	})
}

// HandleExtractProgressStream streams per-file upload states via SSE
func (h *ExtractHandlerImpl) HandleExtractProgressStream(c echo.Context) error {
	wsID := workspaceID(c)

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	tracker, batchID, ok := h.sessions.Tracker(wsID)
	if !ok {
		sendSSEError(c, "no batch in progress")
		return nil
	}

	send := func() bool {
		sendSSEData(c, extractStatusResponse{
			BatchID:  batchID,
			Resolved: tracker.Resolved(),
			Files:    tracker.Snapshot(),
		})
		return tracker.Resolved()
	}

	if send() {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			if send() {
				return nil
			}
		case <-timeout.C:
			sendSSEError(c, "stream timeout")
			return nil
		case <-c.Request().Context().Done():
			return nil
		}
	}
}

// HandleExtractResult returns the current aggregate snapshot. 204 means no
// batch has completed yet.
func (h *ExtractHandlerImpl) HandleExtractResult(c echo.Context) error {
	agg := h.sessions.Aggregate(workspaceID(c))
	if agg == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, agg)
}

// Request/Response types

type extractStatusResponse struct {
	BatchID  string      `json:"batchId"`
	Resolved bool        `json:"resolved"`
	Files    interface{} `json:"files"`
}

// Helpers

// workspaceID identifies the caller's workspace. Single-user deployments just
// use the default.
func workspaceID(c echo.Context) string {
	if id := c.Request().Header.Get("X-Workspace-ID"); id != "" {
		return id
	}
	if id := c.QueryParam("workspace"); id != "" {
		return id
	}
	return "default"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func sendSSEError(c echo.Context, message string) {
	sendSSEData(c, map[string]string{"error": message})
}
