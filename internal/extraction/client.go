// Package extraction is the client for the remote invoice extraction
// service. A whole batch travels as one multipart payload and resolves
// all-or-nothing; per-file progress is derived upstream from the cumulative
// bytes this client reports while streaming the body.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/invoice-workbench/backend/internal/models"
)

// DefaultTimeout is the fixed upper bound on a batch call. A timeout is
// treated identically to any other transport failure.
const DefaultTimeout = 5 * time.Minute

const (
	// unreachableMessage is shown when no response was received at all
	// (connection refused, timeout).
	unreachableMessage = "Could not reach the extraction service. Please verify the service is running and reachable."
	// fallbackMessage covers local failures with no usable error text.
	fallbackMessage = "Failed to process invoices."
)

// File is one invoice document queued for extraction.
type File struct {
	Name    string
	Size    int64
	Content io.Reader
}

// ProgressFunc receives the cumulative bytes the transport has consumed from
// the request body.
type ProgressFunc func(bytesSent int64)

// Client talks to the extraction service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BatchError is a failed batch call. Message is the user-facing text derived
// by the precedence rules in this package; Cause is the underlying error, if
// any.
type BatchError struct {
	Message string
	Cause   error
}

func (e *BatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BatchError) Unwrap() error { return e.Cause }

// UserMessage extracts the user-facing text from a batch failure. Non-batch
// errors fall back to a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BatchError); ok {
		return be.Message
	}
	return fallbackMessage
}

// countingReader reports cumulative bytes as the transport drains the body.
type countingReader struct {
	r    io.Reader
	sent int64
	fn   ProgressFunc
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.fn != nil {
			c.fn(c.sent)
		}
	}
	return n, err
}

// ExtractBatch sends the ordered files as a single multipart payload and
// returns the aggregate result. onProgress, if set, observes the cumulative
// multipart bytes written, monotonically non-decreasing.
//
// Failure messages follow a fixed precedence: a received response yields its
// detail/error field text (or "Server error: {status}"), no response at all
// yields a fixed reachability message, and a local pre-send failure yields
// the error's own text.
func (c *Client) ExtractBatch(ctx context.Context, files []File, onProgress ProgressFunc) (*models.AggregateResult, error) {
	if len(files) == 0 {
		return nil, &BatchError{Message: "No files provided."}
	}

	// The multipart body is buffered up front: invoice documents are small,
	// and a deterministic payload keeps byte progress meaningful against the
	// precomputed ranges.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, &BatchError{Message: localMessage(err), Cause: err}
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, &BatchError{Message: localMessage(err), Cause: err}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, &BatchError{Message: localMessage(err), Cause: err}
	}

	body := &countingReader{r: &buf, fn: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/invoice/extract-batch", body)
	if err != nil {
		return nil, &BatchError{Message: localMessage(err), Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = int64(buf.Len())

	resp, err := c.http.Do(req)
	if err != nil {
		// The request left the process but nothing came back.
		return nil, &BatchError{Message: unreachableMessage, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BatchError{Message: serverMessage(resp)}
	}

	var result models.AggregateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &BatchError{Message: "Extraction service returned an unreadable response.", Cause: err}
	}
	return &result, nil
}

// serverMessage derives the failure text from a received error response:
// the detail/error field when present, otherwise the status code.
func serverMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Detail any    `json:"detail"`
		Err    string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Detail != nil {
			return fmt.Sprint(payload.Detail)
		}
		if payload.Err != "" {
			return payload.Err
		}
	}
	return fmt.Sprintf("Server error: %d", resp.StatusCode)
}

// localMessage derives the failure text for an error raised before the
// request was issued.
func localMessage(err error) string {
	if err == nil || err.Error() == "" {
		return fallbackMessage
	}
	return err.Error()
}
