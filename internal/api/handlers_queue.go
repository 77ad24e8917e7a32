// handlers_queue.go - Review queue listing and export handlers
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/invoice-workbench/backend/internal/aggregate"
	"github.com/invoice-workbench/backend/internal/export"
	"github.com/invoice-workbench/backend/internal/models"
	"github.com/invoice-workbench/backend/internal/queue"
	"github.com/invoice-workbench/backend/internal/session"
)

// QueueHandlerImpl implements the QueueHandler interface
type QueueHandlerImpl struct {
	sessions *session.Manager
}

// NewQueueHandler creates a new queue handler instance
func NewQueueHandler(sessions *session.Manager) QueueHandler {
	return &QueueHandlerImpl{sessions: sessions}
}

// HandleQueueList returns one page of the review queue with optional vendor,
// status, and search filters
func (h *QueueHandlerImpl) HandleQueueList(c echo.Context) error {
	f := filterFromQuery(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	items, total, err := h.listPage(c, f, page, pageSize)
	if err != nil {
		return NewInternalError("failed to list review queue", err)
	}
	if items == nil {
		items = []queue.Item{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// HandleQueueMsgpack returns the full filtered queue in MessagePack format.
// MessagePack is noticeably smaller than JSON for large queues.
func (h *QueueHandlerImpl) HandleQueueMsgpack(c echo.Context) error {
	f := filterFromQuery(c)

	items, total, err := h.listPage(c, f, 1, 1<<30)
	if err != nil {
		return NewInternalError("failed to list review queue", err)
	}
	if items == nil {
		items = []queue.Item{}
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"items": items,
		"total": total,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleQueueExport downloads the filtered queue as a CSV attachment
func (h *QueueHandlerImpl) HandleQueueExport(c echo.Context) error {
	f := filterFromQuery(c)

	items, _, err := h.listPage(c, f, 1, 1<<30)
	if err != nil {
		return NewInternalError("failed to list review queue", err)
	}

	rows := make([]export.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, export.Row{
			InvoiceID:     it.InvoiceID,
			InvoiceNumber: it.InvoiceNumber,
			Vendor:        it.Vendor,
			Date:          it.Date,
			Total:         fmt.Sprintf("%.2f", it.Total),
			Confidence:    fmt.Sprintf("%.2f", it.Confidence),
			Provider:      it.Provider,
			Model:         it.Model,
		})
	}

	var buf bytes.Buffer
	if err := export.WriteQueue(&buf, rows); err != nil {
		return NewInternalError("failed to write csv", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, export.Filename(time.Now())))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

// listPage reads from the workspace's persisted queue when available and
// falls back to deriving rows from the in-memory snapshot.
func (h *QueueHandlerImpl) listPage(c echo.Context, f queue.Filter, page, pageSize int) ([]queue.Item, int, error) {
	wsID := workspaceID(c)

	if store, ok := h.sessions.Queue(wsID); ok {
		return store.List(c.Request().Context(), f, page, pageSize)
	}

	items := itemsFromAggregate(h.sessions.Aggregate(wsID), f)
	total := len(items)
	start := (page - 1) * pageSize
	if start >= total {
		return []queue.Item{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func filterFromQuery(c echo.Context) queue.Filter {
	return queue.Filter{
		Vendor: c.QueryParam("vendor"),
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
	}
}

// itemsFromAggregate flattens a snapshot to queue rows, filtered and sorted
// by invoice ID.
func itemsFromAggregate(agg *models.AggregateResult, f queue.Filter) []queue.Item {
	if agg == nil {
		return nil
	}

	ids := make([]string, 0, len(agg.Invoices))
	for id := range agg.Invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var items []queue.Item
	for _, id := range ids {
		inv := agg.Invoices[id]
		it := queue.Item{
			InvoiceID:     id,
			InvoiceNumber: inv.InvoiceNumber,
			Vendor:        inv.Vendor,
			Date:          inv.Date,
			Total:         aggregate.CoerceNumber(inv.TotalAmount),
			ReviewStatus:  string(inv.ReviewStatus),
			Provider:      inv.Provider,
			Model:         inv.Model,
			Filename:      inv.Filename,
		}
		if inv.Confidence != nil {
			it.Confidence = aggregate.CoerceNumber(inv.Confidence.Overall)
		}
		if matchesFilter(it, f) {
			items = append(items, it)
		}
	}
	return items
}

func matchesFilter(it queue.Item, f queue.Filter) bool {
	if f.Vendor != "" && it.Vendor != f.Vendor {
		return false
	}
	if f.Status != "" && it.ReviewStatus != f.Status {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(it.InvoiceNumber), needle) &&
			!strings.Contains(strings.ToLower(it.Vendor), needle) &&
			!strings.Contains(strings.ToLower(it.Filename), needle) {
			return false
		}
	}
	return true
}
