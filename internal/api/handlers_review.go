// handlers_review.go - Invoice review and editing handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/invoice-workbench/backend/internal/models"
	"github.com/invoice-workbench/backend/internal/session"
)

// ReviewHandlerImpl implements the ReviewHandler interface
type ReviewHandlerImpl struct {
	sessions *session.Manager
}

// NewReviewHandler creates a new review handler instance
func NewReviewHandler(sessions *session.Manager) ReviewHandler {
	return &ReviewHandlerImpl{sessions: sessions}
}

// HandleGetInvoice returns one invoice from the current snapshot. 204 means
// the workspace has no snapshot or the invoice is unknown.
func (h *ReviewHandlerImpl) HandleGetInvoice(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	agg := h.sessions.Aggregate(workspaceID(c))
	if agg == nil {
		return c.NoContent(http.StatusNoContent)
	}
	inv, ok := agg.Invoices[id]
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, inv)
}

// HandleEditInvoice applies a review edit to one invoice and returns the
// freshly summarized snapshot. The previous snapshot is never mutated. A 204
// means the workspace has no snapshot to edit yet.
func (h *ReviewHandlerImpl) HandleEditInvoice(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	var req editInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	next := h.sessions.ApplyEdit(workspaceID(c), id, req.Invoice, req.LineItems)
	if next == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, next)
}

// Request/Response types

type editInvoiceRequest struct {
	Invoice   models.InvoicePatch `json:"invoice"`
	LineItems []models.LineItem   `json:"line_items"`
}
