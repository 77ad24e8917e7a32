package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/invoice-workbench/backend/internal/models"
	"github.com/invoice-workbench/backend/internal/progress"
	"github.com/invoice-workbench/backend/internal/session"
	"github.com/invoice-workbench/backend/internal/validation"
)

func seededManager(t *testing.T) *session.Manager {
	t.Helper()
	mgr := session.NewManager(validation.DefaultRules(), nil)
	batchID, _ := mgr.StartBatch("default", []progress.FileMeta{{Name: "acme.pdf", Size: 10}})
	mgr.ResolveBatch("default", batchID, &models.AggregateResult{
		Summary: models.Summary{TotalAmount: "100.00", TotalInvoicesProcessed: 1},
		Invoices: map[string]models.Invoice{
			"inv-1": {
				InvoiceUID:    "inv-1",
				InvoiceNumber: "INV-100",
				Vendor:        "Acme",
				Date:          "2026-02-01",
				TotalAmount:   "100.00",
				Confidence:    &models.Confidence{Extraction: 0.9},
			},
		},
	})
	return mgr
}

func TestHandleGetInvoice(t *testing.T) {
	e := echo.New()
	h := NewReviewHandler(seededManager(t))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("inv-1")

	if assert.NoError(t, h.HandleGetInvoice(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"vendor":"Acme"`)
	}
}

func TestHandleGetInvoiceUnknown(t *testing.T) {
	e := echo.New()
	h := NewReviewHandler(seededManager(t))

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/inv-999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("inv-999")

	if assert.NoError(t, h.HandleGetInvoice(c)) {
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestHandleEditInvoice(t *testing.T) {
	e := echo.New()
	mgr := seededManager(t)
	h := NewReviewHandler(mgr)

	body := `{
		"invoice": {"total_amount": "250.00", "vendor": "Acme Corp"},
		"line_items": [
			{"item": "Widget", "quantity": "5", "rate": "50.00", "amount": "250.00"}
		]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/invoices/inv-1", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("inv-1")

	if !assert.NoError(t, h.HandleEditInvoice(c)) {
		return
	}
	assert.Equal(t, http.StatusOK, rec.Code)

	var snapshot models.AggregateResult
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))

	edited := snapshot.Invoices["inv-1"]
	assert.Equal(t, "Acme Corp", edited.Vendor)
	assert.Equal(t, "250.00", edited.TotalAmount)
	assert.Len(t, edited.LineItems, 1)
	// Date was not in the patch and survives.
	assert.Equal(t, "2026-02-01", edited.Date)
	// The summary was recomputed from the edited collection.
	assert.Equal(t, "250.00", snapshot.Summary.TotalAmount)
	assert.NotEmpty(t, edited.ReviewStatus)
}

func TestHandleEditInvoiceWithoutAggregate(t *testing.T) {
	e := echo.New()
	mgr := session.NewManager(validation.DefaultRules(), nil)
	h := NewReviewHandler(mgr)

	req := httptest.NewRequest(http.MethodPut, "/api/invoices/inv-1", strings.NewReader(`{"invoice":{}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("inv-1")

	if assert.NoError(t, h.HandleEditInvoice(c)) {
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestHandleEditInvoiceBadBody(t *testing.T) {
	e := echo.New()
	h := NewReviewHandler(seededManager(t))

	req := httptest.NewRequest(http.MethodPut, "/api/invoices/inv-1", strings.NewReader(`{broken`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("inv-1")

	err := h.HandleEditInvoice(c)
	if assert.Error(t, err) {
		apiErr, ok := err.(*APIError)
		if assert.True(t, ok) {
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		}
	}
}
