package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoice-workbench/backend/internal/models"
)

func TestBuildAssignsIDsAndTagsItems(t *testing.T) {
	results := []models.Invoice{
		{
			InvoiceNumber: "INV-100",
			Vendor:        "Acme",
			Date:          "2026-02-01",
			TotalAmount:   120.0,
			ReviewStatus:  models.ReviewStatusAutoApproved,
			Confidence:    &models.Confidence{Overall: 0.97},
			LineItems: []models.LineItem{
				{Item: "Widget", Quantity: "2", Rate: "60.00", Amount: "120.00"},
			},
		},
		{
			InvoiceUID:    "inv-keep",
			InvoiceNumber: "INV-200",
			Vendor:        "Globex",
			TotalAmount:   "$80.00",
			ReviewStatus:  models.ReviewStatusRequiresReview,
		},
	}

	agg := Build(results, []string{"blurry.png: extraction failed"})

	assert.Len(t, agg.Invoices, 2)
	assert.Contains(t, agg.Invoices, "inv-keep")

	// The generated ID links items back to their invoice by value.
	assert.Len(t, agg.LineItems, 1)
	item := agg.LineItems[0]
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "INV-100", item.SourceInvoiceNumber)
	assert.Equal(t, "Acme", item.Vendor)
	assert.Equal(t, "2026-02-01", item.Date)
	_, ok := agg.Invoices[item.SourceInvoiceID]
	assert.True(t, ok)

	assert.Equal(t, 2, agg.Summary.TotalInvoicesProcessed)
	assert.Equal(t, []string{"blurry.png: extraction failed"}, agg.Summary.ProcessingErrors)
	assert.Equal(t, "200.00", agg.Summary.TotalAmount)
	assert.Equal(t, []string{"Acme", "Globex"}, agg.Summary.Vendors)
	assert.Equal(t, 1, agg.Summary.AutoApprovedCount)
	assert.Equal(t, 1, agg.Summary.NeedsReviewCount)
}

func TestBuildFoldsLineItemChecks(t *testing.T) {
	valid := true
	results := []models.Invoice{
		{
			InvoiceUID: "inv-1",
			LineItems: []models.LineItem{
				{Item: "Widget", Quantity: "2", Rate: "60.00", Amount: "120.00"},
			},
			MathValidation: &models.MathValidation{
				OverallValid: &valid,
				LineItems: []models.LineItemCheck{
					{Valid: true, Confidence: 0.99, CalculatedAmount: 120},
				},
			},
		},
	}

	agg := Build(results, nil)

	item := agg.LineItems[0]
	assert.Equal(t, 0.99, item.Confidence)
	if assert.NotNil(t, item.MathValid) {
		assert.True(t, *item.MathValid)
	}
	if assert.NotNil(t, item.CalculatedAmount) {
		assert.Equal(t, 120.0, *item.CalculatedAmount)
	}
}

func TestBuildEmpty(t *testing.T) {
	agg := Build(nil, nil)
	assert.Empty(t, agg.Invoices)
	assert.Empty(t, agg.LineItems)
	assert.Equal(t, "0.00", agg.Summary.TotalAmount)
	assert.NotNil(t, agg.Summary.ProcessingErrors)
}

func TestBuildVendorsSortedByInvoiceID(t *testing.T) {
	// Sorted invoice IDs make the vendor list deterministic regardless of
	// map iteration order.
	results := []models.Invoice{
		{InvoiceUID: "inv-b", Vendor: "Zeta"},
		{InvoiceUID: "inv-a", Vendor: "Alpha"},
	}
	agg := Build(results, nil)
	assert.Equal(t, []string{"Alpha", "Zeta"}, agg.Summary.Vendors)
}
