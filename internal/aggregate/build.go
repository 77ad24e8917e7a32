package aggregate

import (
	"github.com/google/uuid"

	"github.com/invoice-workbench/backend/internal/models"
)

// Build assembles an aggregate from per-invoice extraction results: line
// items get unique IDs and are tagged with their source invoice, vendor and
// date; per-line validation checks are folded into the items when the counts
// line up; the summary is derived from the assembled collection.
// processingErrors are per-file failure messages from the extraction run.
func Build(results []models.Invoice, processingErrors []string) *models.AggregateResult {
	invoices := make(map[string]models.Invoice, len(results))
	items := make([]models.LineItem, 0)

	for _, inv := range results {
		id := inv.InvoiceUID
		if id == "" {
			id = "inv-" + uuid.NewString()
			inv.InvoiceUID = id
		}

		var checks []models.LineItemCheck
		if inv.MathValidation != nil && len(inv.MathValidation.LineItems) == len(inv.LineItems) {
			checks = inv.MathValidation.LineItems
		}

		tagged := make([]models.LineItem, len(inv.LineItems))
		for i, it := range inv.LineItems {
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			it.SourceInvoiceID = id
			it.SourceInvoiceNumber = inv.InvoiceNumber
			it.Vendor = inv.Vendor
			it.Date = inv.Date
			if checks != nil {
				valid := checks[i].Valid
				it.Confidence = checks[i].Confidence
				it.MathValid = &valid
				calc := checks[i].CalculatedAmount
				it.CalculatedAmount = &calc
			} else if it.Confidence == 0 && inv.Confidence != nil {
				it.Confidence = CoerceNumber(inv.Confidence.Overall)
			}
			tagged[i] = it
		}
		inv.LineItems = tagged
		items = append(items, tagged...)
		invoices[id] = inv
	}

	if processingErrors == nil {
		processingErrors = []string{}
	}
	base := models.Summary{
		TotalInvoicesProcessed: len(results),
		ProcessingErrors:       processingErrors,
	}
	return &models.AggregateResult{
		Summary:   recomputeSummary(base, invoices),
		Invoices:  invoices,
		LineItems: items,
	}
}
