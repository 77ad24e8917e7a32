// Package aggregate derives and maintains the workspace's aggregate invoice
// view. Every operation treats AggregateResult as an immutable value: a new
// snapshot is produced by structural copy, the previous one is never touched.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/invoice-workbench/backend/internal/models"
)

// ApplyEdit produces the next aggregate snapshot after a review edit.
//
// The edited invoice is the shallow merge of its previous record (if any)
// with the patch; its line items are fully replaced by the given set while
// every other invoice's line items are untouched. The summary is recomputed
// from the resulting invoice collection.
//
// A nil previous aggregate yields nil: edits are never applied before an
// initial extraction result exists.
func ApplyEdit(prev *models.AggregateResult, invoiceID string, patch models.InvoicePatch, lineItems []models.LineItem) *models.AggregateResult {
	if prev == nil {
		return nil
	}

	invoices := make(map[string]models.Invoice, len(prev.Invoices)+1)
	for id, inv := range prev.Invoices {
		invoices[id] = inv
	}

	merged := invoices[invoiceID].Merge(patch)
	if merged.InvoiceUID == "" {
		merged.InvoiceUID = invoiceID
	}
	merged.LineItems = append([]models.LineItem(nil), lineItems...)
	invoices[invoiceID] = merged

	items := make([]models.LineItem, 0, len(prev.LineItems)+len(lineItems))
	for _, it := range prev.LineItems {
		if it.SourceInvoiceID != invoiceID {
			items = append(items, it)
		}
	}
	for _, it := range lineItems {
		if it.SourceInvoiceID == "" {
			it.SourceInvoiceID = invoiceID
		}
		items = append(items, it)
	}

	next := &models.AggregateResult{
		Summary:   recomputeSummary(prev.Summary, invoices),
		Invoices:  invoices,
		LineItems: items,
	}
	warnOrphans(next)
	return next
}

// Recompute returns a copy of the aggregate with its summary rebuilt from the
// current invoice collection. Used after revalidation changes an invoice's
// review status.
func Recompute(agg *models.AggregateResult) *models.AggregateResult {
	if agg == nil {
		return nil
	}
	out := agg.Clone()
	out.Summary = recomputeSummary(agg.Summary, out.Invoices)
	return out
}

// recomputeSummary rebuilds the derived statistics. TotalInvoicesProcessed
// and ProcessingErrors are carried over from the previous summary; so is
// AverageConfidence when no invoice has a usable confidence value.
// Invoice IDs are iterated in sorted order so derived collections are
// deterministic.
func recomputeSummary(prev models.Summary, invoices map[string]models.Invoice) models.Summary {
	ids := make([]string, 0, len(invoices))
	for id := range invoices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	next := prev
	next.Vendors = []string{}
	seen := make(map[string]struct{})

	var total, confSum float64
	confCount := 0
	approved := 0
	mathErrors := 0

	for _, id := range ids {
		inv := invoices[id]

		if inv.Vendor != "" {
			if _, ok := seen[inv.Vendor]; !ok {
				seen[inv.Vendor] = struct{}{}
				next.Vendors = append(next.Vendors, inv.Vendor)
			}
		}

		total += CoerceNumber(inv.TotalAmount)

		if inv.ReviewStatus.CountsAsApproved() {
			approved++
		}
		if inv.MathValidation != nil && inv.MathValidation.OverallValid != nil && !*inv.MathValidation.OverallValid {
			mathErrors++
		}
		if inv.Confidence != nil {
			if c := CoerceNumber(inv.Confidence.Overall); c > 0 {
				confSum += c
				confCount++
			}
		}
	}

	next.TotalAmount = FormatAmount(total)
	next.AutoApprovedCount = approved
	next.NeedsReviewCount = len(invoices) - approved
	next.MathErrorsCount = mathErrors
	if confCount > 0 {
		next.AverageConfidence = round2(confSum / float64(confCount))
	}
	return next
}

// warnOrphans logs line items whose source invoice is missing from the
// collection. They are kept: dropping them would hide extraction bugs.
func warnOrphans(agg *models.AggregateResult) {
	for _, it := range agg.LineItems {
		if _, ok := agg.Invoices[it.SourceInvoiceID]; !ok {
			fmt.Printf("[Aggregate] WARNING: line item %s references unknown invoice %s\n", it.ID, it.SourceInvoiceID)
		}
	}
}
