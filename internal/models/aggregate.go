package models

// Summary holds the derived statistics over the invoice collection. Vendors,
// total amount and the counters are always recomputed from the invoices;
// TotalInvoicesProcessed and ProcessingErrors are fixed at extraction time.
type Summary struct {
	TotalAmount            string   `json:"total_amount"`
	TotalInvoicesProcessed int      `json:"total_invoices_processed"`
	Vendors                []string `json:"vendors"`
	ProcessingErrors       []string `json:"processing_errors"`
	AutoApprovedCount      int      `json:"auto_approved_count"`
	NeedsReviewCount       int      `json:"needs_review_count"`
	MathErrorsCount        int      `json:"math_errors_count"`
	AverageConfidence      float64  `json:"average_confidence"`
}

// AggregateResult is the full workspace state after a batch extraction. It is
// treated as an immutable value: extraction completion and review edits
// replace the whole snapshot instead of mutating it in place.
type AggregateResult struct {
	Summary   Summary            `json:"summary"`
	Invoices  map[string]Invoice `json:"invoices"`
	LineItems []LineItem         `json:"line_items"`
}

// Clone returns a structural copy. Invoice values and line items are copied;
// nested pointers (confidence, math validation) are shared because edits
// always replace them wholesale rather than writing through them.
func (a *AggregateResult) Clone() *AggregateResult {
	if a == nil {
		return nil
	}
	out := &AggregateResult{
		Summary:   a.Summary,
		Invoices:  make(map[string]Invoice, len(a.Invoices)),
		LineItems: append([]LineItem(nil), a.LineItems...),
	}
	out.Summary.Vendors = append([]string(nil), a.Summary.Vendors...)
	out.Summary.ProcessingErrors = append([]string(nil), a.Summary.ProcessingErrors...)
	for id, inv := range a.Invoices {
		out.Invoices[id] = inv
	}
	return out
}
