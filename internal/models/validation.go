package models

// MathValidation is the result of checking an invoice's arithmetic.
// OverallValid is a pointer so that an absent verdict is distinguishable from
// an explicit failure; only an explicit false counts as a math error in the
// summary.
type MathValidation struct {
	LineItemsValid     bool              `json:"line_items_valid"`
	SubtotalValid      bool              `json:"subtotal_valid"`
	TotalValid         bool              `json:"total_valid"`
	OverallValid       *bool             `json:"overall_valid,omitempty"`
	LineItems          []LineItemCheck   `json:"line_items,omitempty"`
	Errors             []ValidationIssue `json:"errors,omitempty"`
	Warnings           []ValidationIssue `json:"warnings,omitempty"`
	CalculatedSubtotal float64           `json:"calculated_subtotal,omitempty"`
	StatedSubtotal     *float64          `json:"stated_subtotal,omitempty"`
	CalculatedTotal    float64           `json:"calculated_total,omitempty"`
	StatedTotal        *float64          `json:"stated_total,omitempty"`
	TotalDifference    float64           `json:"total_difference,omitempty"`
}

// LineItemCheck is the arithmetic check of one line: quantity x rate against
// the stated amount.
type LineItemCheck struct {
	Valid            bool    `json:"valid"`
	Quantity         float64 `json:"quantity"`
	Rate             float64 `json:"rate"`
	CalculatedAmount float64 `json:"calculated_amount"`
	StatedAmount     float64 `json:"stated_amount"`
	Difference       float64 `json:"difference"`
	Confidence       float64 `json:"confidence"`
	Error            string  `json:"error,omitempty"`
}

// ValidationIssue is one flagged discrepancy or warning.
type ValidationIssue struct {
	Severity       string  `json:"severity"`
	Field          string  `json:"field"`
	Message        string  `json:"message"`
	Difference     float64 `json:"difference,omitempty"`
	ActionRequired string  `json:"action_required,omitempty"`
}
