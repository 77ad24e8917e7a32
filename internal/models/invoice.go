package models

// ReviewStatus classifies how much human attention an extracted invoice needs.
type ReviewStatus string

const (
	ReviewStatusAutoApproved             ReviewStatus = "AUTO_APPROVED"
	ReviewStatusApprovedWithVerification ReviewStatus = "APPROVED_WITH_VERIFICATION"
	ReviewStatusRequiresReview           ReviewStatus = "REQUIRES_REVIEW"
)

// CountsAsApproved reports whether the status falls in the auto-approved
// bucket of the summary. Every invoice is in exactly one of the two buckets.
func (s ReviewStatus) CountsAsApproved() bool {
	return s == ReviewStatusAutoApproved || s == ReviewStatusApprovedWithVerification
}

// LineItem is a single line of an invoice. The relation to its invoice is by
// value through SourceInvoiceID, never by reference.
type LineItem struct {
	ID                  string   `json:"id"`
	Item                string   `json:"item"`
	Description         string   `json:"description,omitempty"`
	ProductCode         string   `json:"product_code,omitempty"`
	Quantity            string   `json:"quantity"`
	Rate                string   `json:"rate"`
	Amount              string   `json:"amount"`
	Vendor              string   `json:"vendor,omitempty"`
	Date                string   `json:"date,omitempty"`
	SourceInvoiceID     string   `json:"source_invoice_id"`
	SourceInvoiceNumber string   `json:"source_invoice_number,omitempty"`
	Confidence          float64  `json:"confidence,omitempty"`
	MathValid           *bool    `json:"math_valid,omitempty"`
	CalculatedAmount    *float64 `json:"calculated_amount,omitempty"`
}

// Confidence carries the blended trust scores for one invoice. Overall stays
// untyped because upstream services and the review UI send it as either a
// JSON number or a numeric string.
type Confidence struct {
	Overall    any     `json:"overall"`
	Extraction float64 `json:"extraction,omitempty"`
	Validation float64 `json:"validation,omitempty"`
}

// Invoice is one extracted invoice record. Amount fields are deliberately
// untyped: depending on the source they arrive as JSON numbers, numeric
// strings, or currency-formatted strings, and summarization coerces them.
type Invoice struct {
	InvoiceUID     string          `json:"invoice_uid,omitempty"`
	Filename       string          `json:"filename,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	Vendor         string          `json:"vendor,omitempty"`
	Date           string          `json:"date,omitempty"`
	TotalAmount    any             `json:"total_amount,omitempty"`
	Subtotal       any             `json:"subtotal,omitempty"`
	Shipping       any             `json:"shipping,omitempty"`
	DiscountAmount any             `json:"discount_amount,omitempty"`
	Tax            any             `json:"tax,omitempty"`
	OrderID        string          `json:"order_id,omitempty"`
	LineItems      []LineItem      `json:"line_items,omitempty"`
	Confidence     *Confidence     `json:"confidence,omitempty"`
	MathValidation *MathValidation `json:"math_validation,omitempty"`
	ReviewStatus   ReviewStatus    `json:"review_status,omitempty"`
	ReviewReason   string          `json:"review_reason,omitempty"`
	AutoApprove    bool            `json:"auto_approve,omitempty"`
	Provider       string          `json:"provider,omitempty"`
	Model          string          `json:"model,omitempty"`
}

// InvoicePatch is a partial invoice update from the review form. Nil fields
// keep the previous value; set fields override it.
type InvoicePatch struct {
	Filename       *string         `json:"filename,omitempty"`
	InvoiceNumber  *string         `json:"invoice_number,omitempty"`
	Vendor         *string         `json:"vendor,omitempty"`
	Date           *string         `json:"date,omitempty"`
	TotalAmount    any             `json:"total_amount,omitempty"`
	Subtotal       any             `json:"subtotal,omitempty"`
	Shipping       any             `json:"shipping,omitempty"`
	DiscountAmount any             `json:"discount_amount,omitempty"`
	Tax            any             `json:"tax,omitempty"`
	OrderID        *string         `json:"order_id,omitempty"`
	Confidence     *Confidence     `json:"confidence,omitempty"`
	MathValidation *MathValidation `json:"math_validation,omitempty"`
	ReviewStatus   *ReviewStatus   `json:"review_status,omitempty"`
	ReviewReason   *string         `json:"review_reason,omitempty"`
	AutoApprove    *bool           `json:"auto_approve,omitempty"`
	Provider       *string         `json:"provider,omitempty"`
	Model          *string         `json:"model,omitempty"`
}

// Merge returns a copy of the invoice with the patch's set fields applied.
// The receiver is never modified.
func (inv Invoice) Merge(p InvoicePatch) Invoice {
	if p.Filename != nil {
		inv.Filename = *p.Filename
	}
	if p.InvoiceNumber != nil {
		inv.InvoiceNumber = *p.InvoiceNumber
	}
	if p.Vendor != nil {
		inv.Vendor = *p.Vendor
	}
	if p.Date != nil {
		inv.Date = *p.Date
	}
	if p.TotalAmount != nil {
		inv.TotalAmount = p.TotalAmount
	}
	if p.Subtotal != nil {
		inv.Subtotal = p.Subtotal
	}
	if p.Shipping != nil {
		inv.Shipping = p.Shipping
	}
	if p.DiscountAmount != nil {
		inv.DiscountAmount = p.DiscountAmount
	}
	if p.Tax != nil {
		inv.Tax = p.Tax
	}
	if p.OrderID != nil {
		inv.OrderID = *p.OrderID
	}
	if p.Confidence != nil {
		inv.Confidence = p.Confidence
	}
	if p.MathValidation != nil {
		inv.MathValidation = p.MathValidation
	}
	if p.ReviewStatus != nil {
		inv.ReviewStatus = *p.ReviewStatus
	}
	if p.ReviewReason != nil {
		inv.ReviewReason = *p.ReviewReason
	}
	if p.AutoApprove != nil {
		inv.AutoApprove = *p.AutoApprove
	}
	if p.Provider != nil {
		inv.Provider = *p.Provider
	}
	if p.Model != nil {
		inv.Model = *p.Model
	}
	return inv
}
