package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoice-workbench/backend/internal/models"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"100", 100},
		{"$1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"1,23", 1.23},
		{"1,234", 1234},
		{"€99,90", 99.90},
		{"(123.45)", -123.45},
		{"  $ 42.00 ", 42},
		{"N/A", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCurrency(tt.in))
		})
	}
}

func TestValidateLineItem(t *testing.T) {
	rules := DefaultRules()

	check := ValidateLineItem(models.LineItem{
		Quantity: "2", Rate: "60.00", Amount: "120.00",
	}, rules)
	assert.True(t, check.Valid)
	assert.Equal(t, 0.99, check.Confidence)
	assert.Equal(t, 120.0, check.CalculatedAmount)

	// One cent off stays within tolerance.
	check = ValidateLineItem(models.LineItem{
		Quantity: "3", Rate: "9.99", Amount: "29.98",
	}, rules)
	assert.True(t, check.Valid)

	// A dollar off does not.
	check = ValidateLineItem(models.LineItem{
		Quantity: "2", Rate: "60.00", Amount: "121.50",
	}, rules)
	assert.False(t, check.Valid)
	assert.Equal(t, 0.30, check.Confidence)

	// Unparseable quantity is an outright failure.
	check = ValidateLineItem(models.LineItem{
		Quantity: "two", Rate: "60.00", Amount: "120.00",
	}, rules)
	assert.False(t, check.Valid)
	assert.Contains(t, check.Error, "invalid quantity")
}

func TestValidateInvoiceTotals(t *testing.T) {
	rules := DefaultRules()

	inv := models.Invoice{
		Subtotal:       "100.00",
		Shipping:       "10.00",
		DiscountAmount: "5.00",
		Tax:            "8.00",
		TotalAmount:    "113.00",
		LineItems: []models.LineItem{
			{Quantity: "1", Rate: "100.00", Amount: "100.00"},
		},
	}

	mv := ValidateInvoice(inv, rules)
	assert.True(t, mv.LineItemsValid)
	assert.True(t, mv.SubtotalValid)
	assert.True(t, mv.TotalValid)
	if assert.NotNil(t, mv.OverallValid) {
		assert.True(t, *mv.OverallValid)
	}

	// Stated total off by a dollar flags a critical error.
	inv.TotalAmount = "114.00"
	mv = ValidateInvoice(inv, rules)
	assert.False(t, mv.TotalValid)
	if assert.NotNil(t, mv.OverallValid) {
		assert.False(t, *mv.OverallValid)
	}
	found := false
	for _, e := range mv.Errors {
		if e.Field == "total" && e.Severity == "CRITICAL" {
			found = true
			assert.Equal(t, "VERIFY_WITH_PDF", e.ActionRequired)
		}
	}
	assert.True(t, found)
}

func TestValidateInvoiceSubtotalMismatch(t *testing.T) {
	inv := models.Invoice{
		Subtotal: "150.00",
		LineItems: []models.LineItem{
			{Quantity: "1", Rate: "100.00", Amount: "100.00"},
		},
	}

	mv := ValidateInvoice(inv, DefaultRules())
	assert.False(t, mv.SubtotalValid)
	assert.Equal(t, 100.0, mv.CalculatedSubtotal)
}

func TestValidateInvoiceNoLineItemsWarns(t *testing.T) {
	mv := ValidateInvoice(models.Invoice{}, DefaultRules())
	assert.Len(t, mv.Warnings, 1)
	assert.Empty(t, mv.Errors)
	if assert.NotNil(t, mv.OverallValid) {
		assert.True(t, *mv.OverallValid)
	}
}

func TestValidationConfidenceLadder(t *testing.T) {
	valid := true
	assert.Equal(t, 1.0, ValidationConfidence(models.MathValidation{OverallValid: &valid}))

	invalid := false
	critical := models.ValidationIssue{Severity: "CRITICAL"}

	mv := models.MathValidation{OverallValid: &invalid}
	assert.Equal(t, 0.95, ValidationConfidence(mv))

	mv.Errors = []models.ValidationIssue{critical}
	assert.Equal(t, 0.60, ValidationConfidence(mv))

	mv.Errors = append(mv.Errors, critical)
	assert.Equal(t, 0.40, ValidationConfidence(mv))

	mv.Errors = append(mv.Errors, critical)
	assert.Equal(t, 0.20, ValidationConfidence(mv))
}

func TestDetermineReviewStatus(t *testing.T) {
	rules := DefaultRules()
	valid := true
	invalid := false
	okMV := models.MathValidation{OverallValid: &valid}

	// Math failure trumps everything.
	d := DetermineReviewStatus(0.99, models.MathValidation{OverallValid: &invalid}, true, rules)
	assert.Equal(t, models.ReviewStatusRequiresReview, d.Status)
	assert.Equal(t, "MATH_VALIDATION_FAILED", d.Reason)
	assert.False(t, d.AutoApprove)

	// Missing critical fields likewise.
	d = DetermineReviewStatus(0.99, okMV, false, rules)
	assert.Equal(t, models.ReviewStatusRequiresReview, d.Status)
	assert.Equal(t, "MISSING_CRITICAL_FIELDS", d.Reason)

	// Then confidence tiers.
	d = DetermineReviewStatus(0.96, okMV, true, rules)
	assert.Equal(t, models.ReviewStatusAutoApproved, d.Status)
	assert.True(t, d.AutoApprove)

	d = DetermineReviewStatus(0.90, okMV, true, rules)
	assert.Equal(t, models.ReviewStatusApprovedWithVerification, d.Status)
	assert.True(t, d.AutoApprove)

	d = DetermineReviewStatus(0.50, okMV, true, rules)
	assert.Equal(t, models.ReviewStatusRequiresReview, d.Status)
	assert.Equal(t, "BELOW_CONFIDENCE_THRESHOLD", d.Reason)
}

func TestHasCriticalFields(t *testing.T) {
	assert.True(t, HasCriticalFields(models.Invoice{
		InvoiceNumber: "INV-1", Date: "2026-02-01", TotalAmount: "10.00",
	}))
	assert.False(t, HasCriticalFields(models.Invoice{
		InvoiceNumber: "Unknown", Date: "2026-02-01", TotalAmount: "10.00",
	}))
	assert.False(t, HasCriticalFields(models.Invoice{
		InvoiceNumber: "INV-1", Date: "Unknown Date", TotalAmount: "10.00",
	}))
	assert.False(t, HasCriticalFields(models.Invoice{
		InvoiceNumber: "INV-1", Date: "2026-02-01",
	}))
}

func TestRevalidateBlendsConfidence(t *testing.T) {
	inv := models.Invoice{
		InvoiceNumber: "INV-1",
		Date:          "2026-02-01",
		TotalAmount:   "120.00",
		Confidence:    &models.Confidence{Extraction: 0.90},
		LineItems: []models.LineItem{
			{Quantity: "2", Rate: "60.00", Amount: "120.00"},
		},
	}

	out := Revalidate(inv, DefaultRules())

	// 0.7 x 1.0 validation + 0.3 x 0.9 extraction.
	assert.Equal(t, 0.97, out.Confidence.Overall)
	assert.Equal(t, 1.0, out.Confidence.Validation)
	assert.Equal(t, 0.90, out.Confidence.Extraction)
	assert.Equal(t, models.ReviewStatusAutoApproved, out.ReviewStatus)
	assert.True(t, out.AutoApprove)
	assert.NotNil(t, out.MathValidation)
}

func TestRevalidateMathFailureRequiresReview(t *testing.T) {
	inv := models.Invoice{
		InvoiceNumber: "INV-1",
		Date:          "2026-02-01",
		TotalAmount:   "200.00",
		Confidence:    &models.Confidence{Extraction: 0.99},
		LineItems: []models.LineItem{
			{Quantity: "2", Rate: "60.00", Amount: "120.00"},
		},
	}

	out := Revalidate(inv, DefaultRules())
	assert.Equal(t, models.ReviewStatusRequiresReview, out.ReviewStatus)
	assert.Equal(t, "MATH_VALIDATION_FAILED", out.ReviewReason)
	assert.False(t, out.AutoApprove)
}

func TestLoadRulesFromReader(t *testing.T) {
	rules, err := LoadRulesFromReader(strings.NewReader("amountTolerance: 0.05\n"))
	assert.NoError(t, err)
	assert.Equal(t, 0.05, rules.AmountTolerance)
	// Unset fields fall back to defaults.
	assert.Equal(t, 0.95, rules.AutoApproveThreshold)
	assert.Equal(t, 0.85, rules.VerifyThreshold)
}

func TestLoadRulesBadYAML(t *testing.T) {
	rules, err := LoadRulesFromReader(strings.NewReader("{not yaml"))
	assert.Error(t, err)
	assert.Equal(t, DefaultRules(), rules)
}
