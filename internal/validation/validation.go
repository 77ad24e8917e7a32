// Package validation checks the arithmetic integrity of extracted invoices
// and decides how much human review each one needs. In accounting the numbers
// must reconcile: line items must multiply out, subtotals must sum, and the
// grand total must account for shipping, discounts and tax. Any discrepancy
// is flagged for review regardless of extraction confidence.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invoice-workbench/backend/internal/models"
)

// ValidateLineItem checks quantity x rate against the stated amount within
// the configured tolerance. Confidence scales with the size of the
// discrepancy.
func ValidateLineItem(item models.LineItem, rules Rules) models.LineItemCheck {
	qty, err := strconv.ParseFloat(strings.TrimSpace(item.Quantity), 64)
	if err != nil {
		return models.LineItemCheck{
			Valid: false,
			Error: fmt.Sprintf("parse error: invalid quantity %q", item.Quantity),
		}
	}

	rate := ParseCurrency(item.Rate)
	stated := ParseCurrency(item.Amount)
	calculated := qty * rate
	difference := math.Abs(calculated - stated)
	valid := difference <= rules.AmountTolerance

	var confidence float64
	switch {
	case valid:
		confidence = 0.99
	case difference < 0.10:
		confidence = 0.90 // close, likely rounding
	case difference < 1.00:
		confidence = 0.70
	default:
		confidence = 0.30
	}

	return models.LineItemCheck{
		Valid:            valid,
		Quantity:         qty,
		Rate:             rate,
		CalculatedAmount: roundCents(calculated),
		StatedAmount:     stated,
		Difference:       roundCents(difference),
		Confidence:       confidence,
	}
}

// ValidateInvoice runs the full arithmetic check: every line item, the
// subtotal against the line item sum, and the grand total against
// subtotal + shipping - discount + tax.
func ValidateInvoice(inv models.Invoice, rules Rules) models.MathValidation {
	result := models.MathValidation{
		LineItemsValid: true,
		SubtotalValid:  true,
		TotalValid:     true,
	}

	if len(inv.LineItems) == 0 {
		result.Warnings = append(result.Warnings, models.ValidationIssue{
			Severity: "MEDIUM",
			Field:    "line_items",
			Message:  "No line items found in invoice",
		})
	}

	var lineItemSum float64
	for i, item := range inv.LineItems {
		check := ValidateLineItem(item, rules)
		result.LineItems = append(result.LineItems, check)

		if !check.Valid {
			result.LineItemsValid = false
			result.Errors = append(result.Errors, models.ValidationIssue{
				Severity: "CRITICAL",
				Field:    fmt.Sprintf("line_item_%d", i),
				Message: fmt.Sprintf("Line item calculation error: %g x %g = %g, but invoice shows %g",
					check.Quantity, check.Rate, check.CalculatedAmount, check.StatedAmount),
				Difference:     check.Difference,
				ActionRequired: "VERIFY_WITH_PDF",
			})
		}
		lineItemSum += check.StatedAmount
	}

	statedSubtotal := amount(inv.Subtotal)
	result.CalculatedSubtotal = roundCents(lineItemSum)
	if statedSubtotal > 0 {
		result.StatedSubtotal = &statedSubtotal
		if diff := math.Abs(lineItemSum - statedSubtotal); diff >= rules.AmountTolerance {
			result.SubtotalValid = false
			result.Errors = append(result.Errors, models.ValidationIssue{
				Severity: "CRITICAL",
				Field:    "subtotal",
				Message: fmt.Sprintf("Subtotal mismatch: line items sum to %.2f, but invoice shows %.2f",
					lineItemSum, statedSubtotal),
				Difference:     roundCents(diff),
				ActionRequired: "VERIFY_WITH_PDF",
			})
		}
	}

	statedTotal := amount(inv.TotalAmount)
	if statedTotal > 0 {
		subtotalForCalc := lineItemSum
		if statedSubtotal > 0 {
			subtotalForCalc = statedSubtotal
		}
		calculated := subtotalForCalc + amount(inv.Shipping) - amount(inv.DiscountAmount) + amount(inv.Tax)
		diff := math.Abs(calculated - statedTotal)

		result.CalculatedTotal = roundCents(calculated)
		result.StatedTotal = &statedTotal
		result.TotalDifference = roundCents(diff)

		if diff >= rules.AmountTolerance {
			result.TotalValid = false
			result.Errors = append(result.Errors, models.ValidationIssue{
				Severity: "CRITICAL",
				Field:    "total",
				Message: fmt.Sprintf("Total mismatch: calculated %.2f, but invoice shows %.2f",
					calculated, statedTotal),
				Difference:     roundCents(diff),
				ActionRequired: "VERIFY_WITH_PDF",
			})
		}
	}

	overall := result.LineItemsValid && result.SubtotalValid && result.TotalValid
	result.OverallValid = &overall
	return result
}

// ValidationConfidence scores the validation outcome. Math validation is
// paramount for accounting, so critical errors dominate.
func ValidationConfidence(mv models.MathValidation) float64 {
	if mv.OverallValid != nil && *mv.OverallValid {
		return 1.0
	}

	critical := 0
	for _, e := range mv.Errors {
		if e.Severity == "CRITICAL" {
			critical++
		}
	}
	switch critical {
	case 0:
		return 0.95 // warnings only
	case 1:
		return 0.60
	case 2:
		return 0.40
	default:
		return 0.20
	}
}

// ReviewDecision is the outcome of the review policy for one invoice.
type ReviewDecision struct {
	Status      models.ReviewStatus `json:"status"`
	Reason      string              `json:"reason"`
	Severity    string              `json:"severity"`
	AutoApprove bool                `json:"auto_approve"`
	Message     string              `json:"message"`
}

// DetermineReviewStatus applies the accounting review rules:
// math errors always require review, missing critical fields always require
// review, and only then does confidence decide between the approval tiers.
func DetermineReviewStatus(confidence float64, mv models.MathValidation, hasCriticalFields bool, rules Rules) ReviewDecision {
	if mv.OverallValid == nil || !*mv.OverallValid {
		return ReviewDecision{
			Status:   models.ReviewStatusRequiresReview,
			Reason:   "MATH_VALIDATION_FAILED",
			Severity: "CRITICAL",
			Message:  "Mathematical discrepancies detected. Manual verification required.",
		}
	}

	if !hasCriticalFields {
		return ReviewDecision{
			Status:   models.ReviewStatusRequiresReview,
			Reason:   "MISSING_CRITICAL_FIELDS",
			Severity: "CRITICAL",
			Message:  "Required fields missing. Manual entry required.",
		}
	}

	if confidence >= rules.AutoApproveThreshold {
		return ReviewDecision{
			Status:      models.ReviewStatusAutoApproved,
			Reason:      "HIGH_CONFIDENCE_AND_VALIDATED",
			Severity:    "NONE",
			AutoApprove: true,
			Message:     "All validations passed. Approved automatically.",
		}
	}

	if confidence >= rules.VerifyThreshold {
		return ReviewDecision{
			Status:      models.ReviewStatusApprovedWithVerification,
			Reason:      "MATH_VALIDATED_MEDIUM_CONFIDENCE",
			Severity:    "LOW",
			AutoApprove: true,
			Message:     "Math validated but some fields have medium confidence. Review recommended but not required.",
		}
	}

	return ReviewDecision{
		Status:   models.ReviewStatusRequiresReview,
		Reason:   "BELOW_CONFIDENCE_THRESHOLD",
		Severity: "MEDIUM",
		Message:  "Confidence below threshold. Manual review required.",
	}
}

// HasCriticalFields reports whether the invoice carries the minimum fields an
// accounting record needs: a real invoice number, a date, and a positive
// total.
func HasCriticalFields(inv models.Invoice) bool {
	return inv.InvoiceNumber != "" && inv.InvoiceNumber != "Unknown" &&
		inv.Date != "" && inv.Date != "Unknown Date" &&
		amount(inv.TotalAmount) > 0
}

// Revalidate reruns math validation and the review policy against an edited
// invoice and returns the updated copy. Validation confidence is weighted 70%
// against 30% extraction confidence; the extraction score is retained from
// the original run since editing fields cannot improve the OCR itself.
func Revalidate(inv models.Invoice, rules Rules) models.Invoice {
	mv := ValidateInvoice(inv, rules)
	validationConf := ValidationConfidence(mv)

	extractionConf := 0.0
	if inv.Confidence != nil {
		extractionConf = inv.Confidence.Extraction
	}
	overall := roundCents(validationConf*0.7 + extractionConf*0.3)

	decision := DetermineReviewStatus(overall, mv, HasCriticalFields(inv), rules)

	inv.MathValidation = &mv
	inv.Confidence = &models.Confidence{
		Overall:    overall,
		Extraction: extractionConf,
		Validation: validationConf,
	}
	inv.ReviewStatus = decision.Status
	inv.ReviewReason = decision.Reason
	inv.AutoApprove = decision.AutoApprove
	return inv
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
