// Package export serializes the filtered invoice queue view to a delimited
// text table for download.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Queue export columns, in order.
var columns = []string{
	"invoice_id",
	"invoice_number",
	"vendor",
	"date",
	"total",
	"confidence",
	"provider",
	"model",
}

// Row is one exported queue line.
type Row struct {
	InvoiceID     string
	InvoiceNumber string
	Vendor        string
	Date          string
	Total         string
	Confidence    string
	Provider      string
	Model         string
}

// WriteQueue writes the header and rows. Every value is quoted and embedded
// quotes are doubled, which is why this does not go through encoding/csv:
// that writer only quotes fields that need it.
func WriteQueue(w io.Writer, rows []Row) error {
	if err := writeRecord(w, columns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.InvoiceID, r.InvoiceNumber, r.Vendor, r.Date,
			r.Total, r.Confidence, r.Provider, r.Model,
		}
		if err := writeRecord(w, record); err != nil {
			return err
		}
	}
	return nil
}

func writeRecord(w io.Writer, values []string) error {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// Filename names the downloadable artifact with the current date.
func Filename(now time.Time) string {
	return fmt.Sprintf("invoice-queue-%s.csv", now.Format("2006-01-02"))
}
