package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"

	"github.com/invoice-workbench/backend/internal/aggregate"
	"github.com/invoice-workbench/backend/internal/models"
)

// Item is one review queue row, the flattened per-invoice view the queue
// table and CSV export are built from.
type Item struct {
	InvoiceID     string  `json:"invoice_id" msgpack:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number" msgpack:"invoice_number"`
	Vendor        string  `json:"vendor" msgpack:"vendor"`
	Date          string  `json:"date" msgpack:"date"`
	Total         float64 `json:"total" msgpack:"total"`
	Confidence    float64 `json:"confidence" msgpack:"confidence"`
	ReviewStatus  string  `json:"review_status" msgpack:"review_status"`
	Provider      string  `json:"provider" msgpack:"provider"`
	Model         string  `json:"model" msgpack:"model"`
	Filename      string  `json:"filename" msgpack:"filename"`
}

// Filter narrows a queue listing.
type Filter struct {
	Vendor string
	Status string
	Search string
}

// Store keeps the review queue for one workspace in a DuckDB database so
// listings with filters and pagination stay fast for large batches.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the queue database for a workspace.
func NewStore(dir, workspaceID string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating queue directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("queue_%s.duckdb", workspaceID))
	connector, err := duckdb.NewConnector(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening queue database: %w", err)
	}
	db := sql.OpenDB(connector)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS review_queue (
			invoice_id     VARCHAR PRIMARY KEY,
			invoice_number VARCHAR,
			vendor         VARCHAR,
			invoice_date   VARCHAR,
			total          DOUBLE,
			confidence     DOUBLE,
			review_status  VARCHAR,
			provider       VARCHAR,
			model          VARCHAR,
			filename       VARCHAR
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating queue table: %w", err)
	}

	return &Store{db: db}, nil
}

// Replace rebuilds the queue rows from an aggregate snapshot. The whole table
// is rewritten so edits and re-extractions never leave stale rows behind.
func (s *Store) Replace(ctx context.Context, agg *models.AggregateResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning queue rewrite: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_queue`); err != nil {
		return fmt.Errorf("clearing queue: %w", err)
	}

	if agg != nil {
		ids := make([]string, 0, len(agg.Invoices))
		for id := range agg.Invoices {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO review_queue
			(invoice_id, invoice_number, vendor, invoice_date, total,
			 confidence, review_status, provider, model, filename)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing queue insert: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			inv := agg.Invoices[id]
			var conf float64
			if inv.Confidence != nil {
				conf = aggregate.CoerceNumber(inv.Confidence.Overall)
			}
			if _, err := stmt.ExecContext(ctx,
				id, inv.InvoiceNumber, inv.Vendor, inv.Date,
				aggregate.CoerceNumber(inv.TotalAmount), conf,
				string(inv.ReviewStatus), inv.Provider, inv.Model,
				inv.Filename,
			); err != nil {
				return fmt.Errorf("inserting queue row %s: %w", id, err)
			}
		}
	}

	return tx.Commit()
}

// List returns one page of queue items matching the filter, plus the total
// match count for pagination.
func (s *Store) List(ctx context.Context, f Filter, page, pageSize int) ([]Item, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM review_queue" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting queue rows: %w", err)
	}

	query := `
		SELECT invoice_id, invoice_number, vendor, invoice_date, total,
		       confidence, review_status, provider, model, filename
		FROM review_queue` + where + `
		ORDER BY invoice_id
		LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying queue: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.InvoiceID, &it.InvoiceNumber, &it.Vendor, &it.Date,
			&it.Total, &it.Confidence, &it.ReviewStatus, &it.Provider, &it.Model,
			&it.Filename); err != nil {
			return nil, 0, fmt.Errorf("scanning queue row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading queue rows: %w", err)
	}

	return items, total, nil
}

// All returns every queue item matching the filter, for bulk transfer and
// export.
func (s *Store) All(ctx context.Context, f Filter) ([]Item, error) {
	items, _, err := s.List(ctx, f, 1, 1<<30)
	return items, err
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Vendor != "" {
		clauses = append(clauses, "vendor = ?")
		args = append(args, f.Vendor)
	}
	if f.Status != "" {
		clauses = append(clauses, "review_status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		clauses = append(clauses, "(invoice_number ILIKE ? OR vendor ILIKE ? OR filename ILIKE ?)")
		needle := "%" + f.Search + "%"
		args = append(args, needle, needle, needle)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
