package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/invoice-workbench/backend/internal/models"
)

func queueAggregate() *models.AggregateResult {
	return &models.AggregateResult{
		Invoices: map[string]models.Invoice{
			"inv-1": {
				InvoiceUID:    "inv-1",
				InvoiceNumber: "INV-100",
				Vendor:        "Acme",
				Date:          "2026-02-01",
				TotalAmount:   "120.00",
				Confidence:    &models.Confidence{Overall: 0.97},
				ReviewStatus:  models.ReviewStatusAutoApproved,
				Filename:      "acme.pdf",
			},
			"inv-2": {
				InvoiceUID:    "inv-2",
				InvoiceNumber: "INV-200",
				Vendor:        "Globex",
				TotalAmount:   80.0,
				ReviewStatus:  models.ReviewStatusRequiresReview,
				Filename:      "globex.pdf",
			},
			"inv-3": {
				InvoiceUID:    "inv-3",
				InvoiceNumber: "INV-300",
				Vendor:        "Acme",
				TotalAmount:   "9.99",
				ReviewStatus:  models.ReviewStatusRequiresReview,
				Filename:      "acme2.pdf",
			},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), "ws-test")
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReplaceAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Replace(ctx, queueAggregate()))

	items, total, err := store.List(ctx, Filter{}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 3)

	// Ordered by invoice ID.
	assert.Equal(t, "inv-1", items[0].InvoiceID)
	assert.Equal(t, "INV-100", items[0].InvoiceNumber)
	assert.Equal(t, 120.0, items[0].Total)
	assert.Equal(t, 0.97, items[0].Confidence)
	assert.Equal(t, "AUTO_APPROVED", items[0].ReviewStatus)
	assert.Equal(t, "acme.pdf", items[0].Filename)
}

func TestReplaceRewritesWholeTable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Replace(ctx, queueAggregate()))

	smaller := &models.AggregateResult{
		Invoices: map[string]models.Invoice{
			"inv-9": {InvoiceUID: "inv-9", InvoiceNumber: "INV-900", Vendor: "Hooli"},
		},
	}
	assert.NoError(t, store.Replace(ctx, smaller))

	items, total, err := store.List(ctx, Filter{}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "inv-9", items[0].InvoiceID)

	// Nil aggregate empties the queue.
	assert.NoError(t, store.Replace(ctx, nil))
	_, total, err = store.List(ctx, Filter{}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	assert.NoError(t, store.Replace(ctx, queueAggregate()))

	items, total, err := store.List(ctx, Filter{Vendor: "Acme"}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, it := range items {
		assert.Equal(t, "Acme", it.Vendor)
	}

	items, total, err = store.List(ctx, Filter{Status: "REQUIRES_REVIEW"}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 2, total)

	items, total, err = store.List(ctx, Filter{Vendor: "Acme", Status: "REQUIRES_REVIEW"}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "inv-3", items[0].InvoiceID)

	_, total, err = store.List(ctx, Filter{Search: "globex"}, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestListPagination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	assert.NoError(t, store.Replace(ctx, queueAggregate()))

	items, total, err := store.List(ctx, Filter{}, 1, 2)
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 2)
	assert.Equal(t, "inv-1", items[0].InvoiceID)

	items, _, err = store.List(ctx, Filter{}, 2, 2)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "inv-3", items[0].InvoiceID)

	items, _, err = store.List(ctx, Filter{}, 3, 2)
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestAll(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	assert.NoError(t, store.Replace(ctx, queueAggregate()))

	items, err := store.All(ctx, Filter{})
	assert.NoError(t, err)
	assert.Len(t, items, 3)
}
