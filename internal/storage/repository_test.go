package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"factuur/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "factuur.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testInvoice(nummer int) *core.Factuur {
	return &core.Factuur{
		Nummer: nummer,
		Client: core.Client{
			Name:    "V.O.F. De Nieuwe Anita",
			Address: "Frederik Hendrikstraat 111",
			Zip:     "1052 HN",
		},
		WorkItems: []core.WorkItem{
			{Desc: "Bar 2024-05-01 (09:00 - 13:30)", Euro: 90},
			{Desc: "Bar 2024-05-04 (20:00 - 01:00)", Euro: 100},
		},
		Subtotal: 190,
		Btw:      39.9,
		Total:    229.9,
		Date:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndGetInvoice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveInvoice(ctx, testInvoice(1), []byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}

	got, err := repo.GetInvoice(ctx, 1)
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.Nummer != 1 || got.Client.Name != "V.O.F. De Nieuwe Anita" {
		t.Errorf("invoice header = %d %q", got.Nummer, got.Client.Name)
	}
	if len(got.WorkItems) != 2 || got.WorkItems[0].Euro != 90 {
		t.Errorf("work items round-trip failed: %+v", got.WorkItems)
	}
	if got.Total != 229.9 {
		t.Errorf("total = %v, want 229.9", got.Total)
	}
	if !got.Date.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", got.Date)
	}

	pdf, err := repo.GetInvoicePDF(ctx, 1)
	if err != nil {
		t.Fatalf("GetInvoicePDF: %v", err)
	}
	if string(pdf) != "%PDF-1.4 fake" {
		t.Errorf("pdf bytes = %q", pdf)
	}
}

func TestSaveInvoiceReusesClient(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveInvoice(ctx, testInvoice(1), nil); err != nil {
		t.Fatalf("SaveInvoice #1: %v", err)
	}
	if err := repo.SaveInvoice(ctx, testInvoice(2), nil); err != nil {
		t.Fatalf("SaveInvoice #2: %v", err)
	}

	clients, err := repo.ListClients(ctx)
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 1 {
		t.Fatalf("got %d clients, want 1 (deduplicated by name)", len(clients))
	}
}

func TestDuplicateInvoiceNumberFails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveInvoice(ctx, testInvoice(7), nil); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	if err := repo.SaveInvoice(ctx, testInvoice(7), nil); err == nil {
		t.Fatal("expected unique constraint violation for duplicate nummer")
	}
}

func TestMostRecentInvoiceNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.MostRecentInvoiceNumber(ctx)
	if err != nil {
		t.Fatalf("MostRecentInvoiceNumber: %v", err)
	}
	if n != 0 {
		t.Errorf("empty db most recent = %d, want 0", n)
	}

	for _, nummer := range []int{3, 12, 5} {
		inv := testInvoice(nummer)
		if err := repo.SaveInvoice(ctx, inv, nil); err != nil {
			t.Fatalf("SaveInvoice %d: %v", nummer, err)
		}
	}

	n, err = repo.MostRecentInvoiceNumber(ctx)
	if err != nil {
		t.Fatalf("MostRecentInvoiceNumber: %v", err)
	}
	if n != 12 {
		t.Errorf("most recent = %d, want 12", n)
	}
}

func TestListInvoicesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, nummer := range []int{1, 3, 2} {
		if err := repo.SaveInvoice(ctx, testInvoice(nummer), nil); err != nil {
			t.Fatalf("SaveInvoice %d: %v", nummer, err)
		}
	}

	invoices, err := repo.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("got %d invoices, want 3", len(invoices))
	}
	if invoices[0].Nummer != 3 || invoices[2].Nummer != 1 {
		t.Errorf("order = %d,%d,%d, want 3,2,1", invoices[0].Nummer, invoices[1].Nummer, invoices[2].Nummer)
	}
}

func TestNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetClient(ctx, "niemand"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetClient error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetInvoice(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvoice error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetInvoicePDF(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvoicePDF error = %v, want ErrNotFound", err)
	}
	if err := repo.StoreInvoicePDF(ctx, 99, []byte("x")); !errors.Is(err, ErrNotFound) {
		t.Errorf("StoreInvoicePDF error = %v, want ErrNotFound", err)
	}

	// Saved without a PDF: lookup must distinguish missing bytes.
	if err := repo.SaveInvoice(ctx, testInvoice(1), nil); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	if _, err := repo.GetInvoicePDF(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInvoicePDF without stored pdf = %v, want ErrNotFound", err)
	}
	if err := repo.StoreInvoicePDF(ctx, 1, []byte("%PDF")); err != nil {
		t.Fatalf("StoreInvoicePDF: %v", err)
	}
	if pdf, err := repo.GetInvoicePDF(ctx, 1); err != nil || string(pdf) != "%PDF" {
		t.Errorf("GetInvoicePDF after store = %q, %v", pdf, err)
	}
}
