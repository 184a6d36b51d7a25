package worker

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"factuur/internal/amqp"
	"factuur/internal/core"
	"factuur/internal/storage"
)

func setup(t *testing.T) (*LedgerWorker, *storage.SQLiteRepository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := storage.NewSQLiteRepository(filepath.Join(dir, "factuur.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledgerPath := filepath.Join(dir, "grootboek.csv")
	return NewLedgerWorker(repo, ledgerPath), repo, ledgerPath
}

func storedInvoice(t *testing.T, repo *storage.SQLiteRepository, nummer int) *core.Factuur {
	t.Helper()
	inv := &core.Factuur{
		Nummer:    nummer,
		Client:    core.Client{Name: "V.O.F. De Nieuwe Anita", Address: "straat 1", Zip: "1052 HN"},
		WorkItems: []core.WorkItem{{Desc: "Bar", Euro: 100}},
		Subtotal:  100,
		Btw:       21,
		Total:     121,
		Date:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := repo.SaveInvoice(context.Background(), inv, nil); err != nil {
		t.Fatalf("SaveInvoice: %v", err)
	}
	return inv
}

func TestHandleInvoiceCreated(t *testing.T) {
	worker, repo, ledgerPath := setup(t)
	ctx := context.Background()

	storedInvoice(t, repo, 1)
	storedInvoice(t, repo, 2)

	for _, nummer := range []int{1, 2} {
		msg := amqp.NewInvoiceCreatedMessage(nummer, "V.O.F. De Nieuwe Anita", 121)
		if err := worker.HandleInvoiceCreated(ctx, msg); err != nil {
			t.Fatalf("HandleInvoiceCreated(%d): %v", nummer, err)
		}
	}

	f, err := os.Open(ledgerPath)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if records[0][0] != "nummer" {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"1", "2024-06-01", "V.O.F. De Nieuwe Anita", "100.00", "21.00", "121.00"}
	for i, field := range want {
		if records[1][i] != field {
			t.Errorf("row[%d] = %q, want %q", i, records[1][i], field)
		}
	}
}

func TestHandleInvoiceCreatedUnknownInvoice(t *testing.T) {
	worker, _, ledgerPath := setup(t)

	msg := amqp.NewInvoiceCreatedMessage(99, "niemand", 0)
	err := worker.HandleInvoiceCreated(context.Background(), msg)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound so the message is retried", err)
	}
	if _, err := os.Stat(ledgerPath); !os.IsNotExist(err) {
		t.Error("ledger must not be written for unknown invoices")
	}
}
