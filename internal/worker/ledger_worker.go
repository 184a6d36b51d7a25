// Package worker exports stored invoices to a bookkeeping ledger file.
// It consumes invoice.created messages and appends one CSV line per
// invoice for the accountant.
package worker

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"factuur/internal/amqp"
	"factuur/internal/storage"
)

var ledgerHeader = []string{"nummer", "datum", "client", "subtotaal", "btw", "totaal"}

type LedgerWorker struct {
	storage    *storage.SQLiteRepository
	ledgerPath string

	mu sync.Mutex
}

func NewLedgerWorker(storage *storage.SQLiteRepository, ledgerPath string) *LedgerWorker {
	return &LedgerWorker{
		storage:    storage,
		ledgerPath: ledgerPath,
	}
}

// HandleInvoiceCreated fetches the announced invoice from storage and
// appends it to the ledger. Returning an error requeues the message, so
// a missing invoice row or a full disk gets retried.
func (w *LedgerWorker) HandleInvoiceCreated(ctx context.Context, msg *amqp.InvoiceCreatedMessage) error {
	invoice, err := w.storage.GetInvoice(ctx, msg.Nummer)
	if err != nil {
		return fmt.Errorf("get invoice %d from storage: %w", msg.Nummer, err)
	}

	record := []string{
		strconv.Itoa(invoice.Nummer),
		invoice.Date.Format(time.DateOnly),
		invoice.Client.Name,
		fmt.Sprintf("%.2f", invoice.Subtotal),
		fmt.Sprintf("%.2f", invoice.Btw),
		fmt.Sprintf("%.2f", invoice.Total),
	}

	if err := w.appendRecord(record); err != nil {
		return fmt.Errorf("append invoice %d to ledger: %w", invoice.Nummer, err)
	}

	slog.InfoContext(ctx, "Invoice exported to ledger",
		"nummer", invoice.Nummer,
		"client", invoice.Client.Name,
		"ledger", w.ledgerPath)

	return nil
}

func (w *LedgerWorker) appendRecord(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, statErr := os.Stat(w.ledgerPath)
	writeHeader := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(w.ledgerPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if writeHeader {
		if err := cw.Write(ledgerHeader); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write ledger record: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
