// Package services orchestrates invoice creation across storage, the PDF
// renderer and the AMQP ledger queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"factuur/internal/core"
	"factuur/internal/storage"
)

// Renderer produces the PDF bytes for an invoice.
type Renderer interface {
	Render(ctx context.Context, f *core.Factuur) ([]byte, error)
}

// Publisher announces stored invoices to downstream consumers.
type Publisher interface {
	PublishInvoiceCreated(ctx context.Context, nummer int, client string, total float64) error
	Close() error
}

// InvoiceService persists invoices first, then renders and publishes.
// A publish failure is logged but never fails the request; the invoice is
// already safely stored by then.
type InvoiceService struct {
	storage   *storage.SQLiteRepository
	renderer  Renderer
	publisher Publisher
}

func NewInvoiceService(storage *storage.SQLiteRepository, renderer Renderer, publisher Publisher) *InvoiceService {
	return &InvoiceService{
		storage:   storage,
		renderer:  renderer,
		publisher: publisher,
	}
}

// CreateInvoice stores the invoice, renders its PDF, attaches the bytes
// to the stored row and announces the invoice. It returns the PDF so the
// caller can stream it straight back to the user.
//
// Persistence failures abort before anything is rendered. A render
// failure after a successful save is surfaced too: an invoice the user
// cannot hand to the client is not done.
func (s *InvoiceService) CreateInvoice(ctx context.Context, f *core.Factuur) ([]byte, error) {
	if err := s.storage.SaveInvoice(ctx, f, nil); err != nil {
		return nil, fmt.Errorf("save invoice: %w", err)
	}

	pdfBytes, err := s.renderer.Render(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("render invoice %d: %w", f.Nummer, err)
	}

	if err := s.storage.StoreInvoicePDF(ctx, f.Nummer, pdfBytes); err != nil {
		return nil, fmt.Errorf("store invoice pdf: %w", err)
	}

	s.publishCreated(ctx, f)

	return pdfBytes, nil
}

func (s *InvoiceService) publishCreated(ctx context.Context, f *core.Factuur) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping invoice message")
		return
	}
	if err := s.publisher.PublishInvoiceCreated(ctx, f.Nummer, f.Client.Name, f.Total); err != nil {
		// The invoice is stored; the ledger will catch up later.
		slog.ErrorContext(ctx, "Failed to publish invoice created message",
			"nummer", f.Nummer,
			"error", err)
	}
}

// Close releases the service's connections.
func (s *InvoiceService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close invoice service: %v", errs)
	}

	return nil
}
