package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"factuur/internal/core"
	"factuur/internal/storage"
)

type fakeRenderer struct {
	pdf []byte
	err error
}

func (r *fakeRenderer) Render(ctx context.Context, f *core.Factuur) ([]byte, error) {
	return r.pdf, r.err
}

type fakePublisher struct {
	published []int
	err       error
	closed    bool
}

func (p *fakePublisher) PublishInvoiceCreated(ctx context.Context, nummer int, client string, total float64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, nummer)
	return nil
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

func newService(t *testing.T, renderer Renderer, publisher Publisher) (*InvoiceService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "factuur.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	return NewInvoiceService(repo, renderer, publisher), repo
}

func invoice(nummer int) *core.Factuur {
	return &core.Factuur{
		Nummer:    nummer,
		Client:    core.Client{Name: "V.O.F. De Nieuwe Anita", Address: "straat 1", Zip: "1052 HN"},
		WorkItems: []core.WorkItem{{Desc: "Bar", Euro: 100}},
		Subtotal:  100,
		Btw:       21,
		Total:     121,
		Date:      time.Now().UTC(),
	}
}

func TestCreateInvoice(t *testing.T) {
	t.Run("stores invoice with pdf and publishes", func(t *testing.T) {
		publisher := &fakePublisher{}
		svc, repo := newService(t, &fakeRenderer{pdf: []byte("%PDF")}, publisher)
		defer svc.Close()

		pdf, err := svc.CreateInvoice(context.Background(), invoice(1))
		if err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
		if string(pdf) != "%PDF" {
			t.Errorf("returned pdf = %q", pdf)
		}

		stored, err := repo.GetInvoicePDF(context.Background(), 1)
		if err != nil || string(stored) != "%PDF" {
			t.Errorf("stored pdf = %q, %v", stored, err)
		}
		if len(publisher.published) != 1 || publisher.published[0] != 1 {
			t.Errorf("published = %v, want [1]", publisher.published)
		}
	})

	t.Run("render failure surfaces but invoice stays stored", func(t *testing.T) {
		renderErr := errors.New("xelatex exploded")
		svc, repo := newService(t, &fakeRenderer{err: renderErr}, &fakePublisher{})
		defer svc.Close()

		_, err := svc.CreateInvoice(context.Background(), invoice(2))
		if !errors.Is(err, renderErr) {
			t.Fatalf("error = %v, want render error", err)
		}
		if _, err := repo.GetInvoice(context.Background(), 2); err != nil {
			t.Errorf("invoice should be stored despite render failure: %v", err)
		}
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		svc, _ := newService(t, &fakeRenderer{pdf: []byte("%PDF")}, &fakePublisher{err: errors.New("broker down")})
		defer svc.Close()

		if _, err := svc.CreateInvoice(context.Background(), invoice(3)); err != nil {
			t.Fatalf("CreateInvoice should tolerate publish failure: %v", err)
		}
	})

	t.Run("nil publisher is allowed", func(t *testing.T) {
		svc, _ := newService(t, &fakeRenderer{pdf: []byte("%PDF")}, nil)
		defer svc.Close()

		if _, err := svc.CreateInvoice(context.Background(), invoice(4)); err != nil {
			t.Fatalf("CreateInvoice: %v", err)
		}
	})

	t.Run("duplicate number fails before rendering", func(t *testing.T) {
		renderer := &fakeRenderer{pdf: []byte("%PDF")}
		svc, _ := newService(t, renderer, nil)
		defer svc.Close()

		if _, err := svc.CreateInvoice(context.Background(), invoice(5)); err != nil {
			t.Fatalf("first CreateInvoice: %v", err)
		}
		if _, err := svc.CreateInvoice(context.Background(), invoice(5)); err == nil {
			t.Fatal("expected error for duplicate invoice number")
		}
	})
}

func TestClose(t *testing.T) {
	publisher := &fakePublisher{}
	svc, _ := newService(t, &fakeRenderer{}, publisher)

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !publisher.closed {
		t.Error("Close must close the publisher")
	}
}
