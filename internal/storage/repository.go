// Package storage persists clients and invoices in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"factuur/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveInvoice stores an invoice and, when provided, its rendered PDF.
// The client row is created on first use; later invoices for the same
// client name reuse it.
func (r *SQLiteRepository) SaveInvoice(ctx context.Context, f *core.Factuur, pdf []byte) error {
	if err := f.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO client (name, address, zip) VALUES (?, ?, ?)`,
		f.Client.Name, f.Client.Address, f.Client.Zip)
	if err != nil {
		return fmt.Errorf("upsert client: %w", err)
	}

	var clientID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM client WHERE name = ?`, f.Client.Name).Scan(&clientID)
	if err != nil {
		return fmt.Errorf("look up client id: %w", err)
	}

	workItems, err := json.Marshal(f.WorkItems)
	if err != nil {
		return fmt.Errorf("marshal work items: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO invoice (nummer, client, work_items, subtotal, btw, total, created_at, pdf)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Nummer, clientID, string(workItems), f.Subtotal, f.Btw, f.Total,
		f.Date.UTC().Format(time.RFC3339Nano), pdf)
	if err != nil {
		return fmt.Errorf("insert invoice %d: %w", f.Nummer, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice %d: %w", f.Nummer, err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"nummer", f.Nummer,
		"client", f.Client.Name,
		"total", f.Total,
		"pdf_bytes", len(pdf))

	return nil
}

// GetClient looks a client up by exact name.
func (r *SQLiteRepository) GetClient(ctx context.Context, name string) (*core.Client, error) {
	var c core.Client
	err := r.db.QueryRowContext(ctx,
		`SELECT name, address, zip FROM client WHERE name = ?`, name).
		Scan(&c.Name, &c.Address, &c.Zip)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get client %q: %w", name, err)
	}
	return &c, nil
}

// ListClients returns all known clients ordered by name.
func (r *SQLiteRepository) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, address, zip FROM client ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []core.Client
	for rows.Next() {
		var c core.Client
		if err := rows.Scan(&c.Name, &c.Address, &c.Zip); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// MostRecentInvoiceNumber returns the highest invoice number stored so
// far, or 0 when there are no invoices yet.
func (r *SQLiteRepository) MostRecentInvoiceNumber(ctx context.Context) (int, error) {
	var nummer sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT MAX(nummer) FROM invoice`).Scan(&nummer)
	if err != nil {
		return 0, fmt.Errorf("most recent invoice number: %w", err)
	}
	return int(nummer.Int64), nil
}

// GetInvoice fetches one invoice by number.
func (r *SQLiteRepository) GetInvoice(ctx context.Context, nummer int) (*core.Factuur, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT invoice.nummer, client.name, client.address, client.zip,
		        invoice.work_items, invoice.subtotal, invoice.btw, invoice.total, invoice.created_at
		 FROM invoice INNER JOIN client ON client.id = invoice.client
		 WHERE invoice.nummer = ?`, nummer)

	f, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", nummer, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", nummer, err)
	}
	return f, nil
}

// ListInvoices returns all invoices, most recent number first.
func (r *SQLiteRepository) ListInvoices(ctx context.Context) ([]core.Factuur, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT invoice.nummer, client.name, client.address, client.zip,
		        invoice.work_items, invoice.subtotal, invoice.btw, invoice.total, invoice.created_at
		 FROM invoice INNER JOIN client ON client.id = invoice.client
		 ORDER BY invoice.nummer DESC`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Factuur
	for rows.Next() {
		f, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *f)
	}
	return invoices, rows.Err()
}

// GetInvoicePDF returns the rendered document bytes for an invoice.
// ErrNotFound covers both a missing invoice and one without a stored PDF.
func (r *SQLiteRepository) GetInvoicePDF(ctx context.Context, nummer int) ([]byte, error) {
	var pdf []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT pdf FROM invoice WHERE nummer = ?`, nummer).Scan(&pdf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", nummer, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice pdf %d: %w", nummer, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("invoice %d has no stored pdf: %w", nummer, ErrNotFound)
	}
	return pdf, nil
}

// StoreInvoicePDF attaches rendered document bytes to an existing invoice.
func (r *SQLiteRepository) StoreInvoicePDF(ctx context.Context, nummer int, pdf []byte) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoice SET pdf = ? WHERE nummer = ?`, pdf, nummer)
	if err != nil {
		return fmt.Errorf("store invoice pdf %d: %w", nummer, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store invoice pdf %d: %w", nummer, err)
	}
	if affected == 0 {
		return fmt.Errorf("invoice %d: %w", nummer, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*core.Factuur, error) {
	var (
		f         core.Factuur
		workItems string
		createdAt string
	)
	err := row.Scan(&f.Nummer, &f.Client.Name, &f.Client.Address, &f.Client.Zip,
		&workItems, &f.Subtotal, &f.Btw, &f.Total, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(workItems), &f.WorkItems); err != nil {
		return nil, fmt.Errorf("unmarshal work items: %w", err)
	}
	f.Date, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return &f, nil
}
