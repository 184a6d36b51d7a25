package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"factuur/internal/core"
	"factuur/internal/factuur"
	"factuur/internal/rooster"
	"factuur/internal/storage"
)

// dutchMonths maps time.Month to the month names used on the history page.
var dutchMonths = [13]string{"", "januari", "februari", "maart", "april",
	"mei", "juni", "juli", "augustus", "september", "oktober", "november",
	"december"}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.repo.ListInvoices(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list invoices", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if len(invoices) > 5 {
		invoices = invoices[:5]
	}
	s.render(w, "index.html", map[string]any{
		"Page":     "index",
		"Recent":   invoices,
		"Employee": s.cfg.EmployeeName,
	})
}

// factuurForm is what the invoice page renders: an invoice number, the
// client block and the prefilled work item rows.
type factuurForm struct {
	Page      string
	Nummer    int
	Client    core.Client
	WorkItems []core.WorkItem
	Notice    string
}

func (s *Server) nextNummer(r *http.Request) int {
	latest, err := s.repo.MostRecentInvoiceNumber(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to look up most recent invoice number", "error", err)
		return 1
	}
	return latest + 1
}

func (s *Server) defaultClient(r *http.Request) core.Client {
	client, err := s.repo.GetClient(r.Context(), s.cfg.DefaultClientName)
	if err != nil {
		// First invoice for this client; the form starts with just the name.
		return core.Client{Name: s.cfg.DefaultClientName}
	}
	return *client
}

func (s *Server) handleAnitaPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, "anita.html", map[string]any{
		"Page":     "anita",
		"Maand":    time.Now().Format("2006-01"),
		"Employee": s.cfg.EmployeeName,
	})
}

// handleAnitaSubmit pulls the chosen month from the schedule feed and
// lands on the invoice form with the billable shifts already filled in.
func (s *Server) handleAnitaSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	maand, err := time.Parse("2006-01", r.PostForm.Get("maand"))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, "anita.html", map[string]any{
			"Page":     "anita",
			"Maand":    time.Now().Format("2006-01"),
			"Employee": s.cfg.EmployeeName,
			"Error":    "Kies een maand als JJJJ-MM.",
		})
		return
	}

	year, month := maand.Year(), int(maand.Month())
	events, err := rooster.EventsFromMonth(r.Context(), s.fetcher, s.cfg.EmployeeName, year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to aggregate schedule",
			"year", year,
			"month", month,
			"error", err)
		w.WriteHeader(http.StatusBadGateway)
		s.render(w, "anita.html", map[string]any{
			"Page":     "anita",
			"Maand":    r.PostForm.Get("maand"),
			"Employee": s.cfg.EmployeeName,
			"Error":    "Het rooster kon niet worden opgehaald.",
		})
		return
	}

	items := factuur.WorkItemsFromEvents(r.Context(), events, s.cfg.HourlyRate)
	if len(items) == 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, "anita.html", map[string]any{
			"Page":     "anita",
			"Maand":    r.PostForm.Get("maand"),
			"Employee": s.cfg.EmployeeName,
			"Error":    fmt.Sprintf("Geen diensten voor %s in %s.", s.cfg.EmployeeName, r.PostForm.Get("maand")),
		})
		return
	}

	s.render(w, "factuur.html", factuurForm{
		Page:      "factuur",
		Nummer:    s.nextNummer(r),
		Client:    s.defaultClient(r),
		WorkItems: items,
		Notice:    fmt.Sprintf("%d diensten uit %s overgenomen.", len(items), r.PostForm.Get("maand")),
	})
}

func (s *Server) handleFactuurPage(w http.ResponseWriter, r *http.Request) {
	client := s.defaultClient(r)
	if name := r.URL.Query().Get("client"); name != "" {
		if known, err := s.repo.GetClient(r.Context(), name); err == nil {
			client = *known
		} else {
			client = core.Client{Name: name}
		}
	}
	s.render(w, "factuur.html", factuurForm{
		Page:   "factuur",
		Nummer: s.nextNummer(r),
		Client: client,
	})
}

// handleFactuurSubmit builds the invoice from the submitted rows, stores
// and renders it, and streams the PDF straight back as a download.
func (s *Server) handleFactuurSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	nummer, err := strconv.Atoi(r.PostForm.Get("nummer"))
	if err != nil || nummer <= 0 {
		http.Error(w, "factuurnummer moet een positief getal zijn", http.StatusUnprocessableEntity)
		return
	}

	client := core.Client{
		Name:    r.PostForm.Get("client_name"),
		Address: r.PostForm.Get("client_address"),
		Zip:     r.PostForm.Get("client_zip"),
	}

	f, err := factuur.FromForm(nummer, client, r.PostForm["task"], r.PostForm["price"])
	if errors.Is(err, factuur.ErrNoBillableWork) {
		http.Error(w, "geen factuurregels ingevuld", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := f.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	pdfBytes, err := s.invoices.CreateInvoice(r.Context(), f)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create invoice",
			"nummer", nummer,
			"error", err)
		http.Error(w, "factuur kon niet worden aangemaakt", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("Factuur %s %d.pdf", client.Name, nummer)))
	w.Write(pdfBytes)
}

// monthGroup is one month's worth of invoices on the history page.
type monthGroup struct {
	Title    string
	Invoices []core.Factuur
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.repo.ListInvoices(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list invoices", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var groups []monthGroup
	for _, f := range invoices {
		title := fmt.Sprintf("%s %d", dutchMonths[f.Date.Month()], f.Date.Year())
		if len(groups) == 0 || groups[len(groups)-1].Title != title {
			groups = append(groups, monthGroup{Title: title})
		}
		groups[len(groups)-1].Invoices = append(groups[len(groups)-1].Invoices, f)
	}

	s.render(w, "facturen.html", map[string]any{
		"Page":   "facturen",
		"Groups": groups,
	})
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	nummer, err := strconv.Atoi(chi.URLParam(r, "nummer"))
	if err != nil {
		http.Error(w, "invalid invoice number", http.StatusBadRequest)
		return
	}

	pdfBytes, err := s.repo.GetInvoicePDF(r.Context(), nummer)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load invoice pdf",
			"nummer", nummer,
			"error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", fmt.Sprintf("Factuur %d.pdf", nummer)))
	w.Write(pdfBytes)
}

// quarterRow is one line of the BTW report: revenue and VAT owed for a
// calendar quarter.
type quarterRow struct {
	Title string
	Omzet float64
	Btw   float64
}

func (s *Server) handleBTWReport(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.repo.ListInvoices(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list invoices", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var rows []quarterRow
	for _, f := range invoices {
		quarter := (int(f.Date.Month()) + 2) / 3
		title := fmt.Sprintf("Q%d %d", quarter, f.Date.Year())
		if len(rows) == 0 || rows[len(rows)-1].Title != title {
			rows = append(rows, quarterRow{Title: title})
		}
		rows[len(rows)-1].Omzet = core.RoundCents(rows[len(rows)-1].Omzet + f.Subtotal)
		rows[len(rows)-1].Btw = core.RoundCents(rows[len(rows)-1].Btw + f.Btw)
	}

	s.render(w, "btw.html", map[string]any{
		"Page":     "btw",
		"Quarters": rows,
	})
}
