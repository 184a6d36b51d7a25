// Package http serves the invoice web UI: a schedule form that prefills
// an invoice from the l1nda feed, the invoice form itself, the invoice
// history and the quarterly BTW report, all behind a password login.
package http

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"factuur/internal/config"
	"factuur/internal/middleware/trace"
	"factuur/internal/rooster"
	"factuur/internal/services"
	"factuur/internal/storage"
	"factuur/web"
)

type Server struct {
	http.Server

	templates *template.Template
	router    chi.Router

	cfg      *config.Config
	fetcher  rooster.WeekFetcher
	invoices *services.InvoiceService
	repo     *storage.SQLiteRepository
	sessions *sessionStore
}

// NewServer wires the handlers onto a chi router. The fetcher is passed
// in so tests can script the feed.
func NewServer(addr string, cfg *config.Config, fetcher rooster.WeekFetcher, invoices *services.InvoiceService, repo *storage.SQLiteRepository) (*Server, error) {
	templates, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates: templates,
		router:    chi.NewRouter(),
		cfg:       cfg,
		fetcher:   fetcher,
		invoices:  invoices,
		repo:      repo,
		sessions:  newSessionStore(cfg.SessionTTL),
	}
	s.registerRoutes()

	s.Server = http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // PDF rendering happens in-request
		IdleTimeout:  time.Minute,
	}

	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.Use(trace.Middleware)

	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/", s.handleDashboard)
		r.Get("/anita", s.handleAnitaPage)
		r.Post("/anita", s.handleAnitaSubmit)
		r.Get("/factuur", s.handleFactuurPage)
		r.Post("/factuur", s.handleFactuurSubmit)
		r.Get("/facturen", s.handleHistory)
		r.Get("/facturen/{nummer}/pdf", s.handleInvoicePDF)
		r.Get("/btw", s.handleBTWReport)
	})

	staticFS, _ := fs.Sub(web.StaticFS, "static")
	s.router.Handle("/static/*", http.StripPrefix("/static/",
		http.FileServer(http.FS(staticFS))))
}
