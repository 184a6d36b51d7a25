package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"factuur/internal/amqp"
	"factuur/internal/cli"
	apphttp "factuur/internal/http"
	"factuur/internal/linda"
	"factuur/internal/pdf"
	"factuur/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting factuur")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// AMQP is optional; without a URL invoices are still stored and
	// rendered, only the ledger export misses out.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			repo.Close()
			return
		}
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	if cfg.LindaAuthCookie == "" {
		logger.Warn("LINDA_AUTH not set - schedule fetching will fail until it is configured")
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set - pages are served without a login")
	}

	fetcher := linda.New(cfg.LindaBaseURL, cfg.LindaAuthCookie)
	renderer := pdf.NewRenderer(cfg.PandocPath)
	invoices := services.NewInvoiceService(repo, renderer, publisher)

	srv, err := apphttp.NewServer(":"+cfg.Port, cfg, fetcher, invoices, repo)
	if err != nil {
		logger.Error("Failed to initialize HTTP server", "error", err)
		invoices.Close()
		return
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := invoices.Close(); err != nil {
			logger.Error("Failed to close invoice service", "error", err)
		}
	})

	logger.Info("HTTP server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server error", "error", err)
	}

	<-done
}
