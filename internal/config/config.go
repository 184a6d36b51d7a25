// Package config loads the application configuration from environment
// variables. Nothing outside this package reads the environment; the
// values are passed down explicitly.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// l1nda feed
	LindaAuthCookie string
	LindaBaseURL    string

	// Billing defaults
	EmployeeName      string
	HourlyRate        float64
	DefaultClientName string

	// AMQP (optional; empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger export
	LedgerPath string

	// Auth
	AdminPasswordHash string
	SessionTTL        time.Duration

	// PDF rendering
	PandocPath string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "1728"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/factuur.db"),

		LindaAuthCookie: getEnv("LINDA_AUTH", ""),
		LindaBaseURL:    getEnv("LINDA_BASE_URL", ""),

		EmployeeName:      getEnv("EMPLOYEE_NAME", "Noemi"),
		HourlyRate:        getEnvFloat("HOURLY_RATE", 22.0),
		DefaultClientName: getEnv("DEFAULT_CLIENT_NAME", "V.O.F. De Nieuwe Anita"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "factuur"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "invoice_created"),

		LedgerPath: getEnv("LEDGER_PATH", "./data/grootboek.csv"),

		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),

		PandocPath: getEnv("PANDOC_PATH", "pandoc"),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.HourlyRate <= 0 {
		errors = append(errors, fmt.Sprintf("invalid hourly rate %v: must be positive", c.HourlyRate))
	}

	if c.EmployeeName == "" {
		errors = append(errors, "employee name cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
