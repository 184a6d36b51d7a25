// Package core holds the domain types shared across the application:
// scheduled events as the l1nda feed reports them, billable work items
// derived from those events, and the invoice aggregate itself.
package core

import (
	"errors"
	"math"
	"time"
)

type (
	// Event is one scheduled shift occurrence from the feed. Immutable
	// once fetched.
	Event struct {
		// Person is the call name of the scheduled employee.
		Person string `json:"event_who_profile_call_name"`
		// Type is the shift category, e.g. "Bar".
		Type string `json:"event_type"`
		// Date is the calendar date as "YYYY-MM-DD".
		Date string `json:"event_date"`
		// StartToEnd is the display time range, e.g. "20:00 - 01:00".
		StartToEnd string `json:"event_start_end_time"`
		// Start and End are local wall-clock timestamps without an
		// offset, e.g. "2024-05-01T09:00:00".
		Start string `json:"event_starts_at"`
		End   string `json:"event_ends_at"`
	}

	// Week is one page of the feed. The covered range is inclusive and
	// does not necessarily align with calendar week boundaries.
	Week struct {
		StartDate string  `json:"start_date"`
		EndDate   string  `json:"end_date"`
		Schedule  []Layer `json:"scheduled_events"`
	}

	// Layer is a named schedule layer grouping per-day event buckets.
	Layer struct {
		Name string `json:"layer_name"`
		Days []Day  `json:"layer_days"`
	}

	// Day is one day bucket inside a layer.
	Day struct {
		Date   string  `json:"day_key"`
		Events []Event `json:"day_events"`
	}

	// WorkItem is one billable line on an invoice. Quantity and unit
	// price are not retained separately; only the computed amount
	// persists downstream.
	WorkItem struct {
		Desc string  `json:"desc"`
		Euro float64 `json:"euro"`
	}

	// Client is the invoiced party.
	Client struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Zip     string `json:"zip"`
	}

	// Factuur is a finished invoice. Subtotal, Btw and Total are
	// derived once at construction and never patched in place; changing
	// the work items means building a new Factuur.
	Factuur struct {
		Nummer    int        `json:"nummer"`
		Client    Client     `json:"client"`
		WorkItems []WorkItem `json:"work_items"`
		Subtotal  float64    `json:"subtotal"`
		Btw       float64    `json:"btw"`
		Total     float64    `json:"total"`
		Date      time.Time  `json:"date"`
	}
)

var (
	ErrEmptyClientName = errors.New("client name cannot be empty")
	ErrInvalidNummer   = errors.New("invoice number must be positive")
)

// Validate checks the invariants a Factuur must satisfy before it may be
// persisted.
func (f Factuur) Validate() error {
	if f.Nummer <= 0 {
		return ErrInvalidNummer
	}
	if f.Client.Name == "" {
		return ErrEmptyClientName
	}
	return nil
}

// RoundCents rounds a euro amount to two decimal places.
func RoundCents(euro float64) float64 {
	return math.Round(euro*100) / 100
}
