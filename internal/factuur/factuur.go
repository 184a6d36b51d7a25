// Package factuur derives billable work items from scheduled events and
// assembles them into invoices with 21% BTW.
package factuur

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"factuur/internal/core"
	"factuur/internal/rooster"
)

// BTWRate is the Dutch VAT rate applied to every invoice subtotal.
const BTWRate = 0.21

// AssumedOffset is appended to the feed's offset-less timestamps before
// parsing. The feed always reports Amsterdam wall-clock time, but pinning
// +01:00 year-round is wrong during summer time. Kept as-is because the
// historical invoices were computed this way; see DESIGN.md.
const AssumedOffset = "+01:00"

var (
	// ErrTimeParse marks an event whose start or end timestamp cannot be
	// parsed. Such events are dropped from the batch, not fatal.
	ErrTimeParse = errors.New("cannot parse event timestamp")
	// ErrNonPositiveDuration marks an event whose end does not lie after
	// its start.
	ErrNonPositiveDuration = errors.New("event duration is not positive")
	// ErrNoBillableWork is returned when a month yields no billable
	// events at all, so the caller can tell "nothing to bill" apart from
	// "could not determine what to bill".
	ErrNoBillableWork = errors.New("no billable work items")
)

// timestampLayouts covers the feed's second-precision timestamps and the
// minute-precision form the feed used historically.
var timestampLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04-07:00",
}

func parseEventTime(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s+AssumedOffset); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimeParse, s)
}

// WorkItemFromEvent turns one scheduled event into a billable line item.
// Hours keep sub-hour precision (a 4.5 hour shift bills 4.5 × rate).
func WorkItemFromEvent(e core.Event, hourlyRate float64) (core.WorkItem, error) {
	start, err := parseEventTime(e.Start)
	if err != nil {
		return core.WorkItem{}, err
	}
	end, err := parseEventTime(e.End)
	if err != nil {
		return core.WorkItem{}, err
	}

	hours := end.Sub(start).Minutes() / 60
	if hours <= 0 {
		return core.WorkItem{}, fmt.Errorf("%w: %s to %s", ErrNonPositiveDuration, e.Start, e.End)
	}

	return core.WorkItem{
		Desc: fmt.Sprintf("%s %s (%s)", e.Type, e.Date, e.StartToEnd),
		Euro: hours * hourlyRate,
	}, nil
}

// WorkItemsFromEvents converts a batch of events in parallel, dropping
// events that fail to convert instead of aborting the batch. The result
// keeps the order of the input events.
func WorkItemsFromEvents(ctx context.Context, events []core.Event, hourlyRate float64) []core.WorkItem {
	results := make([]*core.WorkItem, len(events))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, e := range events {
		i, e := i, e
		g.Go(func() error {
			item, err := WorkItemFromEvent(e, hourlyRate)
			if err != nil {
				slog.WarnContext(ctx, "Dropping unbillable event",
					"person", e.Person,
					"date", e.Date,
					"error", err)
				return nil
			}
			results[i] = &item
			return nil
		})
	}
	// Conversions never return errors, they drop.
	_ = g.Wait()

	items := make([]core.WorkItem, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// New totals the given work items into an invoice. Subtotal, BTW and
// total are computed here and nowhere else; they are never patched on an
// existing invoice.
func New(items []core.WorkItem, client core.Client, nummer int) (*core.Factuur, error) {
	if len(items) == 0 {
		return nil, ErrNoBillableWork
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.Euro
	}
	btw := core.RoundCents(subtotal * BTWRate)

	return &core.Factuur{
		Nummer:    nummer,
		Client:    client,
		WorkItems: items,
		Subtotal:  subtotal,
		Btw:       btw,
		Total:     subtotal + btw,
		Date:      time.Now().UTC(),
	}, nil
}

// FromForm builds an invoice from the free-form rows of the invoice page.
// Task and price columns are zipped pairwise; rows with an empty side or
// an unparsable or negative price are skipped.
func FromForm(nummer int, client core.Client, tasks, prices []string) (*core.Factuur, error) {
	n := min(len(tasks), len(prices))
	items := make([]core.WorkItem, 0, n)
	for i := 0; i < n; i++ {
		if tasks[i] == "" || prices[i] == "" {
			continue
		}
		euro, err := strconv.ParseFloat(prices[i], 64)
		if err != nil || euro < 0 {
			continue
		}
		items = append(items, core.WorkItem{Desc: tasks[i], Euro: euro})
	}
	return New(items, client, nummer)
}

// SynthesizeInvoice is the single entry point that turns one employee's
// month of shifts into an invoice: aggregate events, synthesize work
// items, total them. Aggregation failures abort; per-event conversion
// failures only drop the event in question.
func SynthesizeInvoice(ctx context.Context, fetcher rooster.WeekFetcher, employee string, month, year int, hourlyRate float64, nummer int, client core.Client) (*core.Factuur, error) {
	events, err := rooster.EventsFromMonth(ctx, fetcher, employee, year, month)
	if err != nil {
		return nil, fmt.Errorf("aggregate events for %d-%02d: %w", year, month, err)
	}

	items := WorkItemsFromEvents(ctx, events, hourlyRate)
	return New(items, client, nummer)
}
