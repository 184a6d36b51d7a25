// Package rooster aggregates the scheduled events of one employee for one
// calendar month out of the weekly feed.
//
// The feed paginates by its own week index, a fixed stride of four weeks
// per month that is unrelated to ISO week numbers. The index is only a
// fetch cursor: whether an event belongs to the requested month is decided
// by its date, never by the index.
package rooster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"factuur/internal/core"
)

var (
	ErrInvalidMonth = errors.New("month must be between 1 and 12")
	ErrDateRange    = errors.New("month boundary date is out of range")
)

// WeekFetcher retrieves one week payload from the upstream feed.
type WeekFetcher interface {
	FetchWeek(ctx context.Context, year, week int) (core.Week, error)
}

// StartWeek translates a month into the feed's week index for the first
// fetch. The stride of 4 undershoots most months, which the aggregation
// loop compensates for by walking forward until the month boundary.
func StartWeek(month int) (int, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return month*4 - 4, nil
}

// FirstDayOutOfScope returns the first calendar day that no longer belongs
// to the given month. December rolls over to January of the next year.
func FirstDayOutOfScope(year, month int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	nextYear, nextMonth := year, month+1
	if month == 12 {
		nextYear, nextMonth = year+1, 1
	}
	boundary := time.Date(nextYear, time.Month(nextMonth), 1, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components instead of failing, so
	// verify it produced the date we asked for.
	if boundary.Year() != nextYear || boundary.Month() != time.Month(nextMonth) || boundary.Day() != 1 {
		return time.Time{}, fmt.Errorf("%w: year %d month %d", ErrDateRange, year, month)
	}
	return boundary, nil
}

// EventsFromMonth fetches week payloads starting at the month's start week
// and collects, in fetch order, every event that falls inside the month
// and belongs to the named employee.
//
// The loop is strictly sequential because termination depends on the end
// date of the previous payload: it stops after processing the first
// payload whose end date is on or past the month boundary, so the partial
// week straddling month-end is still included. Days outside the month that
// ride along in an overlapping payload are excluded by the date filter,
// not by the termination check. Fetch errors abort the aggregation; a
// partial month is never returned as complete.
func EventsFromMonth(ctx context.Context, fetcher WeekFetcher, employee string, year, month int) ([]core.Event, error) {
	week, err := StartWeek(month)
	if err != nil {
		return nil, err
	}
	boundary, err := FirstDayOutOfScope(year, month)
	if err != nil {
		return nil, err
	}

	prefix := fmt.Sprintf("%d-%02d", year, month)
	var events []core.Event

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := fetcher.FetchWeek(ctx, year, week)
		if err != nil {
			return nil, err
		}

		events = append(events, filterWeek(payload, prefix, employee)...)

		endDate, err := time.Parse(time.DateOnly, payload.EndDate)
		if err != nil {
			return nil, fmt.Errorf("parse week end date %q: %w", payload.EndDate, err)
		}
		if !endDate.Before(boundary) {
			return events, nil
		}
		week++
	}
}

// filterWeek flattens all schedule layers of one payload and keeps the
// events matching the month prefix and the employee, in that order. The
// person match is exact and case-sensitive.
func filterWeek(payload core.Week, datePrefix, employee string) []core.Event {
	var kept []core.Event
	for _, layer := range payload.Schedule {
		for _, day := range layer.Days {
			if !strings.HasPrefix(day.Date, datePrefix) {
				continue
			}
			for _, event := range day.Events {
				if event.Person == employee {
					kept = append(kept, event)
				}
			}
		}
	}
	return kept
}
