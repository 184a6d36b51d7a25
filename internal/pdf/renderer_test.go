package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"factuur/internal/core"
)

func sampleInvoice() *core.Factuur {
	return &core.Factuur{
		Nummer: 42,
		Client: core.Client{
			Name:    "V.O.F. De Nieuwe Anita",
			Address: "Frederik Hendrikstraat 111",
			Zip:     "1052 HN",
		},
		WorkItems: []core.WorkItem{
			{Desc: "Bar 2024-05-01 (09:00 - 13:30)", Euro: 90},
			{Desc: "Bar 2024-05-04 (20:00 - 01:00)", Euro: 100},
		},
		Subtotal: 190,
		Btw:      39.9,
		Total:    229.9,
		Date:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderDetails(t *testing.T) {
	details, err := RenderDetails(sampleInvoice())
	if err != nil {
		t.Fatalf("RenderDetails: %v", err)
	}
	out := string(details)

	for _, want := range []string{
		"invoice-nr: 42",
		"date: 01-06-2024",
		"V.O.F. De Nieuwe Anita",
		`description: "Bar 2024-05-01 (09:00 - 13:30)"`,
		"price: 90.00",
		"subtotal: 190.00",
		"btw: 39.90",
		"total: 229.90",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("details missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderMissingPandoc(t *testing.T) {
	r := NewRenderer("/nonexistent/pandoc-binary")
	_, err := r.Render(context.Background(), sampleInvoice())
	if !errors.Is(err, ErrRender) {
		t.Fatalf("error = %v, want ErrRender", err)
	}
}
