// Command factuur-cli previews one month of billable shifts from the
// schedule feed without touching the database: it prints the work items
// and the invoice totals to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"factuur/internal/cli"
	"factuur/internal/core"
	"factuur/internal/factuur"
	"factuur/internal/linda"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	fs := ff.NewFlagSet("factuur-cli")
	var (
		maand    = fs.StringLong("month", time.Now().Format("2006-01"), "Month to bill as YYYY-MM")
		name     = fs.StringLong("name", "", "Employee call name (defaults to EMPLOYEE_NAME)")
		rateFlag = fs.StringLong("rate", "", "Hourly rate in euro (defaults to HOURLY_RATE)")
		cookie   = fs.StringLong("cookie", "", "Schedule feed auth cookie (defaults to LINDA_AUTH)")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FACTUUR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	if *name == "" {
		*name = cfg.EmployeeName
	}
	rate := cfg.HourlyRate
	if *rateFlag != "" {
		parsedRate, err := strconv.ParseFloat(*rateFlag, 64)
		if err != nil || parsedRate <= 0 {
			fmt.Fprintf(os.Stderr, "error: invalid rate %q\n", *rateFlag)
			os.Exit(1)
		}
		rate = parsedRate
	}
	if *cookie == "" {
		*cookie = cfg.LindaAuthCookie
	}

	parsed, err := time.Parse("2006-01", *maand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid month %q, expected YYYY-MM\n", *maand)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fetcher := linda.New(cfg.LindaBaseURL, *cookie)
	f, err := factuur.SynthesizeInvoice(ctx, fetcher, *name,
		int(parsed.Month()), parsed.Year(), rate,
		1, core.Client{Name: cfg.DefaultClientName})
	if errors.Is(err, factuur.ErrNoBillableWork) {
		fmt.Fprintf(os.Stderr, "no billable shifts for %s in %s\n", *name, *maand)
		os.Exit(1)
	}
	if err != nil {
		logger.Error("Failed to synthesize invoice", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Diensten van %s in %s:\n\n", *name, *maand)
	for _, item := range f.WorkItems {
		fmt.Printf("  %-50s € %8.2f\n", item.Desc, item.Euro)
	}
	fmt.Printf("\n  %-50s € %8.2f\n", "Subtotaal", f.Subtotal)
	fmt.Printf("  %-50s € %8.2f\n", "BTW (21%)", f.Btw)
	fmt.Printf("  %-50s € %8.2f\n", "Totaal", f.Total)
}
