// Command quote prints the installation selection for a yield, or for a city
// whose yield is looked up online, without starting the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/config"
	"github.com/angas/solarquote-go/gisco"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/pvgis"
	"github.com/angas/solarquote-go/quote"
	"github.com/angas/solarquote-go/types/maybe"
	"github.com/angas/solarquote-go/zippopotam"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	yield := flag.Float64("yield", 0, "annual yield in kWh per installed kW, skips the online lookups")
	city := flag.String("city", "", "city to look up the yield for")
	aspect := flag.String("aspect", "SUD", "roof orientation: SUD, EST, OUEST, SUD-EST or SUD-OUEST")
	budget := flag.Float64("budget", 0, "maximum monthly spending in EUR")
	connection := flag.String("connection", string(calc.ConnectionSinglePhase), "grid connection: monophase or triphase")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.RFC3339})))

	if err := run(*configPath, *yield, *city, *aspect, *budget, *connection, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, yield float64, city, aspect string, budget float64, connection string, out io.Writer) error {
	cnfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	prices, err := cnfg.Catalog.GetCatalog()
	if err != nil {
		return fmt.Errorf("invalid price catalog: %w", err)
	}
	rates, err := cnfg.Catalog.GetRateTable()
	if err != nil {
		return fmt.Errorf("invalid rate table: %w", err)
	}
	selector := optimize.NewSelector(slog.Default().With("module", "optimize"), prices, rates, cnfg.Savings.GetProjector())

	if city != "" {
		timeout := cnfg.Lookup.GetTimeout()
		limiter := rate.NewLimiter(rate.Limit(cnfg.Lookup.GetRequestsPerSecond()), 1)
		service := quote.NewService(
			slog.Default().With("module", "quote"),
			zippopotam.New(cnfg.Lookup.ZippopotamUrl, timeout, limiter),
			gisco.New(cnfg.Lookup.GiscoUrl, timeout, limiter),
			pvgis.New(cnfg.Lookup.PvgisUrl, cnfg.Lookup.Pvgis.GetParameters(), timeout, limiter),
			selector)

		ctx, cancel := context.WithTimeout(context.Background(), 3*timeout)
		defer cancel()
		q, err := service.Quote(ctx, quote.Request{City: city, Aspect: aspect, MonthlyBudget: budget, Connection: connection})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%.4f, %.4f), %s: %.2f kWh/kW/year\n\n", q.City, q.Position.Latitude, q.Position.Longitude, q.Aspect, q.AnnualYield)
		printSelection(out, q.Selection, budget)
		return nil
	}

	if !(yield > 0) || math.IsInf(yield, 0) {
		return fmt.Errorf("either -city or a positive -yield is required")
	}
	if !(budget > 0) || math.IsInf(budget, 0) {
		return fmt.Errorf("a positive -budget is required")
	}
	conn, err := calc.ParseConnectionType(connection)
	if err != nil {
		return err
	}
	sel, err := selector.SelectBest(yield, budget, conn)
	if err != nil {
		return err
	}
	printSelection(out, sel, budget)
	return nil
}

func printSelection(out io.Writer, sel optimize.Selection, budget float64) {
	best := sel.Best.ValueOrDefault(optimize.InstallationReport{})
	lower := sel.NextLower.ValueOrDefault(optimize.InstallationReport{})

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "kW\tlist price\tnet cost\tbreak-even\tmonthly savings\t\t")
	for _, r := range sel.Reports {
		mark := ""
		switch {
		case sel.Best.IsValid() && r.Capacity == best.Capacity:
			mark = "best"
		case sel.NextLower.IsValid() && r.Capacity == lower.Capacity:
			mark = "next lower"
		}
		fmt.Fprintf(tw, "%d\t%.0f\t%.0f\t%d y\t%.2f\t%s\t\n",
			r.Capacity, r.ListPrice, r.NetCost, r.YearsToBreakEven, r.AverageMonthlySavings, mark)
	}
	tw.Flush()

	if !sel.Best.IsValid() {
		fmt.Fprintf(out, "\nno installation fits a monthly spending of %.2f\n", budget)
		return
	}

	fmt.Fprintf(out, "\nfinancing of %d kW\n", best.Capacity)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "months\tlist price\tnet cost\t")
	for _, f := range best.Financing {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", f.Term, installment(f.ListPriceInstallment), installment(f.NetCostInstallment))
	}
	tw.Flush()
}

func installment(m maybe.Maybe[float64]) string {
	v, ok := m.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
