package www

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/optimize"
	"github.com/angas/solarquote-go/www/chartjs"
)

// Years shown after break-even, and the upper bound of the chart.
const (
	chartExtraYears = 5
	chartMaxYears   = 50
)

// The amount axis is rounded outwards to this step.
const chartAmountStep = 1000.0

type ReportBuilder interface {
	BuildReport(capacity catalog.Capacity, annualYieldPerKW float64, conn calc.ConnectionType) (optimize.InstallationReport, error)
	SavingsTrajectory(r optimize.InstallationReport) iter.Seq[calc.SavingsYear]
}

// NewSavingsChartHandler returns the cumulative savings of one capacity
// against its net cost as a Chart.js line chart.
func NewSavingsChartHandler(logger *slog.Logger, reports ReportBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		q := r.URL.Query()
		capacity, err := strconv.Atoi(q.Get("capacity"))
		if err != nil {
			http.Error(w, "invalid capacity", http.StatusBadRequest)
			return
		}
		yield, err := parseAmount(q.Get("productible"))
		if err != nil || yield <= 0 {
			http.Error(w, "invalid productible", http.StatusBadRequest)
			return
		}
		conn, err := calc.ParseConnectionType(q.Get("type_branchement"))
		if err != nil {
			http.Error(w, "invalid type_branchement", http.StatusBadRequest)
			return
		}

		report, err := reports.BuildReport(catalog.Capacity(capacity), yield, conn)
		if errors.Is(err, catalog.ErrInvalidCapacity) {
			http.Error(w, "unknown capacity", http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Error("handling savings chart request", slog.Any("error", err))
			http.Error(w, "unable to build report", http.StatusInternalServerError)
			return
		}

		chart := savingsChart(report, reports.SavingsTrajectory(report))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(chart); err != nil {
			logger.Error("handling savings chart request", slog.Any("error", err))
			http.Error(w, "unable to encode data points", http.StatusInternalServerError)
		}
	}
}

func savingsChart(report optimize.InstallationReport, trajectory iter.Seq[calc.SavingsYear]) chartjs.Chart {
	years := min(max(report.YearsToBreakEven, 1)+chartExtraYears, chartMaxYears)

	chart := chartjs.NewChart(fmt.Sprintf("%d kW installation", report.Capacity), chartjs.YearLabels(years))
	cumulative := chart.NewDataset("Cumulative savings (EUR)", chartjs.ColorYellow, chartjs.AxisAmount)
	cumulative.Fill = true
	netCost := chart.NewDataset("Net cost (EUR)", chartjs.ColorRed, chartjs.AxisAmount)
	netCost.BorderDash = []int{6, 4}
	netCost.PointRadius = 0
	annual := chart.NewDataset("Annual savings (EUR)", chartjs.ColorGreen, chartjs.AxisAnnual)
	annual.Type = "bar"
	annual.BackgroundColor = chartjs.ColorGreen

	top := report.NetCost
	for y := range trajectory {
		if y.Year > years {
			break
		}
		top = max(top, y.Cumulative)
		i := y.Year - 1
		cumulative.Data[i] = chartjs.FixedFloat64(y.Cumulative, 2)
		netCost.Data[i] = chartjs.FixedFloat64(report.NetCost, 2)
		annual.Data[i] = chartjs.FixedFloat64(y.Savings, 2)
	}

	chart.Data.Datasets = append(chart.Data.Datasets, cumulative, netCost, annual)
	bottom := min(0, report.NetCost)
	chart.Options.Scales[chartjs.AxisAmount] = chart.Options.Scales[chartjs.AxisAmount].
		WithTitle("Cumulative (EUR)").
		WithMinAndMax(math.Floor(bottom/chartAmountStep)*chartAmountStep, math.Ceil(top/chartAmountStep)*chartAmountStep)
	chart.Options.Scales[chartjs.AxisAnnual] = chart.Options.Scales[chartjs.AxisAnnual].WithTitle("Per year (EUR)")
	return chart
}
