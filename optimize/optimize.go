package optimize

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/types/maybe"
)

type Selector struct {
	logger    *slog.Logger
	catalog   catalog.Catalog
	rates     catalog.RateTable
	amortizer calc.Amortizer
	projector calc.SavingsProjector
}

func NewSelector(logger *slog.Logger, c catalog.Catalog, rates catalog.RateTable, projector calc.SavingsProjector) *Selector {
	return &Selector{
		logger:    logger,
		catalog:   c,
		rates:     rates,
		amortizer: calc.NewAmortizer(rates),
		projector: projector,
	}
}

// BuildReport computes cost, savings and financing options for one capacity.
// The yield is the expected annual production in kWh per installed kW and must
// be positive for the savings to ever break even.
func (s *Selector) BuildReport(capacity catalog.Capacity, annualYieldPerKW float64, conn calc.ConnectionType) (InstallationReport, error) {
	listPrice, err := s.catalog.Price(capacity)
	if err != nil {
		return InstallationReport{}, err
	}

	cost := calc.ResolveCost(listPrice, capacity, conn)
	anomaly := cost.NetCost <= 0
	if anomaly {
		s.logger.Warn("net cost is not positive, subsidy covers the pre-tax price",
			slog.Int("capacity", int(capacity)),
			slog.Float64("netCost", cost.NetCost))
	}

	savings, err := s.projector.Project(annualYieldPerKW, float64(capacity), cost.NetCost)
	if err != nil {
		return InstallationReport{}, fmt.Errorf("savings projection for %d kW: %w", capacity, err)
	}

	financing := make([]FinancingOption, 0, len(s.rates.Terms()))
	for _, term := range s.rates.Terms() {
		financing = append(financing, FinancingOption{
			Term:                 term,
			ListPriceInstallment: s.installment(listPrice, term),
			NetCostInstallment:   s.installment(cost.NetCost, term),
		})
	}

	return InstallationReport{
		Capacity:              capacity,
		ListPrice:             listPrice,
		NetCost:               cost.NetCost,
		Tax:                   cost.Tax,
		Subsidy:               cost.Subsidy,
		FirstYearSavings:      savings.FirstYearSavings,
		CumulativeSavings:     savings.CumulativeSavings,
		AverageMonthlySavings: savings.AverageMonthlySavings,
		YearsToBreakEven:      savings.YearsToBreakEven,
		NetCostAnomaly:        anomaly,
		Financing:             financing,
	}, nil
}

func (s *Selector) installment(principal float64, term catalog.Term) maybe.Maybe[float64] {
	p, err := s.amortizer.MonthlyPayment(principal, term)
	if err != nil {
		if !errors.Is(err, calc.ErrInvalidPrincipal) && !errors.Is(err, catalog.ErrUnsupportedTerm) {
			s.logger.Error("unexpected amortization error", slog.Int("term", int(term)), slog.Any("error", err))
		}
		return maybe.None[float64]()
	}
	return maybe.Some(p)
}

// SelectBest builds a report for every capacity and picks the largest one whose
// average monthly savings stay within the monthly budget, together with the
// previously qualifying capacity. Capacities that never break even are left
// out, ErrNoBreakEven is only returned when no capacity breaks even.
func (s *Selector) SelectBest(annualYieldPerKW, monthlyBudget float64, conn calc.ConnectionType) (Selection, error) {
	capacities := s.catalog.Capacities()
	reports := make([]InstallationReport, 0, len(capacities))
	var noBreakEven error
	for _, capacity := range capacities {
		r, err := s.BuildReport(capacity, annualYieldPerKW, conn)
		if errors.Is(err, calc.ErrNoBreakEven) {
			s.logger.Debug("capacity skipped", slog.Int("capacity", int(capacity)), slog.Any("error", err))
			noBreakEven = err
			continue
		}
		if err != nil {
			return Selection{}, err
		}
		reports = append(reports, r)
	}
	if len(reports) == 0 && noBreakEven != nil {
		return Selection{}, noBreakEven
	}

	sel := foldAffordable(reports, monthlyBudget)

	s.logger.Debug("installation selected",
		slog.Float64("yield", annualYieldPerKW),
		slog.Float64("budget", monthlyBudget),
		slog.String("connection", string(conn)),
		slog.Bool("found", sel.Best.IsValid()))

	return sel, nil
}

// foldAffordable scans the reports in order, every affordable report pushes
// the current best down to next lower.
func foldAffordable(reports []InstallationReport, monthlyBudget float64) Selection {
	acc := Selection{
		Best:      maybe.None[InstallationReport](),
		NextLower: maybe.None[InstallationReport](),
		Reports:   reports,
	}
	for _, r := range reports {
		if r.AverageMonthlySavings <= monthlyBudget {
			acc.NextLower = acc.Best
			acc.Best = maybe.Some(r)
		}
	}
	return acc
}

// SavingsTrajectory is the year by year savings of a report's installation.
func (s *Selector) SavingsTrajectory(r InstallationReport) iter.Seq[calc.SavingsYear] {
	return s.projector.Trajectory(r.FirstYearSavings)
}
