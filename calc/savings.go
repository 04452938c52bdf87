package calc

import (
	"errors"
	"fmt"
	"iter"

	"github.com/angas/solarquote-go/convert"
)

var ErrNoBreakEven = errors.New("no break-even within projection horizon")

const (
	DefaultEscalationRatePct = 5.0  // Yearly electricity price increase in percent
	DefaultUnitPrice         = 0.23 // Electricity price in EUR/kWh
	DefaultMaxYears          = 100
)

// SavingsYear is one step of the savings trajectory.
type SavingsYear struct {
	Year       int
	Savings    float64 // Savings during this year
	Cumulative float64 // Savings accumulated up to and including this year
}

type SavingsProjection struct {
	FirstYearSavings      float64
	CumulativeSavings     float64
	AverageMonthlySavings float64
	YearsToBreakEven      int
}

type SavingsProjector struct {
	EscalationRatePct float64
	UnitPrice         float64
	// Upper bound of simulated years, zero means unbounded.
	// A zero yield never breaks even.
	MaxYears int
}

func DefaultSavingsProjector() SavingsProjector {
	return SavingsProjector{
		EscalationRatePct: DefaultEscalationRatePct,
		UnitPrice:         DefaultUnitPrice,
		MaxYears:          DefaultMaxYears,
	}
}

// FirstYearSavings is the value of the energy produced during the first year.
func (p SavingsProjector) FirstYearSavings(annualYieldPerKW, capacity float64) float64 {
	return convert.TwoDecimals(annualYieldPerKW * capacity * p.UnitPrice)
}

// Trajectory yields the savings year after year, starting with year 1, with
// the yearly savings escalated by EscalationRatePct. The sequence is infinite
// and can be ranged over any number of times.
func (p SavingsProjector) Trajectory(firstYearSavings float64) iter.Seq[SavingsYear] {
	return func(yield func(SavingsYear) bool) {
		savings := firstYearSavings
		cumulative := 0.0
		for year := 1; ; year++ {
			cumulative = convert.TwoDecimals(cumulative + savings)
			if !yield(SavingsYear{Year: year, Savings: savings, Cumulative: cumulative}) {
				return
			}
			savings = convert.TwoDecimals(savings * (1 + p.EscalationRatePct/100))
		}
	}
}

// Project runs the trajectory until the cumulative savings cover netCost.
// At least one year is always accounted for, also when netCost <= 0.
func (p SavingsProjector) Project(annualYieldPerKW, capacity, netCost float64) (SavingsProjection, error) {
	first := p.FirstYearSavings(annualYieldPerKW, capacity)
	if !(first > 0) && netCost > 0 {
		return SavingsProjection{}, fmt.Errorf("net cost %.2f with first year savings %.2f: %w", netCost, first, ErrNoBreakEven)
	}

	var last SavingsYear
	brokeEven := false
	for y := range p.Trajectory(first) {
		last = y
		if y.Cumulative >= netCost {
			brokeEven = true
			break
		}
		if p.MaxYears > 0 && y.Year >= p.MaxYears {
			break
		}
	}

	if !brokeEven {
		return SavingsProjection{}, fmt.Errorf("net cost %.2f after %d years: %w", netCost, last.Year, ErrNoBreakEven)
	}

	return SavingsProjection{
		FirstYearSavings:      first,
		CumulativeSavings:     last.Cumulative,
		AverageMonthlySavings: convert.TwoDecimals(last.Cumulative / float64(last.Year*12)),
		YearsToBreakEven:      last.Year,
	}, nil
}
