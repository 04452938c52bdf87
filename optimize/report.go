package optimize

import (
	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/types/maybe"
)

// FinancingOption holds the monthly installments for one loan term. An
// installment is absent when it can't be financed, e.g. a non-positive net cost.
type FinancingOption struct {
	Term                 catalog.Term
	ListPriceInstallment maybe.Maybe[float64]
	NetCostInstallment   maybe.Maybe[float64]
}

type InstallationReport struct {
	Capacity              catalog.Capacity
	ListPrice             float64
	NetCost               float64
	Tax                   float64
	Subsidy               float64
	FirstYearSavings      float64
	CumulativeSavings     float64
	AverageMonthlySavings float64
	YearsToBreakEven      int
	NetCostAnomaly        bool              // Net cost <= 0, the subsidy covers the pre-tax price
	Financing             []FinancingOption // Ordered by term
}

func (r InstallationReport) FinancingFor(term catalog.Term) (FinancingOption, bool) {
	for _, f := range r.Financing {
		if f.Term == term {
			return f, true
		}
	}
	return FinancingOption{}, false
}

// Selection is the outcome of a search over all capacities. Best is the
// largest affordable installation and NextLower the affordable one found before it.
type Selection struct {
	Best      maybe.Maybe[InstallationReport]
	NextLower maybe.Maybe[InstallationReport]
	Reports   []InstallationReport // One per capacity that breaks even, ascending
}
