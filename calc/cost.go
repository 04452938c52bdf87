package calc

import (
	"fmt"
	"strings"

	"github.com/angas/solarquote-go/catalog"
	"github.com/shopspring/decimal"
)

// ConnectionType is the grid connection of the household.
type ConnectionType string

const (
	ConnectionSinglePhase ConnectionType = "monophase"
	ConnectionThreePhase  ConnectionType = "triphase"
)

func ParseConnectionType(s string) (ConnectionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monophase", "single-phase":
		return ConnectionSinglePhase, nil
	case "triphase", "three-phase", "other":
		return ConnectionThreePhase, nil
	default:
		return "", fmt.Errorf("unknown connection type %q", s)
	}
}

const (
	vatExemptMaxCapacity  = 3   // kW, up to this capacity the list price carries no VAT
	subsidyCapSinglePhase = 6   // kW, subsidized capacity limit on single-phase connections
	subsidyPerKWSmall     = 220 // EUR per kW up to vatExemptMaxCapacity
	subsidyPerKWLarge     = 160 // EUR per kW above vatExemptMaxCapacity
	vatRatePct            = 20
)

var vatFactor = decimal.NewFromInt(100 + vatRatePct).Div(decimal.NewFromInt(100))

// CostBreakdown is the real cost of an installation after VAT and subsidy,
// amounts in whole EUR except PreTax.
type CostBreakdown struct {
	PreTax  float64
	NetCost float64 // May be negative if the subsidy exceeds the pre-tax price
	Tax     float64
	Subsidy float64
}

// ResolveCost derives VAT, subsidy (prime) and net cost for a tax-inclusive list price.
func ResolveCost(listPrice float64, capacity catalog.Capacity, conn ConnectionType) CostBreakdown {
	price := decimal.NewFromFloat(listPrice)
	kw := decimal.NewFromInt(int64(capacity))

	preTax := price
	tax := decimal.Zero
	if capacity > vatExemptMaxCapacity {
		preTax = price.Div(vatFactor)
		tax = price.Sub(preTax).RoundBank(0)
	}

	var subsidy decimal.Decimal
	if capacity <= vatExemptMaxCapacity {
		subsidy = kw.Mul(decimal.NewFromInt(subsidyPerKWSmall))
	} else {
		subsidized := capacity
		if conn == ConnectionSinglePhase {
			subsidized = min(capacity, subsidyCapSinglePhase)
		}
		subsidy = decimal.NewFromInt(int64(subsidized) * subsidyPerKWLarge)
	}

	return CostBreakdown{
		PreTax:  preTax.Round(2).InexactFloat64(),
		NetCost: preTax.Sub(subsidy).RoundBank(0).InexactFloat64(),
		Tax:     tax.InexactFloat64(),
		Subsidy: subsidy.InexactFloat64(),
	}
}
