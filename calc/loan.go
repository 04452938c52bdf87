package calc

import (
	"errors"
	"fmt"
	"math"

	"github.com/angas/solarquote-go/catalog"
	"github.com/angas/solarquote-go/convert"
)

var ErrInvalidPrincipal = errors.New("principal must be positive")

// Amortizer computes fixed monthly installments from the rate table.
type Amortizer struct {
	rates catalog.RateTable
}

func NewAmortizer(rates catalog.RateTable) Amortizer {
	return Amortizer{rates: rates}
}

// MonthlyPayment returns the installment, rounded to cents, that repays principal
// over term months at the table's annual rate for that term.
func (a Amortizer) MonthlyPayment(principal float64, term catalog.Term) (float64, error) {
	rate, err := a.rates.Rate(term)
	if err != nil {
		return 0, err
	}
	if principal <= 0 {
		return 0, fmt.Errorf("%.2f: %w", principal, ErrInvalidPrincipal)
	}

	n := float64(term)
	monthlyRate := rate / 100 / 12
	if monthlyRate == 0 {
		return convert.TwoDecimals(principal / n), nil
	}

	return convert.TwoDecimals(principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -n))), nil
}
