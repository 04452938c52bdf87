package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/solarquote-go/calc"
	"github.com/angas/solarquote-go/catalog"
)

type PriceRow struct {
	Capacity catalog.Capacity
	Price    float64
}

type RateRow struct {
	Term catalog.Term
	Rate float64
}

// SysInfo describes the running instance and the tables it quotes with.
type SysInfo struct {
	Version   string
	StartedAt time.Time
	Prices    []PriceRow
	Rates     []RateRow
	Savings   calc.SavingsProjector
}

func NewSysInfo(version string, c catalog.Catalog, rates catalog.RateTable, projector calc.SavingsProjector) SysInfo {
	info := SysInfo{Version: version, StartedAt: time.Now(), Savings: projector}
	for _, capacity := range c.Capacities() {
		price, _ := c.Price(capacity)
		info.Prices = append(info.Prices, PriceRow{Capacity: capacity, Price: price})
	}
	for _, term := range rates.Terms() {
		rate, _ := rates.Rate(term)
		info.Rates = append(info.Rates, RateRow{Term: term, Rate: rate})
	}
	return info
}

func NewSysInfoHandler(logger *slog.Logger, tm *TemplateManager, sysInfo SysInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		render(w, logger, tm, "sys_info.html", sysInfo, http.StatusOK)
	}
}
