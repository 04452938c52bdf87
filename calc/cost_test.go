package calc

import (
	"testing"

	"github.com/angas/solarquote-go/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCost(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		capacity catalog.Capacity
		conn     ConnectionType
		want     CostBreakdown
	}{
		{
			name:     "6 kW single-phase",
			price:    20900,
			capacity: 6,
			conn:     ConnectionSinglePhase,
			want:     CostBreakdown{PreTax: 17416.67, NetCost: 16457, Tax: 3483, Subsidy: 960},
		},
		{
			name:     "3 kW is VAT exempt",
			price:    12900,
			capacity: 3,
			conn:     ConnectionThreePhase,
			want:     CostBreakdown{PreTax: 12900, NetCost: 12240, Tax: 0, Subsidy: 660},
		},
		{
			name:     "4 kW",
			price:    16900,
			capacity: 4,
			conn:     ConnectionSinglePhase,
			want:     CostBreakdown{PreTax: 14083.33, NetCost: 13443, Tax: 2817, Subsidy: 640},
		},
		{
			name:     "9 kW three-phase",
			price:    25900,
			capacity: 9,
			conn:     ConnectionThreePhase,
			want:     CostBreakdown{PreTax: 21583.33, NetCost: 20143, Tax: 4317, Subsidy: 1440},
		},
		{
			name:     "subsidy above pre-tax price",
			price:    500,
			capacity: 3,
			conn:     ConnectionSinglePhase,
			want:     CostBreakdown{PreTax: 500, NetCost: -160, Tax: 0, Subsidy: 660},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCost(tt.price, tt.capacity, tt.conn)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCostIgnoresConnectionUpTo3KW(t *testing.T) {
	for _, capacity := range []catalog.Capacity{1, 2, 3} {
		mono := ResolveCost(10000, capacity, ConnectionSinglePhase)
		tri := ResolveCost(10000, capacity, ConnectionThreePhase)
		assert.Equal(t, mono, tri, "%d kW", capacity)
		assert.Equal(t, float64(220*capacity), mono.Subsidy)
	}
}

func TestResolveCostSinglePhaseSubsidyCap(t *testing.T) {
	for _, capacity := range []catalog.Capacity{7, 8, 9, 10, 12} {
		mono := ResolveCost(30000, capacity, ConnectionSinglePhase)
		assert.Equal(t, 960.0, mono.Subsidy, "%d kW single-phase", capacity)

		tri := ResolveCost(30000, capacity, ConnectionThreePhase)
		assert.Equal(t, float64(160*capacity), tri.Subsidy, "%d kW three-phase", capacity)
	}
}

func TestResolveCostNonNegativeTaxAndSubsidy(t *testing.T) {
	c := catalog.DefaultCatalog()
	for _, capacity := range c.Capacities() {
		price, err := c.Price(capacity)
		require.NoError(t, err)
		for _, conn := range []ConnectionType{ConnectionSinglePhase, ConnectionThreePhase} {
			b := ResolveCost(price, capacity, conn)
			assert.GreaterOrEqual(t, b.Tax, 0.0)
			assert.GreaterOrEqual(t, b.Subsidy, 0.0)
			assert.GreaterOrEqual(t, b.NetCost, 0.0)
		}
	}
}

func TestParseConnectionType(t *testing.T) {
	for in, want := range map[string]ConnectionType{
		"monophase":    ConnectionSinglePhase,
		"single-phase": ConnectionSinglePhase,
		" MONOPHASE ":  ConnectionSinglePhase,
		"triphase":     ConnectionThreePhase,
		"other":        ConnectionThreePhase,
	} {
		got, err := ParseConnectionType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseConnectionType("biphase")
	assert.Error(t, err)
}
