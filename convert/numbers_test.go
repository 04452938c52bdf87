package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTwoDecimals(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 1.234, want: 1.23},
		{in: 1.235, want: 1.24},
		{in: -1.236, want: -1.24},
		{in: 717.6, want: 717.6},
		{in: 0, want: 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, TwoDecimals(tt.in), 1e-9, "TwoDecimals(%v)", tt.in)
	}
}

func TestRoundFloat64(t *testing.T) {
	assert.InDelta(t, 3.1416, RoundFloat64(3.14159265, 4), 1e-12)
	assert.InDelta(t, 17417.0, RoundFloat64(17416.6667, 0), 1e-12)
}
