package chartjs

import (
	"fmt"
	"math"
)

const (
	ColorYellow = "#ffc107d4"
	ColorRed    = "#f44336d4"
	ColorGreen  = "#4caf50d4"
)

const (
	AxisAmount = "YAxis1"
	AxisAnnual = "YAxis2"
)

// YearLabels returns "Year 1" to "Year n".
func YearLabels(n int) []string {
	labels := make([]string, n)
	for i := range n {
		labels[i] = fmt.Sprintf("Year %d", i+1)
	}
	return labels
}

// NewChart returns a line chart with an amount axis on the left and an
// annual amount axis on the right, without datasets.
func NewChart(title string, labels []string) Chart {
	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: true},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				AxisAmount: {
					Type:        "linear",
					Display:     true,
					Position:    "left",
					BeginAtZero: true,
					Title:       ChartScaleTitle{Display: true, Text: "", Color: ColorYellow}},
				AxisAnnual: {
					Type:        "linear",
					Display:     true,
					Position:    "right",
					BeginAtZero: true,
					Title:       ChartScaleTitle{Display: true, Text: "", Color: ColorGreen},
					Grid:        &ChartGrid{DrawOnChartArea: false}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// NewDataset returns an empty dataset sized to the chart's labels.
func (c Chart) NewDataset(label, color, axis string) ChartDataset {
	return ChartDataset{
		Label:       label,
		Data:        make([]*float64, len(c.Data.Labels)),
		BorderWidth: 2,
		Tension:     0.3,
		PointRadius: 2,
		BorderColor: color,
		YAxisID:     axis,
	}
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	p := math.Pow(10, float64(precision))
	result := math.Round(num*p) / p
	return &result
}
