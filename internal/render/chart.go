package render

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/datamind-studio/datamind/internal/analysis"
)

// DenseThreshold is the point count above which historical markers are hidden.
const DenseThreshold = 50

const (
	HistoricalSeries = "Historical data"
	PredictionSeries = "AI trend"

	historicalColor = "#3b82f6"
	predictionColor = "#10b981"

	// echarts draws a gap for "-".
	missingValue = "-"
)

// ChartOptions tunes the rendered chart page.
type ChartOptions struct {
	Title  string
	Height string
	Theme  string
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Title == "" {
		o.Title = "Trend analysis"
	}
	if o.Height == "" {
		o.Height = "420px"
	}
	if o.Theme == "" {
		o.Theme = "dark"
	}
	return o
}

// Chart builds the dual-line chart with a zoom slider under the plot. Points
// keep their order; an absent value leaves a gap in its series.
func Chart(points []analysis.ChartDataPoint, o ChartOptions) *charts.Line {
	o = o.withDefaults()
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: o.Title,
			Width:     "100%",
			Height:    o.Height,
			Theme:     o.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    o.Title,
			Subtitle: "Use the slider under the chart to zoom into specific periods.",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)

	names := make([]string, 0, len(points))
	hist := make([]opts.LineData, 0, len(points))
	pred := make([]opts.LineData, 0, len(points))
	var histValues []float64
	for _, pt := range points {
		names = append(names, pt.Name)
		hist = append(hist, lineValue(pt.Historical))
		pred = append(pred, lineValue(pt.Prediction))
		if pt.Historical != nil {
			histValues = append(histValues, *pt.Historical)
		}
	}

	line.SetXAxis(names)
	histOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(len(points) <= DenseThreshold),
		}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: historicalColor, Width: 3}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: historicalColor}),
	}
	if len(histValues) > 0 {
		histOpts = append(histOpts, charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{
			Name:  "Mean",
			YAxis: stat.Mean(histValues, nil),
		}))
	}
	line.AddSeries(HistoricalSeries, hist, histOpts...)
	// prediction markers stay visible at any density
	line.AddSeries(PredictionSeries, pred,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
			SymbolSize: 8,
		}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: predictionColor, Width: 3, Type: "dashed"}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: predictionColor}),
	)
	return line
}

// RenderChart writes a standalone chart page.
func RenderChart(w io.Writer, points []analysis.ChartDataPoint, o ChartOptions) error {
	return Chart(points, o).Render(w)
}

func lineValue(v *float64) opts.LineData {
	if v == nil {
		return opts.LineData{Value: missingValue}
	}
	return opts.LineData{Value: *v}
}
