// Package render turns an analysis result into view models for the studio
// page, an interactive chart, and plain text. Nothing here performs I/O
// beyond writing to a caller-supplied writer.
package render

import (
	"strconv"
	"strings"

	"github.com/datamind-studio/datamind/internal/analysis"
)

// SchemaVersion is the response contract this renderer understands.
const SchemaVersion = "1"

// CodeFileName is the download name of the generated script.
const CodeFileName = "analysis_script.py"

// Status is the run state shown by the studio.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Dashboard is the complete view model for one result.
type Dashboard struct {
	Summary         string
	Cards           []KPICard
	Predictions     []PredictionView
	Recommendations []Recommendation
	Code            CodeView
	Chart           ChartView
}

type Recommendation struct {
	N    int
	Text string
}

type CodeView struct {
	FileName string
	Source   string
	Lines    int
}

// ChartView summarizes the chart without building it.
type ChartView struct {
	Points        int
	Dense         bool
	HasHistorical bool
	HasPrediction bool
}

// NewDashboard builds the view model. A nil result yields an empty dashboard.
func NewDashboard(res *analysis.AnalysisResult) *Dashboard {
	d := &Dashboard{Code: CodeView{FileName: CodeFileName}}
	if res == nil {
		return d
	}
	d.Summary = res.Metrics.Description
	for _, it := range res.Metrics.Items {
		d.Cards = append(d.Cards, NewKPICard(it))
	}
	for i, p := range res.Predictions {
		d.Predictions = append(d.Predictions, NewPredictionView(i+1, p))
	}
	for i, r := range res.Recommendations {
		d.Recommendations = append(d.Recommendations, Recommendation{N: i + 1, Text: r})
	}
	d.Code.Source = res.Code
	if res.Code != "" {
		d.Code.Lines = strings.Count(res.Code, "\n") + 1
	}
	d.Chart = ChartView{Points: len(res.ChartData), Dense: len(res.ChartData) > DenseThreshold}
	for _, pt := range res.ChartData {
		if pt.Historical != nil {
			d.Chart.HasHistorical = true
		}
		if pt.Prediction != nil {
			d.Chart.HasPrediction = true
		}
	}
	return d
}

// formatNumber drops a trailing ".0" so 12 renders as "12" and 12.5 as "12.5".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
