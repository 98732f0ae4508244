package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamind-studio/datamind/internal/analysis"
)

func TestSchemaVersionMatchesAnalysis(t *testing.T) {
	assert.Equal(t, analysis.SchemaVersion, SchemaVersion)
}

func TestFamilyOf(t *testing.T) {
	cases := map[string]MetricFamily{
		"Accuracy":         FamilyAccuracy,
		"Model precision":  FamilyAccuracy,
		"RMSE":             FamilyError,
		"mae (validation)": FamilyError,
		"Revenue Growth":   FamilyGeneric,
		"R²":               FamilyGeneric,
	}
	for label, want := range cases {
		assert.Equal(t, want, FamilyOf(label), label)
	}
	assert.Equal(t, "check-circle", FamilyAccuracy.Icon())
	assert.Equal(t, "activity", FamilyError.Icon())
	assert.Equal(t, "info", FamilyGeneric.Icon())
}

func TestColorClass(t *testing.T) {
	assert.Equal(t, "text-emerald-400", ColorClass(analysis.CategorySuccess))
	assert.Equal(t, "text-amber-400", ColorClass(analysis.CategoryWarning))
	assert.Equal(t, "text-red-400", ColorClass(analysis.CategoryError))
	assert.Equal(t, "text-blue-400", ColorClass(analysis.CategoryInfo))
	assert.Equal(t, "text-blue-400", ColorClass("unexpected"))
}

func TestNumericTokens(t *testing.T) {
	assert.Equal(t, []string{"05", "12", "23", "34", "41", "49"}, NumericTokens("05 - 12 - 23 - 34 - 41 - 49"))
	assert.Equal(t, []string{"3", "7", "9"}, NumericTokens("3,7.9"))
	assert.Empty(t, NumericTokens("Revenue Growth"))
	assert.Equal(t, []string{"2"}, NumericTokens("Q2 - 2"))
	assert.False(t, IsNumberSequence("Sales up 12.5"))
	assert.True(t, IsNumberSequence("1 2 3"))
	assert.False(t, IsNumberSequence("NaN NaN NaN"))
}

func TestPredictionViewSequence(t *testing.T) {
	p := analysis.Prediction{
		Label:      "05 - 12 - 23 - 34 - 41 - 49",
		Value:      12.5,
		Confidence: "low",
		Sum:        analysis.IntPtr(164),
		Evens:      analysis.IntPtr(2),
		Odds:       analysis.IntPtr(4),
	}
	v := NewPredictionView(1, p)
	require.True(t, v.IsSequence)
	assert.Equal(t, []string{"05", "12", "23", "34", "41", "49"}, v.Tokens)
	assert.Equal(t, "12.5%", v.Percent)
	require.Len(t, v.Stats, 3)
	assert.Equal(t, StatChip{Name: "Sum", Value: 164, Class: "text-blue-400"}, v.Stats[0])
	assert.Equal(t, "Evens", v.Stats[1].Name)
	assert.Equal(t, "Odds", v.Stats[2].Name)
}

func TestPredictionViewPlainLabel(t *testing.T) {
	v := NewPredictionView(2, analysis.Prediction{Label: "Revenue Growth", Value: 80})
	assert.False(t, v.IsSequence)
	assert.Nil(t, v.Tokens)
	assert.Equal(t, "80%", v.Percent)
	assert.Empty(t, v.Stats)

	v = NewPredictionView(3, analysis.Prediction{Label: "x", Evens: analysis.IntPtr(0)})
	require.Len(t, v.Stats, 1)
	assert.Equal(t, "Evens", v.Stats[0].Name)

	v = NewPredictionView(4, analysis.Prediction{Label: "x", Odds: analysis.IntPtr(3)})
	assert.Empty(t, v.Stats)
}

func sampleResult(points int) *analysis.AnalysisResult {
	res := &analysis.AnalysisResult{
		Code: "import pandas as pd\nprint('ok')\n",
		Metrics: analysis.MetricsBlock{
			Description: "Solid fit.",
			Items: []analysis.MetricItem{
				{Label: "Accuracy", Value: "94%", Type: analysis.CategorySuccess},
				{Label: "RMSE", Value: "1.2", Type: analysis.CategoryWarning, Description: "validation split"},
			},
		},
		Predictions:     []analysis.Prediction{{Label: "Revenue Growth", Value: 70}},
		Recommendations: []string{"Collect more data", "Retrain monthly", "Watch seasonality"},
	}
	for i := 0; i < points; i++ {
		pt := analysis.ChartDataPoint{Name: fmt.Sprintf("t%d", i)}
		if i < points-2 {
			pt.Historical = analysis.FloatPtr(float64(i))
		} else {
			pt.Prediction = analysis.FloatPtr(float64(i) + 0.5)
		}
		res.ChartData = append(res.ChartData, pt)
	}
	return res
}

func TestNewDashboard(t *testing.T) {
	d := NewDashboard(sampleResult(10))
	assert.Equal(t, "Solid fit.", d.Summary)
	require.Len(t, d.Cards, 2)
	assert.Equal(t, FamilyAccuracy, d.Cards[0].Family)
	assert.Equal(t, "text-amber-400", d.Cards[1].ColorClass)
	require.Len(t, d.Recommendations, 3)
	assert.Equal(t, Recommendation{N: 2, Text: "Retrain monthly"}, d.Recommendations[1])
	assert.Equal(t, CodeFileName, d.Code.FileName)
	assert.Equal(t, 3, d.Code.Lines)
	assert.Equal(t, ChartView{Points: 10, HasHistorical: true, HasPrediction: true}, d.Chart)

	empty := NewDashboard(nil)
	assert.Empty(t, empty.Cards)
	assert.Equal(t, 0, empty.Code.Lines)
}

func TestDenseThreshold(t *testing.T) {
	assert.False(t, NewDashboard(sampleResult(DenseThreshold)).Chart.Dense)
	assert.True(t, NewDashboard(sampleResult(DenseThreshold+1)).Chart.Dense)
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, sampleResult(60).ChartData, ChartOptions{Title: "Sales"}))
	out := buf.String()
	assert.Contains(t, out, HistoricalSeries)
	assert.Contains(t, out, PredictionSeries)
	assert.Contains(t, out, "slider")
	assert.Contains(t, out, `"t59"`)
	assert.Contains(t, out, `"-"`)
}

func TestChartMarkers(t *testing.T) {
	symbols := func(n int) map[string]bool {
		out := map[string]bool{}
		for _, s := range Chart(sampleResult(n).ChartData, ChartOptions{}).MultiSeries {
			require.NotNil(t, s.ShowSymbol, s.Name)
			out[s.Name] = *s.ShowSymbol
		}
		return out
	}
	assert.Equal(t, map[string]bool{HistoricalSeries: true, PredictionSeries: true}, symbols(DenseThreshold))
	assert.Equal(t, map[string]bool{HistoricalSeries: false, PredictionSeries: true}, symbols(DenseThreshold+1))
}

func TestIsNumericToken(t *testing.T) {
	for tok, want := range map[string]bool{
		"42":        true,
		"007":       true,
		"+3":        true,
		"1e5":       true,
		"1e500":     true,
		"Infinity":  true,
		"+Infinity": true,
		"0x1F":      true,
		"0o17":      true,
		"0B101":     true,
		"0x1p3":     false,
		"+0x10":     false,
		"0b102":     false,
		"1_000":     false,
		"inf":       false,
		"infinity":  false,
		"NaN":       false,
		"+-1":       false,
		"Q2":        false,
		"":          false,
	} {
		assert.Equal(t, want, isNumericToken(tok), tok)
	}
}

func TestWriteText(t *testing.T) {
	res := sampleResult(4)
	res.Predictions = append(res.Predictions, analysis.Prediction{
		Label: "1-2-3", Value: 5, Sum: analysis.IntPtr(6),
	})
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, NewDashboard(res), TextOptions{IncludeCode: true, IncludeChart: true}))
	out := buf.String()
	for _, want := range []string{
		"Solid fit.",
		"RMSE",
		"(validation split)",
		"#1 Revenue Growth  70%",
		"#2 [1] [2] [3]  5%",
		"Sum: 6",
		"3. Watch seasonality",
		"4 points",
		"== analysis_script.py ==",
	} {
		assert.True(t, strings.Contains(out, want), "missing %q in:\n%s", want, out)
	}
}
