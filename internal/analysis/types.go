package analysis

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// MetricCategory is the severity tag the model attaches to each metric.
type MetricCategory string

const (
	CategorySuccess MetricCategory = "success"
	CategoryWarning MetricCategory = "warning"
	CategoryInfo    MetricCategory = "info"
	CategoryError   MetricCategory = "error"
)

// Categories lists the tags allowed by the response schema.
var Categories = []MetricCategory{CategorySuccess, CategoryWarning, CategoryInfo, CategoryError}

// AnalysisResult is the full payload returned by one analysis run. It is
// produced wholesale and never patched in place.
type AnalysisResult struct {
	Code            string           `json:"pythonCode"`
	Metrics         MetricsBlock     `json:"metrics"`
	Predictions     []Prediction     `json:"predictions"`
	ChartData       []ChartDataPoint `json:"chartData"`
	Recommendations []string         `json:"recommendations"`
}

// MetricsBlock pairs a performance summary with individual KPI items.
type MetricsBlock struct {
	Description string       `json:"description"`
	Items       []MetricItem `json:"items"`
}

type MetricItem struct {
	Label       string         `json:"label"`
	Value       string         `json:"value"`
	Type        MetricCategory `json:"type"`
	Description string         `json:"description,omitempty"`
}

// Prediction is one ranked candidate. For draw data the label is the
// hyphen-joined number sequence and Sum/Evens/Odds describe it; a nil stat
// means the model did not report it.
type Prediction struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Confidence string  `json:"confidence,omitempty"`
	Sum        *int    `json:"sum,omitempty"`
	Evens      *int    `json:"evens,omitempty"`
	Odds       *int    `json:"odds,omitempty"`
}

// UnmarshalJSON accepts whole-valued floats (12.0) for the integer stats,
// since the schema only types them as numbers.
func (p *Prediction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label      string   `json:"label"`
		Value      float64  `json:"value"`
		Confidence string   `json:"confidence"`
		Sum        *float64 `json:"sum"`
		Evens      *float64 `json:"evens"`
		Odds       *float64 `json:"odds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Prediction{Label: raw.Label, Value: raw.Value, Confidence: raw.Confidence}
	var err error
	if out.Sum, err = wholeNumber("sum", raw.Sum); err != nil {
		return err
	}
	if out.Evens, err = wholeNumber("evens", raw.Evens); err != nil {
		return err
	}
	if out.Odds, err = wholeNumber("odds", raw.Odds); err != nil {
		return err
	}
	*p = out
	return nil
}

func wholeNumber(field string, f *float64) (*int, error) {
	if f == nil {
		return nil, nil
	}
	if math.IsNaN(*f) || math.IsInf(*f, 0) || *f != math.Trunc(*f) {
		return nil, fmt.Errorf("prediction %s: %v is not a whole number", field, *f)
	}
	n := int(*f)
	return &n, nil
}

// ChartDataPoint is one x-axis category. Either series value may be absent.
type ChartDataPoint struct {
	Name       string   `json:"name"`
	Historical *float64 `json:"historical"`
	Prediction *float64 `json:"prediction"`
}

// IntPtr and FloatPtr build optional values for literals and tests.
func IntPtr(n int) *int { return &n }

func FloatPtr(f float64) *float64 { return &f }
