package analysis

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResult = `{
  "pythonCode": "import pandas as pd\nprint('ok')",
  "metrics": {"description": "Stable fit", "items": [
    {"label": "Accuracy", "value": "91%", "type": "success"},
    {"label": "RMSE", "value": "2.4", "type": "warning", "description": "lower is better"}
  ]},
  "predictions": [
    {"label": "5 - 12 - 23 - 34 - 41 - 49", "value": 12.5, "confidence": "High", "sum": 164, "evens": 2.0, "odds": 4},
    {"label": "Revenue Growth", "value": 7}
  ],
  "chartData": [
    {"name": "Jan", "historical": 10, "prediction": null},
    {"name": "Feb", "prediction": 12.5},
    {"name": "Mar"}
  ],
  "recommendations": ["a", "b", "c"]
}`

func TestDecodeAnalysisResult(t *testing.T) {
	var res AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(sampleResult), &res))

	assert.Contains(t, res.Code, "import pandas")
	require.Len(t, res.Metrics.Items, 2)
	assert.Equal(t, CategoryWarning, res.Metrics.Items[1].Type)
	assert.Equal(t, "lower is better", res.Metrics.Items[1].Description)

	require.Len(t, res.Predictions, 2)
	draw := res.Predictions[0]
	require.NotNil(t, draw.Sum)
	require.NotNil(t, draw.Evens)
	require.NotNil(t, draw.Odds)
	assert.Equal(t, 164, *draw.Sum)
	assert.Equal(t, 2, *draw.Evens)
	assert.Equal(t, 4, *draw.Odds)
	assert.Equal(t, "High", draw.Confidence)

	plain := res.Predictions[1]
	assert.Nil(t, plain.Sum)
	assert.Nil(t, plain.Evens)
	assert.Nil(t, plain.Odds)

	require.Len(t, res.ChartData, 3)
	require.NotNil(t, res.ChartData[0].Historical)
	assert.Nil(t, res.ChartData[0].Prediction)
	assert.Nil(t, res.ChartData[1].Historical)
	assert.Equal(t, 12.5, *res.ChartData[1].Prediction)
	assert.Nil(t, res.ChartData[2].Historical)
	assert.Len(t, res.Recommendations, 3)
}

func TestDecodePredictionRejectsFractionalStats(t *testing.T) {
	var p Prediction
	err := json.Unmarshal([]byte(`{"label":"1 - 2 - 3","value":1,"sum":6.5}`), &p)
	assert.Error(t, err)
}

func TestDecodeTypeMismatchFails(t *testing.T) {
	var res AnalysisResult
	err := json.Unmarshal([]byte(`{"pythonCode": 42}`), &res)
	assert.Error(t, err)
}

func TestResponseSchemaContract(t *testing.T) {
	s := ResponseSchema()
	assert.Equal(t, TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"pythonCode", "metrics", "predictions", "chartData", "recommendations"}, s.Required)

	metrics := s.Properties["metrics"]
	require.NotNil(t, metrics)
	assert.ElementsMatch(t, []string{"description", "items"}, metrics.Required)
	item := metrics.Properties["items"].Items
	assert.ElementsMatch(t, []string{"label", "value", "type"}, item.Required)
	assert.Equal(t, []string{"success", "warning", "info", "error"}, item.Properties["type"].Enum)

	pred := s.Properties["predictions"].Items
	assert.ElementsMatch(t, []string{"label", "value"}, pred.Required)
	for _, k := range []string{"sum", "evens", "odds"} {
		assert.Equal(t, TypeNumber, pred.Properties[k].Type, k)
	}

	point := s.Properties["chartData"].Items
	assert.Equal(t, []string{"name"}, point.Required)
	assert.True(t, point.Properties["historical"].Nullable)
	assert.True(t, point.Properties["prediction"].Nullable)

	// every declared property appears in the ordering
	for _, sch := range []*Schema{s, metrics, item, pred, point} {
		assert.Len(t, sch.PropertyOrdering, len(sch.Properties))
	}
}

func TestResponseSchemaFreshCopy(t *testing.T) {
	a := ResponseSchema()
	a.Required = nil
	assert.NotEmpty(t, ResponseSchema().Required)
}

func TestResponseSchemaMatchesResultFields(t *testing.T) {
	// a fully populated result must encode to exactly the schema's top-level keys
	res := AnalysisResult{
		Predictions: []Prediction{{Label: "x", Sum: IntPtr(1), Evens: IntPtr(1), Odds: IntPtr(0), Confidence: "c"}},
		ChartData:   []ChartDataPoint{{Name: "p", Historical: FloatPtr(1), Prediction: FloatPtr(2)}},
	}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &top))
	for k := range top {
		assert.Contains(t, ResponseSchema().Properties, k)
	}
	var preds []map[string]any
	require.NoError(t, json.Unmarshal(top["predictions"], &preds))
	for k := range preds[0] {
		assert.Contains(t, ResponseSchema().Properties["predictions"].Items.Properties, k)
	}
}
