package analysis

import "strings"

// ModelType names a modeling technique the generated script should train.
// The string value is embedded verbatim in the instruction text.
type ModelType string

const (
	ModelLinearRegression     ModelType = "Linear Regression"
	ModelPolynomialRegression ModelType = "Polynomial Regression"
	ModelDecisionTrees        ModelType = "Decision Trees"
	ModelNeuralNetworks       ModelType = "Neural Networks (ANN)"
	ModelSVM                  ModelType = "Support Vector Machines (SVM)"
)

// MetricType names an evaluation metric the generated script should compute.
type MetricType string

const (
	MetricAccuracy  MetricType = "Accuracy"
	MetricMSE       MetricType = "Mean Squared Error (MSE)"
	MetricRMSE      MetricType = "Root Mean Squared Error (RMSE)"
	MetricMAE       MetricType = "Mean Absolute Error (MAE)"
	MetricR2        MetricType = "R-Squared (R²)"
	MetricF1        MetricType = "F1 Score"
	MetricPrecision MetricType = "Precision"
	MetricRecall    MetricType = "Recall"
)

// Option is a selectable catalog entry.
type Option[T ~string] struct {
	ID    string `json:"id"`
	Value T      `json:"value"`
	Hint  string `json:"hint,omitempty"`
}

var models = []Option[ModelType]{
	{ID: "linear", Value: ModelLinearRegression, Hint: "trend fit on a single target"},
	{ID: "polynomial", Value: ModelPolynomialRegression, Hint: "curved trends"},
	{ID: "trees", Value: ModelDecisionTrees, Hint: "rule-based splits, handles categories"},
	{ID: "ann", Value: ModelNeuralNetworks, Hint: "non-linear patterns, needs more data"},
	{ID: "svm", Value: ModelSVM, Hint: "margin-based regression or classification"},
}

var metrics = []Option[MetricType]{
	{ID: "accuracy", Value: MetricAccuracy},
	{ID: "mse", Value: MetricMSE},
	{ID: "rmse", Value: MetricRMSE},
	{ID: "mae", Value: MetricMAE},
	{ID: "r2", Value: MetricR2},
	{ID: "f1", Value: MetricF1},
	{ID: "precision", Value: MetricPrecision},
	{ID: "recall", Value: MetricRecall},
}

// exposed metric ids offered in the studio form
var exposedMetrics = map[string]bool{
	"accuracy": true, "mse": true, "rmse": true, "mae": true, "r2": true, "f1": true,
}

// Models returns every selectable model option.
func Models() []Option[ModelType] {
	return append([]Option[ModelType](nil), models...)
}

// Metrics returns every defined metric option.
func Metrics() []Option[MetricType] {
	return append([]Option[MetricType](nil), metrics...)
}

// ExposedMetrics returns the metric options offered in the studio form.
func ExposedMetrics() []Option[MetricType] {
	var out []Option[MetricType]
	for _, m := range metrics {
		if exposedMetrics[m.ID] {
			out = append(out, m)
		}
	}
	return out
}

// DefaultModels and DefaultMetrics seed a fresh studio form.
func DefaultModels() []ModelType { return []ModelType{ModelLinearRegression} }

func DefaultMetrics() []MetricType { return []MetricType{MetricAccuracy, MetricMSE} }

// DefaultGoal pre-fills the goal field.
const DefaultGoal = "Analyze trends and predict future values."

// LookupModel resolves an option id or display name, case-insensitively.
func LookupModel(s string) (ModelType, bool) {
	return lookup(models, s)
}

// LookupMetric resolves an option id or display name, case-insensitively.
func LookupMetric(s string) (MetricType, bool) {
	return lookup(metrics, s)
}

func lookup[T ~string](opts []Option[T], s string) (T, bool) {
	s = strings.TrimSpace(s)
	for _, o := range opts {
		if strings.EqualFold(o.ID, s) || strings.EqualFold(string(o.Value), s) {
			return o.Value, true
		}
	}
	var zero T
	return zero, false
}

// Toggle adds v to sel when absent and removes it when present, keeping
// insertion order.
func Toggle[T comparable](sel []T, v T) []T {
	for i, x := range sel {
		if x == v {
			return append(append([]T(nil), sel[:i]...), sel[i+1:]...)
		}
	}
	return append(append([]T(nil), sel...), v)
}
