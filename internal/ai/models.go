package ai

import (
	"os"

	"github.com/goccy/go-json"
)

// Model metadata and simple pricing helpers for UX warnings.
// Prices are illustrative and should be verified against Google AI pricing.

type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gemini-3-pro-preview": {
		Name:          "gemini-3-pro-preview",
		ContextTokens: 1048576,
		InputPerK:     0.002,
		OutputPerK:    0.012,
	},
	"gemini-2.5-pro": {
		Name:          "gemini-2.5-pro",
		ContextTokens: 1048576,
		InputPerK:     0.00125,
		OutputPerK:    0.01,
	},
	"gemini-2.5-flash": {
		Name:          "gemini-2.5-flash",
		ContextTokens: 1048576,
		InputPerK:     0.0003,
		OutputPerK:    0.0025,
	},
	"gemini-2.0-flash": {
		Name:          "gemini-2.0-flash",
		ContextTokens: 1048576,
		InputPerK:     0.0001,
		OutputPerK:    0.0004,
	},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// FitsContext reports whether promptTokens fits the model's window. Unknown
// models are assumed to fit.
func FitsContext(model string, promptTokens int) bool {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= 0 {
		return true
	}
	return promptTokens <= mi.ContextTokens
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		models[k] = v
	}
}

// Catalog returns a shallow copy of the current model catalog.
func Catalog() map[string]ModelInfo {
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		out[k] = v
	}
	return out
}

// OverrideCatalog replaces the in-memory catalog.
func OverrideCatalog(m map[string]ModelInfo) {
	models = make(map[string]ModelInfo, len(m))
	for k, v := range m {
		models[k] = v
	}
}
