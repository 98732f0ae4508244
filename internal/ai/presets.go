package ai

import "strings"

// Tiers accepted by RecommendModel.
const (
	TierCheap    = "cheap"
	TierBalanced = "balanced"
	TierBest     = "best"
)

var tierModels = map[string]string{
	TierCheap:    "gemini-2.0-flash",
	TierBalanced: "gemini-2.5-flash",
	TierBest:     "gemini-3-pro-preview",
}

// RecommendModel returns the Gemini model for a tier (cheap|balanced|best).
func RecommendModel(tier string) (string, bool) {
	name, ok := tierModels[strings.ToLower(strings.TrimSpace(tier))]
	return name, ok
}

// Tiers lists the known tier names in ascending cost.
func Tiers() []string {
	return []string{TierCheap, TierBalanced, TierBest}
}
