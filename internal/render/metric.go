package render

import (
	"strings"

	"github.com/datamind-studio/datamind/internal/analysis"
)

// MetricFamily groups metric labels for icon selection.
type MetricFamily string

const (
	FamilyAccuracy MetricFamily = "accuracy"
	FamilyError    MetricFamily = "error"
	FamilyGeneric  MetricFamily = "generic"
)

// KPICard is one metric tile.
type KPICard struct {
	Label       string
	Value       string
	Description string
	Category    analysis.MetricCategory
	Family      MetricFamily
	Icon        string
	ColorClass  string
}

// FamilyOf classifies a metric label by keyword. Matching is a substring
// test, so "Precision" and "precisión" both land in the accuracy family.
func FamilyOf(label string) MetricFamily {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "accuracy") || strings.Contains(l, "precis"):
		return FamilyAccuracy
	case strings.Contains(l, "mse") || strings.Contains(l, "rmse") || strings.Contains(l, "mae"):
		return FamilyError
	}
	return FamilyGeneric
}

// Icon names the glyph for a family.
func (f MetricFamily) Icon() string {
	switch f {
	case FamilyAccuracy:
		return "check-circle"
	case FamilyError:
		return "activity"
	}
	return "info"
}

// ColorClass maps a category tag to the text color class. Unknown tags get
// the info color.
func ColorClass(c analysis.MetricCategory) string {
	switch c {
	case analysis.CategorySuccess:
		return "text-emerald-400"
	case analysis.CategoryWarning:
		return "text-amber-400"
	case analysis.CategoryError:
		return "text-red-400"
	}
	return "text-blue-400"
}

func NewKPICard(it analysis.MetricItem) KPICard {
	fam := FamilyOf(it.Label)
	return KPICard{
		Label:       it.Label,
		Value:       it.Value,
		Description: it.Description,
		Category:    it.Type,
		Family:      fam,
		Icon:        fam.Icon(),
		ColorClass:  ColorClass(it.Type),
	}
}
