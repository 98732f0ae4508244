package render

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/datamind-studio/datamind/internal/analysis"
)

// MinSequenceTokens is how many numeric tokens make a label a draw.
const MinSequenceTokens = 3

var labelDelims = regexp.MustCompile(`[\s\-,\.]+`)

// PredictionView is one ranked prediction row.
type PredictionView struct {
	Rank       int
	Label      string
	Tokens     []string
	IsSequence bool
	Value      float64
	Percent    string
	Confidence string
	Stats      []StatChip
}

// StatChip is an auxiliary draw statistic.
type StatChip struct {
	Name  string
	Value int
	Class string
}

func NewPredictionView(rank int, p analysis.Prediction) PredictionView {
	tokens := NumericTokens(p.Label)
	v := PredictionView{
		Rank:       rank,
		Label:      p.Label,
		Value:      p.Value,
		Percent:    formatNumber(p.Value) + "%",
		Confidence: p.Confidence,
		Stats:      StatChips(p),
	}
	if len(tokens) >= MinSequenceTokens {
		v.IsSequence = true
		v.Tokens = tokens
	}
	return v
}

// NumericTokens splits label on runs of whitespace, hyphens, commas, and
// periods, keeping tokens that read as numbers. A period is a delimiter, so
// "3.5" yields "3" and "5".
func NumericTokens(label string) []string {
	var out []string
	for _, p := range labelDelims.Split(label, -1) {
		if strings.TrimSpace(p) == "" || !isNumericToken(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// IsNumberSequence reports whether label renders as number badges.
func IsNumberSequence(label string) bool {
	return len(NumericTokens(label)) >= MinSequenceTokens
}

// isNumericToken mirrors JavaScript's Number(): decimal literals with an
// optional sign (overflow is Infinity, still a number), unsigned 0x/0o/0b
// integers, and the literal Infinity.
func isNumericToken(s string) bool {
	if s == "" || strings.ContainsRune(s, '_') {
		return false
	}
	unsigned := strings.TrimPrefix(strings.TrimPrefix(s, "+"), "-")
	if len(unsigned) < len(s)-1 {
		return false
	}
	if unsigned == "Infinity" {
		return true
	}
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		_, err := strconv.ParseUint(s, 0, 64)
		return err == nil || errors.Is(err, strconv.ErrRange)
	}
	lower := strings.ToLower(unsigned)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.HasPrefix(lower, "0x") {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

// StatChips returns a chip for each reported statistic in sum, evens, odds
// order. The row only exists when sum or evens is reported.
func StatChips(p analysis.Prediction) []StatChip {
	if p.Sum == nil && p.Evens == nil {
		return nil
	}
	var chips []StatChip
	if p.Sum != nil {
		chips = append(chips, StatChip{Name: "Sum", Value: *p.Sum, Class: "text-blue-400"})
	}
	if p.Evens != nil {
		chips = append(chips, StatChip{Name: "Evens", Value: *p.Evens, Class: "text-emerald-400"})
	}
	if p.Odds != nil {
		chips = append(chips, StatChip{Name: "Odds", Value: *p.Odds, Class: "text-amber-400"})
	}
	return chips
}
