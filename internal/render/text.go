package render

import (
	"fmt"
	"io"
	"strings"
)

// TextOptions selects optional sections for WriteText.
type TextOptions struct {
	IncludeCode  bool
	IncludeChart bool
}

// WriteText prints the dashboard for terminals.
func WriteText(w io.Writer, d *Dashboard, o TextOptions) error {
	var b strings.Builder
	b.WriteString("== Model performance ==\n")
	if d.Summary != "" {
		fmt.Fprintf(&b, "%s\n", d.Summary)
	}
	for _, c := range d.Cards {
		fmt.Fprintf(&b, "  [%s] %-24s %s", c.Category, c.Label, c.Value)
		if c.Description != "" {
			fmt.Fprintf(&b, "  (%s)", c.Description)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n== Predictions ==\n")
	if len(d.Predictions) == 0 {
		b.WriteString("  none\n")
	}
	for _, p := range d.Predictions {
		label := p.Label
		if p.IsSequence {
			label = "[" + strings.Join(p.Tokens, "] [") + "]"
		}
		fmt.Fprintf(&b, "  #%d %s  %s", p.Rank, label, p.Percent)
		if p.Confidence != "" {
			fmt.Fprintf(&b, "  confidence: %s", p.Confidence)
		}
		b.WriteByte('\n')
		if len(p.Stats) > 0 {
			parts := make([]string, len(p.Stats))
			for i, s := range p.Stats {
				parts[i] = fmt.Sprintf("%s: %d", s.Name, s.Value)
			}
			fmt.Fprintf(&b, "     %s\n", strings.Join(parts, "  "))
		}
	}

	b.WriteString("\n== Recommendations ==\n")
	for _, r := range d.Recommendations {
		fmt.Fprintf(&b, "  %d. %s\n", r.N, r.Text)
	}

	if o.IncludeChart {
		fmt.Fprintf(&b, "\n== Chart ==\n  %d points", d.Chart.Points)
		if d.Chart.Dense {
			b.WriteString(" (markers hidden)")
		}
		b.WriteByte('\n')
	}
	if o.IncludeCode && d.Code.Source != "" {
		fmt.Fprintf(&b, "\n== %s ==\n%s\n", d.Code.FileName, strings.TrimRight(d.Code.Source, "\n"))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
