package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// maxGridCells bounds the rendered rectangle, blank filler included.
const maxGridCells = 1 << 24

// sheetGrid collects sparse rows and renders them as rectangular CSV:
// missing rows between the first and last populated row become blank
// records, and every record is padded to the widest row.
type sheetGrid struct {
	rows  map[int][]string
	first int
	last  int
	width int
}

func (g *sheetGrid) put(idx int, row []string) {
	if g.rows == nil {
		g.rows = make(map[int][]string)
		g.first, g.last = idx, idx
	}
	if idx < g.first {
		g.first = idx
	}
	if idx > g.last {
		g.last = idx
	}
	g.rows[idx] = row
	if len(row) > g.width {
		g.width = len(row)
	}
}

func (g *sheetGrid) csv() (string, error) {
	if len(g.rows) == 0 || g.width == 0 {
		return "", nil
	}
	// trailing blank rows carry no data
	for g.last > g.first && isBlank(g.rows[g.last]) {
		g.last--
	}
	if cells := (g.last - g.first + 1) * g.width; cells > maxGridCells {
		return "", fmt.Errorf("sheet spans %d rows x %d columns, over the %d cell limit", g.last-g.first+1, g.width, maxGridCells)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i := g.first; i <= g.last; i++ {
		rec := make([]string, g.width)
		copy(rec, g.rows[i])
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return buf.String(), nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
