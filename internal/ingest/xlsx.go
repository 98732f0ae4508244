package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse renders the first worksheet of an OOXML workbook as CSV.
func (xlsxParser) Parse(content []byte) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("xlsx: %v", r)
		}
	}()
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return "", err
	}
	if workbookXML == nil {
		return "", errors.New("xlsx: missing xl/workbook.xml")
	}
	relsXML, err := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return "", err
	}
	sharedXML, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return "", err
	}

	target := firstSheetPath(parseWorkbook(workbookXML), parseRelationships(relsXML))
	sheetXML, err := readZipFile(zr, target)
	if err != nil {
		return "", err
	}
	if sheetXML == nil {
		return "", fmt.Errorf("xlsx: worksheet %s not found", target)
	}

	rr := newSheetRowReader(sheetXML, parseSharedStrings(sharedXML))
	var grid sheetGrid
	for {
		idx, row, ok := rr.Next()
		if !ok {
			break
		}
		grid.put(idx, row)
	}
	if rr.err != nil {
		return "", fmt.Errorf("xlsx: read %s: %w", target, rr.err)
	}
	return grid.csv()
}

// firstSheetPath resolves the worksheet listed first in workbook order.
func firstSheetPath(sheets []wbSheet, rels map[string]string) string {
	if len(sheets) > 0 {
		if rel, ok := rels[sheets[0].RID]; ok {
			return normalizeRelPath(rel)
		}
	}
	return "xl/worksheets/sheet1.xml"
}

type wbSheet struct {
	Name string
	RID  string
}

// parseWorkbook extracts sheet entries in document order.
func parseWorkbook(data []byte) []wbSheet {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "id":
				s.RID = a.Value // r:id
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// readZipFile returns nil, nil when the entry does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, nil
}

// parseSharedStrings concatenates the text runs of each <si>, skipping
// phonetic hints.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out      []string
		buf      strings.Builder
		inT      bool
		phonetic int
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "rPh":
				phonetic++
			case "t":
				inT = phonetic == 0
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "rPh":
				phonetic--
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows out of a worksheet part.
type sheetRowReader struct {
	dec     *xml.Decoder
	shared  []string
	nextRow int
	err     error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

// Next returns the zero-based row index and its cell values.
func (r *sheetRowReader) Next() (int, []string, bool) {
	var (
		row    []string
		idx    int
		inRow  bool
		nextCl int
	)
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return 0, nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = nil
				nextCl = 0
				idx = r.nextRow
				if ref := attr(se, "r"); ref != "" {
					if n := atoiSafe(ref); n > 0 {
						idx = n - 1
					}
				}
				if idx >= maxSheetRows {
					r.err = fmt.Errorf("row %d beyond sheet limit of %d", idx+1, maxSheetRows)
					return 0, nil, false
				}
			case inRow && se.Name.Local == "c":
				col := nextCl
				if ref := attr(se, "r"); ref != "" {
					if c := colIndexFromRef(ref); c >= 0 {
						col = c
					}
				}
				if col >= maxSheetCols {
					r.err = fmt.Errorf("cell %q beyond column limit of %d", attr(se, "r"), maxSheetCols)
					return 0, nil, false
				}
				val, err := r.readCellValue(attr(se, "t"))
				if err != nil {
					r.err = err
					return 0, nil, false
				}
				if len(row) <= col {
					grown := make([]string, col+1)
					copy(grown, row)
					row = grown
				}
				row[col] = val
				nextCl = col + 1
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				r.nextRow = idx + 1
				return idx, row, true
			}
		}
	}
}

func (r *sheetRowReader) readCellValue(cellType string) (string, error) {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						return "", err
					}
					if ed, ok := tk.(xml.EndElement); ok && ed.Name.Local == se.Name.Local {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				// inline strings may carry several runs
				if se.Name.Local == "t" {
					val += sb.String()
				} else {
					val = sb.String()
				}
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			switch cellType {
			case "s":
				i := atoiSafe(val)
				if i >= 0 && i < len(r.shared) && val != "" {
					return r.shared[i], nil
				}
				return "", nil
			case "b":
				if val == "1" {
					return "TRUE", nil
				}
				return "FALSE", nil
			}
			return val, nil
		}
	}
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Excel's grid limits (column XFD, row 1048576).
const (
	maxSheetCols = 16384
	maxSheetRows = 1048576
)

// colIndexFromRef maps refs like "C12" to 2 (0-based). Returns -1 when the
// ref has no column letters; anything past XFD saturates at maxSheetCols.
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	letters := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(letters); j++ {
		idx = idx*26 + int(letters[j]-'A'+1)
		if idx > maxSheetCols {
			return maxSheetCols
		}
	}
	return idx - 1
}

// atoiSafe parses the leading digits of s, skipping any column letters.
// Values past math.MaxInt32 saturate there.
func atoiSafe(s string) int {
	n := 0
	seen := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			n = n*10 + int(c-'0')
			if n > math.MaxInt32 {
				n = math.MaxInt32
			}
			seen = true
			continue
		}
		if seen {
			break
		}
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP entry names.
func normalizeRelPath(rel string) string {
	if strings.HasPrefix(rel, "/") {
		return strings.TrimPrefix(rel, "/")
	}
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
