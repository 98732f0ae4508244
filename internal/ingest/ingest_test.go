package ingest_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datamind-studio/datamind/internal/ingest"
)

// buildXLSX assembles a minimal workbook. sheets maps a worksheet part name
// (e.g. "sheet1.xml") to its <sheetData> body; order lists the sheets as the
// workbook declares them.
func buildXLSX(t *testing.T, order []string, sheets map[string]string, shared []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, body string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	var wb, rels strings.Builder
	wb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`)
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for i, part := range order {
		id := "rId" + string(rune('1'+i))
		wb.WriteString(`<sheet name="S` + string(rune('1'+i)) + `" sheetId="` + string(rune('1'+i)) + `" r:id="` + id + `"/>`)
		rels.WriteString(`<Relationship Id="` + id + `" Type="worksheet" Target="worksheets/` + part + `"/>`)
	}
	wb.WriteString(`</sheets></workbook>`)
	rels.WriteString(`</Relationships>`)
	write("xl/workbook.xml", wb.String())
	write("xl/_rels/workbook.xml.rels", rels.String())
	if len(shared) > 0 {
		var ss strings.Builder
		ss.WriteString(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">`)
		for _, s := range shared {
			ss.WriteString("<si><t>" + s + "</t></si>")
		}
		ss.WriteString(`</sst>`)
		write("xl/sharedStrings.xml", ss.String())
	}
	for part, body := range sheets {
		write("xl/worksheets/"+part, `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>`+body+`</sheetData></worksheet>`)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestIngestXLSXFirstSheetOnly(t *testing.T) {
	first := `<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
		`<row r="2"><c r="A2"><v>1</v></c><c r="B2"><v>2.5</v></c></row>`
	second := `<row r="1"><c r="A1" t="inlineStr"><is><t>SECRET</t></is></c></row>`
	data := buildXLSX(t, []string{"sheet1.xml", "sheet2.xml"},
		map[string]string{"sheet1.xml": first, "sheet2.xml": second},
		[]string{"Date", "Sales"})

	out, err := ingest.Ingest("report.xlsx", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	want := "Date,Sales\n1,2.5\n"
	if out != want {
		t.Fatalf("csv mismatch:\n got %q\nwant %q", out, want)
	}
	if strings.Contains(out, "SECRET") {
		t.Fatalf("second sheet leaked into output")
	}
}

func TestIngestXLSXFollowsWorkbookOrder(t *testing.T) {
	// workbook lists sheet2.xml first
	data := buildXLSX(t, []string{"sheet2.xml", "sheet1.xml"}, map[string]string{
		"sheet1.xml": `<row r="1"><c r="A1" t="inlineStr"><is><t>later</t></is></c></row>`,
		"sheet2.xml": `<row r="1"><c r="A1" t="inlineStr"><is><t>first</t></is></c></row>`,
	}, nil)
	out, err := ingest.Ingest("Book.XLSX", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if out != "first\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestIngestXLSXSparseCellsAndQuoting(t *testing.T) {
	body := `<row r="1"><c r="A1" t="inlineStr"><is><t>N1</t></is></c><c r="C1" t="inlineStr"><is><t>note</t></is></c></row>` +
		`<row r="3"><c r="A3"><v>7</v></c><c r="C3" t="inlineStr"><is><t>a, b</t></is></c></row>` +
		`<row r="4"><c r="B4" t="b"><v>1</v></c></row>`
	data := buildXLSX(t, []string{"sheet1.xml"}, map[string]string{"sheet1.xml": body}, nil)
	out, err := ingest.Ingest("draws.xlsx", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	want := "N1,,note\n,,\n7,,\"a, b\"\n,TRUE,\n"
	if out != want {
		t.Fatalf("csv mismatch:\n got %q\nwant %q", out, want)
	}
}

func TestIngestXLSXRejectsOutOfRangeRefs(t *testing.T) {
	cases := map[string]string{
		"huge column":      `<row r="1"><c r="ZZZZZZZZZZZZZ1"><v>1</v></c></row>`,
		"wrapping column":  `<row r="1"><c r="ZZZZZZZZZZZZZZZZZZZZ1"><v>1</v></c></row>`,
		"past XFD":         `<row r="1"><c r="XFE1"><v>1</v></c></row>`,
		"past last row":    `<row r="1048577"><c r="A1048577"><v>1</v></c></row>`,
		"overflowing row":  `<row r="99999999999999999999999"><c r="A1"><v>1</v></c></row>`,
		"distant last row": `<row r="1"><c r="A1"><v>1</v></c></row><row r="400000000"><c r="A400000000"><v>2</v></c></row>`,
		"grid too large":   `<row r="1"><c r="XFD1"><v>1</v></c></row><row r="1048576"><c r="A1048576"><v>2</v></c></row>`,
	}
	for name, body := range cases {
		data := buildXLSX(t, []string{"sheet1.xml"}, map[string]string{"sheet1.xml": body}, nil)
		out, err := ingest.Ingest("bad.xlsx", data)
		if !errors.Is(err, ingest.ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
		if out != "" {
			t.Fatalf("%s: expected no partial output, got %d bytes", name, len(out))
		}
	}
}

func TestIngestXLSXLastColumn(t *testing.T) {
	body := `<row r="1"><c r="XFD1" t="inlineStr"><is><t>edge</t></is></c></row>`
	data := buildXLSX(t, []string{"sheet1.xml"}, map[string]string{"sheet1.xml": body}, nil)
	out, err := ingest.Ingest("wide.xlsx", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	want := strings.Repeat(",", 16383) + "edge\n"
	if out != want {
		t.Fatalf("unexpected output: %d bytes, want %d", len(out), len(want))
	}
}

func TestIngestXLSFirstSheetOnly(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "two_sheets.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	out, err := ingest.Ingest("two_sheets.xls", data)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	// row 3 is absent and row 4 is one cell short of the header
	want := "region,q1,q2\nnorth,10,12.5\n,,\nsouth,7,\n"
	if out != want {
		t.Fatalf("csv mismatch:\n got %q\nwant %q", out, want)
	}
	if strings.Contains(out, "SECRET") {
		t.Fatalf("second sheet leaked into output")
	}
}

func TestIngestCorruptSpreadsheet(t *testing.T) {
	for _, name := range []string{"broken.xlsx", "broken.xls"} {
		_, err := ingest.Ingest(name, []byte("definitely not a workbook"))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, ingest.ErrCorrupt) {
			t.Fatalf("%s: expected ErrCorrupt, got %v", name, err)
		}
		var ie *ingest.Error
		if !errors.As(err, &ie) || ie.File != name {
			t.Fatalf("%s: expected *ingest.Error naming the file, got %v", name, err)
		}
	}
}

func TestIngestTextVerbatim(t *testing.T) {
	cases := map[string]string{
		"data.csv":       "a,b\n1,2\n",
		"notes.txt":      "free text\n  with spacing ",
		"rows.json":      `[{"x":1}]`,
		"noext":          "raw",
		"weird.xlsx.bak": "not parsed",
	}
	for name, content := range cases {
		out, err := ingest.Ingest(name, []byte(content))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if out != content {
			t.Fatalf("%s: got %q want %q", name, out, content)
		}
	}
}

func TestIngestStripsBOM(t *testing.T) {
	out, err := ingest.Ingest("bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, "h1,h2\n"...))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if out != "h1,h2\n" {
		t.Fatalf("BOM not stripped: %q", out)
	}
}

func TestIngestFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(p, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := ingest.IngestFile(p)
	if err != nil {
		t.Fatalf("ingest file: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := ingest.IngestFile(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestIsSpreadsheet(t *testing.T) {
	for name, want := range map[string]bool{
		"a.xlsx": true, "A.XLS": true, "a.csv": false, "a.txt": false, "xlsx": false,
	} {
		if got := ingest.IsSpreadsheet(name); got != want {
			t.Errorf("%s: got %v want %v", name, got, want)
		}
	}
}
