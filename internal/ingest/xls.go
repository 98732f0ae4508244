package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xls")
}

// Parse renders the first sheet of a BIFF workbook as CSV.
func (xlsParser) Parse(content []byte) (out string, err error) {
	// the BIFF reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("xls: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}
	if wb.NumSheets() == 0 {
		return "", errors.New("xls: workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return "", errors.New("xls: first sheet unreadable")
	}
	var grid sheetGrid
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		grid.put(i, cells)
	}
	return grid.csv()
}

// sheetRow returns nil for rows the sheet never stored; WorkSheet.Row
// dereferences the missing entry.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
