// Package ingest turns an uploaded file into the text handed to the request
// builder. Spreadsheets become CSV of their first sheet; anything else is
// passed through as text.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Parser converts file bytes into text for a family of file names.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (string, error)
}

var registry []Parser

// Register adds a parser implementation to the registry. The first parser
// whose CanParse matches wins.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(xlsxParser{})
	Register(xlsParser{})
}

// ErrCorrupt is wrapped by every failure to read a spreadsheet.
var ErrCorrupt = errors.New("unreadable spreadsheet")

// Error reports which file failed to ingest.
type Error struct {
	File string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.File, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func corrupt(name string, err error) error {
	return &Error{File: name, Err: fmt.Errorf("%w: %v", ErrCorrupt, err)}
}

// IsSpreadsheet reports whether name carries an .xlsx or .xls extension.
func IsSpreadsheet(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Ingest selects a parser by file name and returns the text representation
// of content. Names no parser claims are decoded as text verbatim.
func Ingest(name string, content []byte) (string, error) {
	for _, p := range registry {
		if !p.CanParse(name) {
			continue
		}
		out, err := p.Parse(content)
		if err != nil {
			return "", corrupt(name, err)
		}
		return out, nil
	}
	return decodeText(content), nil
}

// IngestFile reads path from disk and ingests it.
func IngestFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return Ingest(filepath.Base(path), data)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeText(content []byte) string {
	return string(bytes.TrimPrefix(content, utf8BOM))
}
