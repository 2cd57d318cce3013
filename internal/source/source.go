// Package source reads tabular files into raw records for the table pipeline.
//
// A source is a path to a .csv or .xlsx file whose first meaningful row is
// the header. Every following row becomes a table.Record keyed by header
// name. Values are left as raw strings; parsing belongs to the column kinds.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvtable/internal/table"
)

var (
	// ErrUnsupported is returned for file extensions with no reader.
	ErrUnsupported = errors.New("unsupported source format")

	// ErrNoHeader is returned when a file has no usable header row.
	ErrNoHeader = errors.New("source has no header row")
)

// Format identifies a source file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the reader for path from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
	}
}

// Load reads every record from the file at path.
func Load(ctx context.Context, path string) ([]table.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var records []table.Record
	switch format {
	case FormatCSV:
		records, err = ReadCSVFile(ctx, path)
	case FormatXLSX:
		records, err = ReadXLSXFile(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// LoadAsync reads path in a new goroutine and calls done exactly once with
// the result. done runs on the loading goroutine.
func LoadAsync(ctx context.Context, path string, done func([]table.Record, error)) {
	go func() {
		records, err := Load(ctx, path)
		done(records, err)
	}()
}

// toRecords zips header names with each data row. Blank header cells are
// skipped and the first occurrence of a repeated header wins. Short rows
// leave the missing fields out of the record.
func toRecords(ctx context.Context, header []string, rows [][]string) ([]table.Record, error) {
	keys := normalizeHeader(header)
	if len(keys) == 0 {
		return nil, ErrNoHeader
	}

	records := make([]table.Record, 0, len(rows))
	for i, row := range rows {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if isBlankRow(row) {
			continue
		}
		records = append(records, zipRow(keys, row))
	}
	return records, nil
}

// checkEvery controls how often long reads poll the context.
const checkEvery = 1000

type headerKey struct {
	name  string
	index int
}

func normalizeHeader(header []string) []headerKey {
	seen := make(map[string]bool, len(header))
	keys := make([]headerKey, 0, len(header))
	for i, h := range header {
		name := table.CleanCell(h)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		keys = append(keys, headerKey{name: name, index: i})
	}
	return keys
}

func zipRow(keys []headerKey, row []string) table.Record {
	rec := make(table.Record, len(keys))
	for _, k := range keys {
		if k.index < len(row) {
			rec[k.name] = row[k.index]
		}
	}
	return rec
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
