package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/csvtable/internal/table"
)

// headerSearchLimit bounds how far ReadXLSXFile looks for the header row.
const headerSearchLimit = 20

// ReadXLSXFile reads the first sheet of the workbook at path. Title rows
// above the header are skipped: the header is the row with the most
// non-empty cells among the first few rows.
func ReadXLSXFile(ctx context.Context, path string) ([]table.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	idx := findHeaderRow(rows)
	if idx < 0 {
		return nil, ErrNoHeader
	}
	return toRecords(ctx, rows[idx], rows[idx+1:])
}

func findHeaderRow(rows [][]string) int {
	best, bestIdx := 0, -1
	for i := 0; i < len(rows) && i < headerSearchLimit; i++ {
		n := 0
		for _, cell := range rows[i] {
			if table.CleanCell(cell) != "" {
				n++
			}
		}
		if n > best {
			best, bestIdx = n, i
		}
	}
	return bestIdx
}
