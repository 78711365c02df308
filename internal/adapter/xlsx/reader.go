// Package xlsx reads UKE station registers published as spreadsheets and
// presents each row as a delimited line, so the text pipeline can process them.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/bts-coords/internal/domain"
)

// Reader yields workbook rows as delimiter-joined lines.
// It implements pipeline.Extractor.
type Reader struct {
	sheet string
	lines []string
	next  int
}

// Open loads one sheet of a workbook. An empty sheet name selects the first sheet.
// Rows are padded to the header width because excelize trims trailing empty cells.
func Open(path, sheet, delim string) (*Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("open input workbook: no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		lines[i] = strings.Join(row, delim)
	}

	return &Reader{sheet: sheet, lines: lines}, nil
}

// Sheet returns the name of the sheet being read.
func (r *Reader) Sheet() string { return r.sheet }

// Extract returns the next row as a line, or io.EOF.
func (r *Reader) Extract(ctx context.Context) (domain.Line, error) {
	if err := ctx.Err(); err != nil {
		return domain.Line{}, err
	}
	if r.next >= len(r.lines) {
		return domain.Line{}, io.EOF
	}
	line := domain.Line{Number: r.next + 1, Text: r.lines[r.next]}
	r.next++
	return line, nil
}

// Close is a no-op; the workbook is released once Open returns.
func (r *Reader) Close() error { return nil }
