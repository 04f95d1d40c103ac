// Package decoder turns spreadsheet bytes into ordered tabular records.
package decoder

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sheet-dashboard/backend/internal/models"
)

// ErrUnsupportedFormat is returned when no decoder accepts a file.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Decoder defines the interface for spreadsheet decoders.
type Decoder interface {
	// Name returns the unique name of the decoder.
	Name() string
	// Extensions lists the lower-case file extensions handled, with dot.
	Extensions() []string
	// Sniff reports whether the leading bytes look like this format.
	Sniff(head []byte) bool
	// Decode reads the first worksheet and returns one record per non-empty data row.
	Decode(data []byte) ([]models.Record, error)
}

const emptyHeader = "__EMPTY"

// RecordsFromGrid shapes a cell grid into records. The first non-empty row
// is the header row. Each later row yields a record keyed by the headers of
// its non-empty cells, in column order. Empty rows are skipped.
func RecordsFromGrid(grid [][]string) []models.Record {
	headerIdx := -1
	for i, row := range grid {
		if !isBlank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	width := 0
	for _, row := range grid[headerIdx:] {
		if len(row) > width {
			width = len(row)
		}
	}
	headers := buildHeaders(grid[headerIdx], width)

	records := make([]models.Record, 0, len(grid)-headerIdx-1)
	for _, row := range grid[headerIdx+1:] {
		rec := models.Record{Row: make(models.Row)}
		for j, cell := range row {
			if cell == "" {
				continue
			}
			rec.Keys = append(rec.Keys, headers[j])
			rec.Row[headers[j]] = ParseCell(cell)
		}
		if len(rec.Keys) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

// buildHeaders names every column up to width, filling gaps with __EMPTY
// and suffixing repeats with _1, _2, ...
func buildHeaders(row []string, width int) []string {
	headers := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int, width)
	for j := 0; j < width; j++ {
		base := ""
		if j < len(row) {
			base = row[j]
		}
		if base == "" {
			base = emptyHeader
		}
		name := base
		for used[name] {
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base])
		}
		used[name] = true
		headers[j] = name
	}
	return headers
}

// ParseCell types a cell's text: int64 for integers, float64 for finite
// decimals, bool for TRUE/FALSE, otherwise the original string.
func ParseCell(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	switch s {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return s
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
