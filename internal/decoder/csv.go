package decoder

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/sheet-dashboard/backend/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVDecoder handles comma-separated exports of a single sheet.
type CSVDecoder struct{}

func NewCSVDecoder() *CSVDecoder {
	return &CSVDecoder{}
}

func (d *CSVDecoder) Name() string {
	return "csv"
}

func (d *CSVDecoder) Extensions() []string {
	return []string{".csv"}
}

// Sniff never claims a file; CSV is only chosen by extension.
func (d *CSVDecoder) Sniff(head []byte) bool {
	return false
}

func (d *CSVDecoder) Decode(data []byte) ([]models.Record, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return RecordsFromGrid(grid), nil
}
