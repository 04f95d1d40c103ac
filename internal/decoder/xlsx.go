package decoder

import (
	"bytes"
	"fmt"

	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// XLSXDecoder handles Office Open XML workbooks.
type XLSXDecoder struct{}

func NewXLSXDecoder() *XLSXDecoder {
	return &XLSXDecoder{}
}

func (d *XLSXDecoder) Name() string {
	return "xlsx"
}

func (d *XLSXDecoder) Extensions() []string {
	return []string{".xlsx", ".xlsm"}
}

func (d *XLSXDecoder) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, zipMagic)
}

func (d *XLSXDecoder) Decode(data []byte) ([]models.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	// Stored values, not display text: "1,200" or "25%" would not parse as numbers.
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheetName, err)
	}
	return RecordsFromGrid(rows), nil
}
