package decoder

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/sheet-dashboard/backend/internal/models"
)

var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// XLSDecoder handles legacy BIFF (.xls) workbooks.
type XLSDecoder struct {
	charset string
}

func NewXLSDecoder() *XLSDecoder {
	return &XLSDecoder{charset: "utf-8"}
}

func (d *XLSDecoder) Name() string {
	return "xls"
}

func (d *XLSDecoder) Extensions() []string {
	return []string{".xls"}
}

func (d *XLSDecoder) Sniff(head []byte) bool {
	return bytes.HasPrefix(head, oleMagic)
}

func (d *XLSDecoder) Decode(data []byte) ([]models.Record, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), d.charset)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}
	if sheet.MaxRow == 0 {
		// a header row at most
		return nil, nil
	}

	// ReadAllCells walks sheets in order and stops once max rows are
	// collected, so this reads exactly the first sheet. Rows without cell
	// records come back nil.
	grid := wb.ReadAllCells(int(sheet.MaxRow) + 1)
	return RecordsFromGrid(grid), nil
}
