package decoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRecordsFromGrid(t *testing.T) {
	tests := []struct {
		name     string
		grid     [][]string
		wantKeys [][]string
		wantRows []models.Row
	}{
		{
			name:     "empty grid",
			grid:     nil,
			wantKeys: nil,
		},
		{
			name:     "header only",
			grid:     [][]string{{"Region", "Sales"}},
			wantKeys: [][]string{},
			wantRows: []models.Row{},
		},
		{
			name: "typed cells in column order",
			grid: [][]string{
				{"Region", "Sales", "Active"},
				{"North", "120", "TRUE"},
				{"South", "80.5", "FALSE"},
			},
			wantKeys: [][]string{{"Region", "Sales", "Active"}, {"Region", "Sales", "Active"}},
			wantRows: []models.Row{
				{"Region": "North", "Sales": int64(120), "Active": true},
				{"Region": "South", "Sales": 80.5, "Active": false},
			},
		},
		{
			name: "leading blank rows and blank data rows are skipped",
			grid: [][]string{
				{"", ""},
				{"A", "B"},
				{"", ""},
				{"1", ""},
			},
			wantKeys: [][]string{{"A"}},
			wantRows: []models.Row{{"A": int64(1)}},
		},
		{
			name: "empty and duplicate headers",
			grid: [][]string{
				{"A", "", "A", ""},
				{"x", "y", "z", "w", "extra"},
			},
			wantKeys: [][]string{{"A", "__EMPTY", "A_1", "__EMPTY_1", "__EMPTY_2"}},
			wantRows: []models.Row{{"A": "x", "__EMPTY": "y", "A_1": "z", "__EMPTY_1": "w", "__EMPTY_2": "extra"}},
		},
		{
			name: "headers are kept verbatim",
			grid: [][]string{
				{"Sales ", " Region", "Sales"},
				{"1", "North", "2"},
			},
			wantKeys: [][]string{{"Sales ", " Region", "Sales"}},
			wantRows: []models.Row{{"Sales ": int64(1), " Region": "North", "Sales": int64(2)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := RecordsFromGrid(tt.grid)
			if tt.wantKeys == nil {
				assert.Empty(t, records)
				return
			}
			require.Len(t, records, len(tt.wantKeys))
			for i, rec := range records {
				assert.Equal(t, tt.wantKeys[i], rec.Keys)
				assert.Equal(t, tt.wantRows[i], rec.Row)
			}
		})
	}
}

func TestParseCell(t *testing.T) {
	assert.Equal(t, int64(42), ParseCell("42"))
	assert.Equal(t, -3.25, ParseCell("-3.25"))
	assert.Equal(t, "Inf", ParseCell("Inf"))
	assert.Equal(t, "NaN", ParseCell("NaN"))
	assert.Equal(t, true, ParseCell("TRUE"))
	assert.Equal(t, "true", ParseCell("true"))
	assert.Equal(t, "abc", ParseCell("abc"))
}

func TestXLSXDecoder(t *testing.T) {
	data, err := testutil.BuildXLSX(testutil.SalesSheet())
	require.NoError(t, err)

	d := NewXLSXDecoder()
	assert.True(t, d.Sniff(data[:4]))

	records, err := d.Decode(data)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Region", "Sales"}, records[0].Keys)
	assert.Equal(t, "North", records[0].Row["Region"])
	assert.Equal(t, int64(120), records[0].Row["Sales"])
	assert.Equal(t, 80.5, records[1].Row["Sales"])
	assert.Equal(t, "n/a", records[2].Row["Sales"])
}

func TestXLSXDecoder_RawValues(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Region", "Sales", "Share"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"North", 1200, 0.25}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "B2", "B2", thousands))
	require.NoError(t, f.SetCellStyle(sheet, "C2", "C2", percent))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	records, err := NewXLSXDecoder().Decode(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1200), records[0].Row["Sales"])
	assert.Equal(t, 0.25, records[0].Row["Share"])
}

func TestXLSDecoder(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "sales.xls"))
	require.NoError(t, err)

	d := NewXLSDecoder()
	assert.True(t, d.Sniff(data[:8]))

	found, err := NewRegistry().Find("upload.bin", data[:8])
	require.NoError(t, err)
	assert.Equal(t, "xls", found.Name())

	records, err := d.Decode(data)
	require.NoError(t, err)

	// the third sheet row holds only a blank cell
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Region", "Sales", "Units"}, records[0].Keys)
	assert.Equal(t, models.Row{"Region": "North", "Sales": 1200.5, "Units": int64(42)}, records[0].Row)
	assert.Equal(t, []string{"Region", "Sales"}, records[1].Keys)
	assert.Equal(t, models.Row{"Region": "South", "Sales": int64(80)}, records[1].Row)
}

func TestXLSDecoder_InvalidBytes(t *testing.T) {
	_, err := NewXLSDecoder().Decode([]byte("definitely not a workbook"))
	assert.Error(t, err)
}

func TestXLSXDecoder_InvalidBytes(t *testing.T) {
	_, err := NewXLSXDecoder().Decode([]byte("definitely not a workbook"))
	assert.Error(t, err)
}

func TestCSVDecoder(t *testing.T) {
	data := []byte("\xEF\xBB\xBFRegion,Sales\nNorth,120\n\nSouth,\"80.5\"\n")
	records, err := NewCSVDecoder().Decode(data)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Region", "Sales"}, records[0].Keys)
	assert.Equal(t, 80.5, records[1].Row["Sales"])
}

func TestRegistry_Find(t *testing.T) {
	r := NewRegistry()
	xlsx, err := testutil.BuildXLSX(testutil.SalesSheet())
	require.NoError(t, err)

	tests := []struct {
		name     string
		filename string
		head     []byte
		want     string
		wantErr  bool
	}{
		{name: "xlsx by magic", filename: "report.bin", head: xlsx[:8], want: "xlsx"},
		{name: "xlsx magic beats xls extension", filename: "renamed.xls", head: xlsx[:8], want: "xlsx"},
		{name: "xls by magic", filename: "old", head: oleMagic, want: "xls"},
		{name: "xls by extension", filename: "OLD.XLS", head: []byte("junk"), want: "xls"},
		{name: "csv by extension", filename: "data.csv", head: []byte("a,b\n"), want: "csv"},
		{name: "unknown", filename: "notes.txt", head: []byte("hello"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := r.Find(tt.filename, tt.head)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestRegistry_GetDecoderByName(t *testing.T) {
	r := NewRegistry()
	d, err := r.GetDecoderByName("CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", d.Name())

	_, err = r.GetDecoderByName("ods")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ElementsMatch(t, []string{".xlsx", ".xlsm", ".xls", ".csv"}, r.Extensions())
}
