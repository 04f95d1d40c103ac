package models

import "time"

// Upload represents one ingested spreadsheet.
type Upload struct {
	ID         string    `json:"id" msgpack:"id"`
	Filename   string    `json:"filename" msgpack:"filename"`
	Rows       []Row     `json:"rows" msgpack:"rows"`
	Columns    []string  `json:"columns" msgpack:"columns"`
	UploadedAt time.Time `json:"uploadedAt" msgpack:"uploadedAt"`
	Charts     []Chart   `json:"charts" msgpack:"-"`
}

// RowCount returns the number of data rows.
func (u *Upload) RowCount() int {
	return len(u.Rows)
}

// HasColumn reports whether name is one of the upload's columns.
func (u *Upload) HasColumn(name string) bool {
	for _, c := range u.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// UploadSummary is the row-less view used by listings.
type UploadSummary struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	RowCount    int       `json:"rowCount"`
	ColumnCount int       `json:"columnCount"`
	ChartCount  int       `json:"chartCount"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Summary builds the listing view of u.
func (u *Upload) Summary() UploadSummary {
	return UploadSummary{
		ID:          u.ID,
		Filename:    u.Filename,
		RowCount:    len(u.Rows),
		ColumnCount: len(u.Columns),
		ChartCount:  len(u.Charts),
		UploadedAt:  u.UploadedAt,
	}
}

// Stats aggregates totals across all uploads.
type Stats struct {
	TotalFiles  int `json:"totalFiles"`
	TotalCharts int `json:"totalCharts"`
	TotalRows   int `json:"totalRows"`
}
