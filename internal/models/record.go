// Package models contains domain types for the Sheet Dashboard.
package models

// Row maps a column name to its cell value (string, int64, float64 or bool).
type Row map[string]any

// Record is one decoded spreadsheet row together with the column names
// discovered for it, in sheet order.
type Record struct {
	Keys []string `json:"keys"`
	Row  Row      `json:"row"`
}
