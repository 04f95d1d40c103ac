// Package profile summarizes the columns of an upload with an in-memory DuckDB.
package profile

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/marcboeker/go-duckdb"
	"github.com/sheet-dashboard/backend/internal/chart"
	"github.com/sheet-dashboard/backend/internal/models"
)

// ColumnProfile describes the cells of one column.
type ColumnProfile struct {
	Name     string   `json:"name"`
	NonEmpty int      `json:"nonEmpty"`
	Numeric  int      `json:"numeric"`
	Distinct int      `json:"distinct"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Avg      *float64 `json:"avg,omitempty"`
}

// IsNumeric reports whether every non-empty cell holds a number.
func (p ColumnProfile) IsNumeric() bool {
	return p.NonEmpty > 0 && p.Numeric == p.NonEmpty
}

// Profiler loads upload rows into DuckDB and aggregates them per column.
// Calls are serialized; each one replaces the previous table contents.
type Profiler struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
}

// NewProfiler opens an in-memory database with memoryLimit (e.g. "256MB"),
// or the DuckDB default when empty.
func NewProfiler(memoryLimit string, logger *log.Logger) (*Profiler, error) {
	if logger == nil {
		logger = log.New("profile")
	}
	connector, err := duckdb.NewConnector("", func(execer driver.ExecerContext) error {
		pragmas := []string{"PRAGMA enable_progress_bar=false"}
		if memoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", memoryLimit))
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				logger.Warnf("[Profile] pragma %q: %v", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE cells (
			col_idx INTEGER NOT NULL,
			txt     VARCHAR NOT NULL,
			num     DOUBLE
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &Profiler{db: db, logger: logger}, nil
}

// Close releases the database.
func (p *Profiler) Close() error {
	return p.db.Close()
}

// Profile returns one entry per upload column, in column order.
func (p *Profiler) Profile(ctx context.Context, upload *models.Upload) ([]ColumnProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	profiles := make([]ColumnProfile, len(upload.Columns))
	for i, col := range upload.Columns {
		profiles[i].Name = col
	}
	if len(upload.Columns) == 0 || len(upload.Rows) == 0 {
		return profiles, nil
	}

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM cells"); err != nil {
		return nil, fmt.Errorf("failed to reset table: %w", err)
	}

	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "cells")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}
		defer appender.Close()

		for _, row := range upload.Rows {
			for i, col := range upload.Columns {
				v, ok := row[col]
				if !ok {
					continue
				}
				txt := chart.Label(v)
				if strings.TrimSpace(txt) == "" {
					continue
				}
				var num any
				if f, ok := numericValue(v); ok {
					num = f
				}
				if err := appender.AppendRow(int32(i), txt, num); err != nil {
					return fmt.Errorf("failed to append cell: %w", err)
				}
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return nil, fmt.Errorf("appender error: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT col_idx, COUNT(*), COUNT(num), COUNT(DISTINCT txt), MIN(num), MAX(num), AVG(num)
		FROM cells
		GROUP BY col_idx
		ORDER BY col_idx
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx                     int32
			nonEmpty, numeric, dist int64
			minV, maxV, avgV        sql.NullFloat64
		)
		if err := rows.Scan(&idx, &nonEmpty, &numeric, &dist, &minV, &maxV, &avgV); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if int(idx) >= len(profiles) {
			continue
		}
		cp := &profiles[idx]
		cp.NonEmpty = int(nonEmpty)
		cp.Numeric = int(numeric)
		cp.Distinct = int(dist)
		cp.Min = nullable(minV)
		cp.Max = nullable(maxV)
		cp.Avg = nullable(avgV)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.logger.Debugf("[Profile %s] %d columns over %d rows in %v",
		shortID(upload.ID), len(profiles), len(upload.Rows), time.Since(start))
	return profiles, nil
}

// SuggestY returns the first numeric column other than x, or "" when none.
func SuggestY(profiles []ColumnProfile, x string) string {
	for _, p := range profiles {
		if p.Name != x && p.IsNumeric() {
			return p.Name
		}
	}
	return ""
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
