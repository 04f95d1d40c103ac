package chart

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sheet-dashboard/backend/internal/models"
)

// MaxPoints bounds the labels and values of every built chart.
const MaxPoints = 20

// Palette is cycled per slice for pie charts; bar and line use its first entry.
var Palette = [5]string{
	"rgba(59, 130, 246, 0.8)",
	"rgba(16, 185, 129, 0.8)",
	"rgba(245, 101, 101, 0.8)",
	"rgba(251, 191, 36, 0.8)",
	"rgba(139, 92, 246, 0.8)",
}

// SeriesBorderColor outlines bar and line series.
const SeriesBorderColor = "rgba(59, 130, 246, 1)"

const borderWidth = 2

// Build derives the chart config for xField/yField over rows. It is pure:
// identical inputs give structurally identical output.
func Build(rows []models.Row, xField, yField string, kind models.ChartKind) models.ChartConfig {
	n := len(rows)
	if n > MaxPoints {
		n = MaxPoints
	}

	labels := make([]string, n)
	data := make([]float64, n)
	for i, row := range rows[:n] {
		labels[i] = Label(row[xField])
		data[i] = Value(row[yField])
	}

	ds := models.Dataset{
		Label:       yField,
		Data:        data,
		BorderWidth: borderWidth,
	}
	if kind == models.ChartPie {
		ds.BackgroundColor = cycle(n)
		ds.BorderColor = cycle(n)
	} else {
		ds.BackgroundColor = []string{Palette[0]}
		ds.BorderColor = []string{SeriesBorderColor}
	}

	return models.ChartConfig{
		Kind:     kind,
		XField:   xField,
		YField:   yField,
		Labels:   labels,
		Datasets: []models.Dataset{ds},
	}
}

func cycle(n int) []string {
	colors := make([]string, n)
	for i := range colors {
		colors[i] = Palette[i%len(Palette)]
	}
	return colors
}

// DefaultAxes picks the first column for x and the second (or first) for y.
func DefaultAxes(columns []string) (x, y string) {
	switch len(columns) {
	case 0:
		return "", ""
	case 1:
		return columns[0], columns[0]
	default:
		return columns[0], columns[1]
	}
}

// Label renders a cell as axis text. Missing cells become empty strings.
func Label(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

var leadingFloat = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// Value reads a cell as a number the way a lenient float parser does: the
// longest numeric prefix of its text counts, anything else is 0. Non-finite
// results are also 0.
func Value(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case int32:
		f = float64(t)
	case string:
		f = parseLeadingFloat(t)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(strings.TrimLeft(s, " \t\n\r\v\f"))
	if m == "" {
		return 0
	}
	if strings.HasSuffix(m, "Infinity") {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
