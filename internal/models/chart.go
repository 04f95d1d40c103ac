package models

import "time"

// ChartKind is the closed set of chart types.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

// Dataset is one plotted series with its styling.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

// ChartConfig is a renderable description of one chart.
type ChartConfig struct {
	Kind     ChartKind `json:"kind"`
	XField   string    `json:"xField"`
	YField   string    `json:"yField"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Chart is a saved chart config owned by an Upload.
type Chart struct {
	ID        string      `json:"id"`
	Kind      ChartKind   `json:"kind"`
	XField    string      `json:"xField"`
	YField    string      `json:"yField"`
	Config    ChartConfig `json:"config"`
	CreatedAt time.Time   `json:"createdAt"`
}
