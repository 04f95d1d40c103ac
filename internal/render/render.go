// Package render turns chart configs into standalone ECharts HTML pages.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/sheet-dashboard/backend/internal/models"
)

const defaultChartHeight = "420px"

// ErrUnsupportedKind is returned when a config names a kind the renderer cannot draw.
var ErrUnsupportedKind = errors.New("unsupported chart kind")

// Option customizes a Renderer.
type Option func(*Renderer)

// WithTheme sets the ECharts theme.
func WithTheme(theme string) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithAssetsHost points the generated page at a self-hosted echarts bundle.
func WithAssetsHost(host string) Option {
	return func(r *Renderer) {
		r.assetsHost = host
	}
}

// WithCache memoizes rendered pages.
func WithCache(cache *Cache) Option {
	return func(r *Renderer) {
		r.cache = cache
	}
}

// Renderer draws chart configs with go-echarts.
type Renderer struct {
	theme      string
	assetsHost string
	cache      *Cache
}

// NewRenderer creates a renderer.
func NewRenderer(options ...Option) *Renderer {
	r := &Renderer{theme: types.ThemeWesteros}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render returns an HTML page showing cfg.
func (r *Renderer) Render(cfg models.ChartConfig, title string) (string, error) {
	if r.cache == nil {
		return r.render(cfg, title)
	}
	return r.cache.GetOrRender(Key(cfg, title), func() (string, error) {
		return r.render(cfg, title)
	})
}

func (r *Renderer) render(cfg models.ChartConfig, title string) (string, error) {
	switch cfg.Kind {
	case models.ChartBar:
		return r.renderBar(cfg, title)
	case models.ChartLine:
		return r.renderLine(cfg, title)
	case models.ChartPie:
		return r.renderPie(cfg, title)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, cfg.Kind)
	}
}

func (r *Renderer) renderBar(cfg models.ChartConfig, title string) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(title, cfg)...)
	bar.SetXAxis(cfg.Labels)
	for _, ds := range cfg.Datasets {
		data := make([]opts.BarData, len(ds.Data))
		for i, v := range ds.Data {
			data[i] = opts.BarData{Name: labelAt(cfg.Labels, i), Value: v}
		}
		bar.AddSeries(ds.Label, data, charts.WithItemStyleOpts(seriesStyle(ds)))
	}
	return renderChart(bar)
}

func (r *Renderer) renderLine(cfg models.ChartConfig, title string) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalOptions(title, cfg)...)
	line.SetXAxis(cfg.Labels)
	for _, ds := range cfg.Datasets {
		data := make([]opts.LineData, len(ds.Data))
		for i, v := range ds.Data {
			data[i] = opts.LineData{Name: labelAt(cfg.Labels, i), Value: v}
		}
		line.AddSeries(ds.Label, data, charts.WithItemStyleOpts(seriesStyle(ds)))
	}
	return renderChart(line)
}

func (r *Renderer) renderPie(cfg models.ChartConfig, title string) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(r.globalOptions(title, cfg)...)
	for _, ds := range cfg.Datasets {
		data := make([]opts.PieData, len(ds.Data))
		for i, v := range ds.Data {
			name := labelAt(cfg.Labels, i)
			if name == "" {
				name = fmt.Sprintf("Slice %d", i+1)
			}
			data[i] = opts.PieData{
				Name:  name,
				Value: v,
				ItemStyle: &opts.ItemStyle{
					Color:       colorAt(ds.BackgroundColor, i),
					BorderColor: colorAt(ds.BorderColor, i),
				},
			}
		}
		pie.AddSeries(ds.Label, data)
	}
	return renderChart(pie)
}

func (r *Renderer) globalOptions(title string, cfg models.ChartConfig) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		PageTitle: title,
		Theme:     r.theme,
		Width:     "100%",
		Height:    defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle(cfg)}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func subtitle(cfg models.ChartConfig) string {
	if cfg.XField == "" && cfg.YField == "" {
		return ""
	}
	return fmt.Sprintf("%s by %s", cfg.YField, cfg.XField)
}

func seriesStyle(ds models.Dataset) opts.ItemStyle {
	return opts.ItemStyle{
		Color:       colorAt(ds.BackgroundColor, 0),
		BorderColor: colorAt(ds.BorderColor, 0),
	}
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return ""
	}
	return colors[i%len(colors)]
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
