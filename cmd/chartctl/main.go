// Command chartctl inspects spreadsheets and builds chart configs offline,
// using the same ingestion and chart code as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/labstack/gommon/log"
	"github.com/sheet-dashboard/backend/internal/chart"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/ingest"
	"github.com/sheet-dashboard/backend/internal/models"
	"github.com/sheet-dashboard/backend/internal/profile"
	"github.com/sheet-dashboard/backend/internal/render"
	"github.com/sheet-dashboard/backend/internal/store"
)

type globals struct {
	verbose bool
	format  string
	stdout  io.Writer
	stderr  io.Writer
}

type cli struct {
	Verbose bool   `short:"v" help:"Log ingestion details to stderr."`
	Format  string `short:"f" enum:",xlsx,xls,csv" default:"" help:"Read input as this format (xlsx, xls or csv) instead of detecting it."`

	Inspect inspectCmd `cmd:"" help:"Print the columns and row count of a spreadsheet."`
	Build   buildCmd   `cmd:"" help:"Print the chart config for two columns of a spreadsheet."`
}

type inspectCmd struct {
	File    string `arg:"" type:"existingfile" help:"Spreadsheet to read (.xlsx, .xls or .csv)."`
	Profile bool   `help:"Also print per-column statistics."`
}

func (cmd *inspectCmd) Run(g *globals) error {
	upload, err := load(g, cmd.File)
	if err != nil {
		return err
	}

	fmt.Fprintf(g.stdout, "%s: %d rows, %d columns\n", upload.Filename, upload.RowCount(), len(upload.Columns))
	if !cmd.Profile {
		for _, c := range upload.Columns {
			fmt.Fprintln(g.stdout, "  "+c)
		}
		return nil
	}

	p, err := profile.NewProfiler("", logger(g))
	if err != nil {
		return err
	}
	defer p.Close()
	profiles, err := p.Profile(context.Background(), upload)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(g.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tNON-EMPTY\tNUMERIC\tDISTINCT\tMIN\tMAX\tAVG")
	for _, cp := range profiles {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
			cp.Name, cp.NonEmpty, cp.Numeric, cp.Distinct, stat(cp.Min), stat(cp.Max), stat(cp.Avg))
	}
	return w.Flush()
}

type buildCmd struct {
	File string `arg:"" type:"existingfile" help:"Spreadsheet to read (.xlsx, .xls or .csv)."`
	X    string `help:"Label column. Defaults to the first column."`
	Y    string `help:"Value column. Defaults to the second column."`
	Kind string `default:"bar" enum:"bar,line,pie" help:"Chart kind (${enum})."`
	HTML string `name:"html" type:"path" help:"Also render the chart to this HTML file."`
}

func (cmd *buildCmd) Run(g *globals) error {
	upload, err := load(g, cmd.File)
	if err != nil {
		return err
	}

	kind, err := chart.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	x, y := chart.DefaultAxes(upload.Columns)
	if cmd.X != "" {
		x = cmd.X
	}
	if cmd.Y != "" {
		y = cmd.Y
	}
	if err := chart.Validate(upload.Columns, x, y); err != nil {
		return err
	}

	cfg := chart.Build(upload.Rows, x, y, kind)
	enc := json.NewEncoder(g.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return err
	}

	if cmd.HTML == "" {
		return nil
	}
	html, err := render.NewRenderer().Render(cfg, fmt.Sprintf("%s: %s by %s", upload.Filename, y, x))
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.HTML, []byte(html), 0644); err != nil {
		return fmt.Errorf("write %s: %w", cmd.HTML, err)
	}
	fmt.Fprintf(g.stderr, "wrote %s\n", cmd.HTML)
	return nil
}

// load runs a file through the ingestion pipeline into a throwaway store.
func load(g *globals, path string) (*models.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	uploads := store.New()
	defer uploads.Close()
	svc := ingest.NewService(decoder.NewRegistry(), uploads, logger(g))
	if g.format != "" {
		return svc.IngestAs(context.Background(), g.format, filepath.Base(path), data)
	}
	return svc.Ingest(context.Background(), filepath.Base(path), data)
}

func logger(g *globals) *log.Logger {
	l := log.New("chartctl")
	l.SetOutput(g.stderr)
	if !g.verbose {
		l.SetLevel(log.OFF)
	}
	return l
}

func stat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name("chartctl"),
		kong.Description("Inspect spreadsheets and build chart configs."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return ctx.Run(&globals{verbose: c.Verbose, format: c.Format, stdout: stdout, stderr: stderr})
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "chartctl: %v\n", err)
		os.Exit(1)
	}
}
