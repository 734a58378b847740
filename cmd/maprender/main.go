package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/tdewolff/argp"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/maprender/renderers"
	"github.com/tdewolff/maprender/renderers/rasterizer"
)

type Render struct {
	Verbose bool   `short:"v" desc:"Verbose logging"`
	Tile    string `short:"t" desc:"Render the web mercator tile z/x/y instead of the configured extent"`
	Output  string `short:"o" default:"map.png" desc:"Output file, the extension selects the format (png, jpg, gif, tiff, svg, svgz, pdf)"`
	Input   string `index:"0" desc:"Map configuration file (TOML)"`
}

type Labels struct {
	Verbose bool   `short:"v" desc:"Verbose logging"`
	Tile    string `short:"t" desc:"Render the web mercator tile z/x/y instead of the configured extent"`
	All     bool   `short:"a" desc:"Include rejected labels"`
	Input   string `index:"0" desc:"Map configuration file (TOML)"`
}

func main() {
	root := argp.NewCmd(&Render{}, "Map renderer for styled layers of points, lines and polygons with label placement")
	root.AddCmd(&Labels{}, "labels", "List the label placement of a map")
	root.Parse()
	root.PrintHelp()
}

func setLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	maprender.SetLogger(logger)
}

func (cmd *Render) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	setLogger(cmd.Verbose)

	m, err := Load(cmd.Input, cmd.Tile)
	if err != nil {
		return err
	}
	writer, err := renderers.Writer(cmd.Output)
	if err != nil {
		return err
	}
	if err := m.WriteFile(cmd.Output, writer); err != nil {
		return err
	}
	slog.Debug("map written", slog.String("output", cmd.Output))
	return nil
}

func (cmd *Labels) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	setLogger(cmd.Verbose)

	m, err := Load(cmd.Input, cmd.Tile)
	if err != nil {
		return err
	}
	img, err := m.Draw(rasterizer.New(m.Width, m.Height))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "LAYER\tTEXT\tPRIORITY\tPOSITION\tX\tY\tSTATUS")
	for _, r := range img.Labels() {
		status := "placed"
		if !r.Accepted {
			if !cmd.All {
				continue
			}
			status = "rejected: " + r.Reason
		}
		fmt.Fprintf(w, "%s\t%q\t%d\t%v\t%.1f\t%.1f\t%s\n", r.Layer, r.Text, r.Priority, r.Position, r.Point[0], r.Point[1], status)
	}
	return w.Flush()
}
