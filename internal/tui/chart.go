package tui

import (
	"github.com/guptarohit/asciigraph"
)

const (
	chartWidth  = 60
	chartHeight = 12
)

var seriesColors = []asciigraph.AnsiColor{asciigraph.OrangeRed, asciigraph.DeepSkyBlue, asciigraph.Green, asciigraph.Gold}

// Plot draws one series; empty and single-point series render as "".
func Plot(series []float64, caption string) string {
	if len(series) < 2 {
		return ""
	}
	chart := asciigraph.Plot(series,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(chart)
}

// PlotMany overlays series that share an x index, e.g. Ru1 and Ru2 yields
// over the same O2 counts.
func PlotMany(series [][]float64, caption string, legends ...string) string {
	var keep [][]float64
	var names []string
	for i, s := range series {
		if len(s) < 2 {
			continue
		}
		keep = append(keep, s)
		if i < len(legends) {
			names = append(names, legends[i])
		}
	}
	if len(keep) == 0 {
		return ""
	}
	opts := []asciigraph.Option{
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(seriesColors[:min(len(keep), len(seriesColors))]...),
	}
	if len(names) == len(keep) {
		opts = append(opts, asciigraph.SeriesLegends(names...))
	}
	return graphStyle.Render(asciigraph.PlotMany(keep, opts...))
}
