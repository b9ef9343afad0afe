package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	pngWidth       = 10 * vg.Inch
	pngPanelHeight = 3 * vg.Inch
)

var seriesColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// renderPNG stacks one panel per series and encodes the canvas as PNG.
func renderPNG(w io.Writer, fig figure) error {
	plots := make([][]*plot.Plot, len(fig.Series))
	for i, s := range fig.Series {
		p, err := panel(fig, s, i == 0)
		if err != nil {
			return fmt.Errorf("plot %s: %w", s.Name, err)
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(pngWidth, pngPanelHeight*vg.Length(len(plots)))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

func panel(fig figure, s series, first bool) (*plot.Plot, error) {
	p := plot.New()
	if first {
		p.Title.Text = fig.Title + "\n" + s.Name
	} else {
		p.Title.Text = s.Name
	}
	p.Y.Label.Text = s.Name
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	switch fig.Style {
	case BarStyle:
		bars, err := plotter.NewBarChart(plotter.Values(s.Values), barWidth(len(s.Values)))
		if err != nil {
			return nil, err
		}
		bars.Color = seriesColor
		bars.LineStyle.Width = 0
		p.Add(bars)
	default:
		pts := make(plotter.XYs, len(s.Values))
		for i, v := range s.Values {
			pts[i].X = float64(i)
			pts[i].Y = v
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, err
		}
		line.Color = seriesColor
		line.Width = vg.Points(1.5)
		points.Color = seriesColor
		points.Radius = vg.Points(2)
		p.Add(line, points)
	}

	p.NominalX(tickLabels(fig.Labels)...)
	return p, nil
}

func barWidth(n int) vg.Length {
	if n == 0 {
		return vg.Points(20)
	}
	width := (pngWidth - vg.Inch) / vg.Length(2*n)
	return min(width, vg.Points(40))
}

// tickLabels thins dense axes to at most 20 visible labels.
func tickLabels(labels []string) []string {
	const maxTicks = 20
	if len(labels) <= maxTicks {
		return labels
	}
	step := (len(labels) + maxTicks - 1) / maxTicks
	out := make([]string, len(labels))
	for i, l := range labels {
		if i%step == 0 {
			out[i] = l
		}
	}
	return out
}
