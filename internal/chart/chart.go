package chart

import (
	"bytes"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 1200
	defaultHeight = 600
)

var (
	ErrNoData = errors.New("nothing to plot")

	positiveColor  = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	negativeColor  = drawing.Color{R: 255, G: 99, B: 132, A: 255}
	principalColor = drawing.Color{R: 75, G: 192, B: 192, A: 255}
	interestColor  = drawing.Color{R: 255, G: 99, B: 132, A: 255}
	backgroundDark = drawing.Color{R: 55, G: 55, B: 55, A: 255}
	textLight      = drawing.Color{R: 200, G: 200, B: 200, A: 255}
)

// Bar is one labelled value of a bar chart.
type Bar struct {
	Label string
	Value float64
}

// Line is one named series of a line chart.
type Line struct {
	Name   string
	Values []float64
}

func font() (*truetype.Font, error) {
	f, err := chart.GetDefaultFont()
	if err != nil {
		return nil, errors.Wrap(err, "could not load chart font")
	}
	return f, nil
}

// GrowthBars renders growth rates as a PNG bar chart with bars drawn from zero.
func GrowthBars(title string, bars []Bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	f, err := font()
	if err != nil {
		return nil, err
	}

	// The y range always spans zero so bars grow from the axis.
	lo, hi := 0.0, 0.0
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		lo, hi = math.Min(lo, b.Value), math.Max(hi, b.Value)
		color := positiveColor
		if b.Value < 0 {
			color = negativeColor
		}
		values = append(values, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}

	if hi-lo == 0 {
		hi = 1
	}

	graph := chart.BarChart{
		Title:        title,
		TitleStyle:   chart.Style{FontColor: textLight},
		Font:         f,
		Width:        defaultWidth,
		Height:       defaultHeight,
		BarWidth:     80,
		UseBaseValue: true,
		BaseValue:    0,
		Background: chart.Style{
			FillColor: backgroundDark,
			Padding:   chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: backgroundDark},
		XAxis:  chart.Style{FontColor: textLight, StrokeColor: textLight},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: textLight, StrokeColor: textLight},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f%%")
			},
		},
		Bars: values,
	}

	return render(graph.Render)
}

// Lines renders series over a shared integer x axis (0..n-1) as a PNG line chart.
func Lines(title, xName, yName string, lines []Line, format func(float64) string) ([]byte, error) {
	if len(lines) == 0 || len(lines[0].Values) < 2 {
		return nil, ErrNoData
	}

	f, err := font()
	if err != nil {
		return nil, err
	}

	palette := []drawing.Color{principalColor, interestColor}
	series := make([]chart.Series, 0, len(lines))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, l := range lines {
		for _, v := range l.Values {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		xs := make([]float64, len(l.Values))
		for x := range xs {
			xs[x] = float64(x)
		}
		color := palette[i%len(palette)]
		series = append(series, chart.ContinuousSeries{
			Name:    l.Name,
			XValues: xs,
			YValues: l.Values,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				FillColor:   color.WithAlpha(40),
			},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Font:   f,
		Width:  defaultWidth,
		Height: defaultHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: xName,
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		YAxis: chart.YAxis{
			Name: yName,
			ValueFormatter: func(v interface{}) string {
				if fv, ok := v.(float64); ok && format != nil {
					return format(fv)
				}
				return chart.FloatValueFormatter(v)
			},
		},
		Series: series,
	}
	// Flat data has no y range to plot against.
	if hi-lo == 0 {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo, Max: lo + 1}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return render(graph.Render)
}

func render(fn func(chart.RendererProvider, io.Writer) error) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := fn(chart.PNG, buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}
