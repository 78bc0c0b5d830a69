package graph

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/itohio/envlink/pkg/history"
	"github.com/itohio/envlink/pkg/lcd"
)

const (
	// Inset is the distance in pixels between the frame and the plotting band.
	Inset = 5
	// MinSpan is the smallest value range plotted, so flat data stays legible.
	MinSpan float32 = 1.0
	// Margin is the fraction of the span added above and below the data.
	Margin float32 = 0.1
	// MarkerRadius is the radius of the newest-sample marker.
	MarkerRadius = 3
)

// Region is a rectangular area of a surface.
type Region struct {
	X, Y, W, H int
}

// Offset returns the region shifted down by dy pixels.
func (r Region) Offset(dy int) Region {
	r.Y += dy
	return r
}

// Style selects graph colours.
type Style struct {
	Background lcd.Color
	Frame      lcd.Color
	Line       lcd.Color
	Label      lcd.Color
	Marker     lcd.Color
	ShowMarker bool
}

// DefaultStyle matches the handheld sender screen.
var DefaultStyle = Style{
	Background: lcd.Black,
	Frame:      lcd.White,
	Line:       lcd.Green,
	Label:      lcd.Cyan,
	Marker:     lcd.Yellow,
	ShowMarker: true,
}

// Scale maps sample values to the vertical pixel range of a region.
type Scale struct {
	Min, Max float32
}

// ScaleOf computes the padded scale for a set of samples. The span is widened
// to MinSpan and then padded by Margin on both ends.
// NaN samples (failed sensor reads) are ignored.
// ok is false when there is no valid sample.
func ScaleOf(values []float32) (Scale, bool) {
	var lo, hi float32
	ok := false
	for _, v := range values {
		if math32.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi = v, v
			ok = true
			continue
		}
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	if !ok {
		return Scale{}, false
	}

	span := hi - lo
	if span < MinSpan {
		span = MinSpan
	}
	lo -= span * Margin
	hi += span * Margin

	return Scale{Min: lo, Max: hi}, true
}

// Y maps v into the region, clamped to the inner plotting band.
func (s Scale) Y(r Region, v float32) int {
	top := r.Y + Inset
	bottom := r.Y + r.H - Inset

	y := int(float32(bottom) - (v-s.Min)*float32(r.H-2*Inset)/(s.Max-s.Min))
	if y < top {
		y = top
	}
	if y > bottom {
		y = bottom
	}
	return y
}

// X returns the horizontal position of sample i of n, evenly spaced.
func X(r Region, i, n int) int {
	return r.X + Inset + i*(r.W-2*Inset)/max(1, n-1)
}

// Render draws values (oldest first) as a line plot inside r.
// The region is cleared and framed even when there is nothing to plot.
func Render(s lcd.Surface, r Region, values []float32, style Style) {
	s.FillRect(r.X, r.Y, r.W, r.H, style.Background)
	s.DrawRect(r.X, r.Y, r.W, r.H, style.Frame)

	scale, ok := ScaleOf(values)
	if !ok {
		return
	}

	n := len(values)
	for i := 0; i < n-1; i++ {
		if math32.IsNaN(values[i]) || math32.IsNaN(values[i+1]) {
			continue
		}
		s.DrawLine(
			X(r, i, n), scale.Y(r, values[i]),
			X(r, i+1, n), scale.Y(r, values[i+1]),
			style.Line,
		)
	}

	if style.ShowMarker && !math32.IsNaN(values[n-1]) {
		s.FillCircle(X(r, n-1, n), scale.Y(r, values[n-1]), MarkerRadius, style.Marker)
	}

	// Bounds are printed after padding, the same values used for scaling
	s.SetTextSize(1)
	s.SetTextColor(style.Label)
	s.SetCursor(r.X+2, r.Y+r.H-10)
	s.Print(fmt.Sprintf("%.1f", scale.Min))
	s.SetCursor(r.X+2, r.Y+2)
	s.Print(fmt.Sprintf("%.1f", scale.Max))
}

// Graph renders one history buffer into a fixed region.
type Graph struct {
	Region Region
	Style  Style

	buf *history.Buffer
	dst []float32
}

// New creates a graph over buf.
func New(buf *history.Buffer, region Region, style Style) *Graph {
	return &Graph{
		Region: region,
		Style:  style,
		buf:    buf,
		dst:    make([]float32, 0, buf.Cap()),
	}
}

// Buffer returns the history the graph plots.
func (g *Graph) Buffer() *history.Buffer {
	return g.buf
}

// Draw renders the current history onto s.
func (g *Graph) Draw(s lcd.Surface) {
	g.dst = g.buf.Values(g.dst)
	Render(s, g.Region, g.dst, g.Style)
}
