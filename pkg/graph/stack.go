package graph

import "github.com/itohio/envlink/pkg/lcd"

// LabelHeight is the room reserved above a stacked graph for its label.
const LabelHeight = 10

// Stack returns n regions of the same size as base, laid out downwards with
// gap pixels between them.
func Stack(base Region, gap, n int) []Region {
	out := make([]Region, n)
	for i := range out {
		out[i] = base.Offset(i * (base.H + gap))
	}
	return out
}

// Labeled is a graph with a caption printed above its frame in the line colour.
type Labeled struct {
	Label string
	*Graph
}

// Draw prints the caption and renders the graph.
func (l Labeled) Draw(s lcd.Surface) {
	s.SetTextSize(1)
	s.SetTextColor(l.Style.Line)
	s.SetCursor(l.Region.X, l.Region.Y-LabelHeight)
	s.Print(l.Label)
	l.Graph.Draw(s)
}
