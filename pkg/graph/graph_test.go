package graph

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/envlink/pkg/history"
	"github.com/itohio/envlink/pkg/lcd"
)

var senderRegion = Region{X: 0, Y: 80, W: 240, H: 50}

func TestScaleOf(t *testing.T) {
	tests := []struct {
		name    string
		values  []float32
		wantMin float32
		wantMax float32
	}{
		{"wide range", []float32{10, 20}, 9, 21},
		{"narrow range widened", []float32{20, 20.5}, 19.9, 20.6},
		{"flat", []float32{5, 5, 5}, 4.9, 5.1},
		{"single", []float32{1013.2}, 1013.1, 1013.3},
		{"negative", []float32{-10, 0, -5}, -11, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := ScaleOf(tt.values)
			require.True(t, ok)
			assert.InDelta(t, tt.wantMin, s.Min, 0.001)
			assert.InDelta(t, tt.wantMax, s.Max, 0.001)
			assert.GreaterOrEqual(t, s.Max-s.Min, MinSpan)
		})
	}

	_, ok := ScaleOf(nil)
	assert.False(t, ok)

	_, ok = ScaleOf([]float32{math32.NaN(), math32.NaN()})
	assert.False(t, ok)
}

func TestScaleOf_SkipsNaN(t *testing.T) {
	s, ok := ScaleOf([]float32{20, 21, math32.NaN(), 22})
	require.True(t, ok)
	assert.InDelta(t, 19.8, s.Min, 0.001)
	assert.InDelta(t, 22.2, s.Max, 0.001)
	assert.Greater(t, s.Y(senderRegion, 20), s.Y(senderRegion, 22))
}

func TestScale_YMonotonic(t *testing.T) {
	values := []float32{3, -1, 7.5, 7.4, 0, 12, 2.2}
	s, ok := ScaleOf(values)
	require.True(t, ok)

	for i, a := range values {
		for j, b := range values {
			if a > b {
				assert.LessOrEqual(t, s.Y(senderRegion, a), s.Y(senderRegion, b), "values[%d]=%v values[%d]=%v", i, a, j, b)
			}
		}
	}
}

func TestScale_YClamped(t *testing.T) {
	s := Scale{Min: 0, Max: 1}
	top := senderRegion.Y + Inset
	bottom := senderRegion.Y + senderRegion.H - Inset

	assert.Equal(t, top, s.Y(senderRegion, 100))
	assert.Equal(t, bottom, s.Y(senderRegion, -100))
	assert.Equal(t, top, s.Y(senderRegion, 1))
	assert.Equal(t, bottom, s.Y(senderRegion, 0))
}

func TestX(t *testing.T) {
	assert.Equal(t, 5, X(senderRegion, 0, 3))
	assert.Equal(t, 120, X(senderRegion, 1, 3))
	assert.Equal(t, 235, X(senderRegion, 2, 3))
	// Single sample stays at the left edge
	assert.Equal(t, 5, X(senderRegion, 0, 1))
}

func TestRender_Empty(t *testing.T) {
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, nil, DefaultStyle)

	require.Len(t, r.Ops, 2)
	assert.Equal(t, lcd.OpFillRect, r.Ops[0].Kind)
	assert.Equal(t, lcd.OpDrawRect, r.Ops[1].Kind)
	assert.Equal(t, lcd.White, r.Ops[1].Color)
}

func TestRender_SingleSample(t *testing.T) {
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, []float32{21.5}, DefaultStyle)

	assert.Empty(t, r.Filter(lcd.OpDrawLine))
	circles := r.Filter(lcd.OpFillCircle)
	require.Len(t, circles, 1)
	assert.Equal(t, 5, circles[0].X1)
	assert.Equal(t, lcd.Yellow, circles[0].Color)
	assert.Equal(t, []string{"21.4", "21.6"}, r.Texts())
}

func TestRender_Lines(t *testing.T) {
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, []float32{20, 21, 22}, DefaultStyle)

	lines := r.Filter(lcd.OpDrawLine)
	require.Len(t, lines, 2)

	// Chronological, left to right, rising values go up the screen
	assert.Equal(t, 5, lines[0].X1)
	assert.Equal(t, 120, lines[0].X2)
	assert.Equal(t, 120, lines[1].X1)
	assert.Equal(t, 235, lines[1].X2)
	assert.Greater(t, lines[0].Y1, lines[0].Y2)
	assert.Greater(t, lines[1].Y1, lines[1].Y2)
	assert.Equal(t, lines[0].Y2, lines[1].Y1)
	for _, l := range lines {
		assert.Equal(t, lcd.Green, l.Color)
		assert.GreaterOrEqual(t, l.Y1, 85)
		assert.LessOrEqual(t, l.Y1, 125)
	}

	// Padded bounds: bottom-left then top-left
	texts := r.Filter(lcd.OpText)
	require.Len(t, texts, 2)
	assert.Equal(t, "19.8", texts[0].Text)
	assert.Equal(t, 120, texts[0].Y1)
	assert.Equal(t, "22.2", texts[1].Text)
	assert.Equal(t, 82, texts[1].Y1)
}

func TestRender_FlatDoesNotDivideByZero(t *testing.T) {
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, []float32{5, 5, 5, 5}, DefaultStyle)

	lines := r.Filter(lcd.OpDrawLine)
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, l.Y1, l.Y2)
		assert.GreaterOrEqual(t, l.Y1, 85)
		assert.LessOrEqual(t, l.Y1, 125)
	}
}

func TestRender_FailedRead(t *testing.T) {
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, []float32{20, math32.NaN(), 22}, DefaultStyle)

	// Both segments touch the failed read
	assert.Empty(t, r.Filter(lcd.OpDrawLine))
	require.Len(t, r.Filter(lcd.OpFillCircle), 1)
	assert.Equal(t, []string{"19.8", "22.2"}, r.Texts())

	r.Reset()
	Render(r, senderRegion, []float32{20, 21, math32.NaN()}, DefaultStyle)
	assert.Len(t, r.Filter(lcd.OpDrawLine), 1)
	assert.Empty(t, r.Filter(lcd.OpFillCircle))

	r.Reset()
	Render(r, senderRegion, []float32{math32.NaN()}, DefaultStyle)
	assert.Len(t, r.Ops, 2)
}

func TestRender_NoMarker(t *testing.T) {
	style := DefaultStyle
	style.ShowMarker = false
	r := lcd.NewRecorder(240, 135)
	Render(r, senderRegion, []float32{1, 2}, style)
	assert.Empty(t, r.Filter(lcd.OpFillCircle))
}

func TestGraph_DrawAfterWrap(t *testing.T) {
	buf := history.New(3)
	g := New(buf, senderRegion, DefaultStyle)
	for _, v := range []float32{100, 1, 2, 3} {
		buf.Push(v)
	}

	r := lcd.NewRecorder(240, 135)
	g.Draw(r)

	// 100 was evicted, so the scale only covers 1..3
	assert.Equal(t, []string{"0.8", "3.2"}, r.Texts())
	assert.Len(t, r.Filter(lcd.OpDrawLine), 2)
}

func TestStack(t *testing.T) {
	regions := Stack(Region{X: 0, Y: 65, W: 320, H: 40}, 20, 3)
	require.Len(t, regions, 3)
	assert.Equal(t, 65, regions[0].Y)
	assert.Equal(t, 125, regions[1].Y)
	assert.Equal(t, 185, regions[2].Y)
	for _, r := range regions {
		assert.Equal(t, 320, r.W)
		assert.Equal(t, 40, r.H)
	}
}

func TestLabeled_Draw(t *testing.T) {
	buf := history.New(30)
	buf.Push(1000)
	style := DefaultStyle
	style.Line = lcd.Red
	l := Labeled{Label: "Temp:", Graph: New(buf, Region{X: 0, Y: 65, W: 320, H: 40}, style)}

	r := lcd.NewRecorder(320, 240)
	l.Draw(r)

	texts := r.Filter(lcd.OpText)
	require.NotEmpty(t, texts)
	assert.Equal(t, "Temp:", texts[0].Text)
	assert.Equal(t, 55, texts[0].Y1)
	assert.Equal(t, lcd.Red, texts[0].Color)
}
