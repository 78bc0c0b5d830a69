package scope

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	titleColor = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

const (
	marginLeft   = float32(60)
	marginRight  = float32(90) // legend
	marginTop    = float32(22)
	marginBottom = float32(24)
	plotGap      = float32(8)
)

// area is the plotting rectangle of one panel.
type area struct {
	X, Y, W, H float32
}

// panelArea splits size into n stacked panels and returns the plotting area
// of panel i.
func panelArea(size fyne.Size, i, n int) area {
	slot := size.Height / float32(n)
	top := slot * float32(i)
	return area{
		X: marginLeft,
		Y: top + marginTop,
		W: size.Width - marginLeft - marginRight,
		H: slot - marginTop - marginBottom - plotGap,
	}
}

// project maps a data point into the area, clamped to its bounds.
func (a area) project(x, y, xMin, xMax, yMin, yMax float64) fyne.Position {
	fx := float32((x - xMin) / (xMax - xMin))
	fy := float32((y - yMin) / (yMax - yMin))
	fx = min(max(fx, 0), 1)
	fy = min(max(fy, 0), 1)
	return fyne.NewPos(a.X+fx*a.W, a.Y+a.H-fy*a.H)
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *Scope

	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(600, 450)
}

func (r *scopeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.Refresh()
	}
}

func (r *scopeRenderer) Refresh() {
	size := r.scope.Size()
	r.objects = []fyne.CanvasObject{r.bg}
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.scope.mu.RLock()
	defer r.scope.mu.RUnlock()

	xMin, xMax := -r.scope.window, 1.0
	for p, plot := range Plots {
		a := panelArea(size, p, len(Plots))
		yMin, yMax := r.scope.yRange(p)

		r.drawTitle(a, plot.Title)
		r.drawGrid(a, xMin, xMax, yMin, yMax, p == len(Plots)-1)

		for _, tr := range r.scope.traces {
			r.drawTrace(a, tr.minutes, tr.values[p], tr.color, xMin, xMax, yMin, yMax)
		}
		r.drawLegend(a)
	}
}

func (r *scopeRenderer) drawTitle(a area, title string) {
	text := canvas.NewText(title, titleColor)
	text.TextSize = 12
	text.TextStyle = fyne.TextStyle{Bold: true}
	text.Move(fyne.NewPos(a.X, a.Y-marginTop+4))
	r.objects = append(r.objects, text)
}

func (r *scopeRenderer) drawGrid(a area, xMin, xMax, yMin, yMax float64, xLabels bool) {
	const numHLines = 4
	for i := range numHLines + 1 {
		y := a.Y + float32(i)*a.H/numHLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(a.X, y)
		line.Position2 = fyne.NewPos(a.X+a.W, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := yMax - float64(i)*(yMax-yMin)/numHLines
		text := canvas.NewText(strconv.FormatFloat(value, 'f', 1, 64), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.X-5, y-6))
		r.objects = append(r.objects, text)
	}

	for m := xMin; m <= xMax; m++ {
		pos := a.project(m, yMin, xMin, xMax, yMin, yMax)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(pos.X, a.Y)
		line.Position2 = fyne.NewPos(pos.X, a.Y+a.H)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		if xLabels && int(m)%2 == 0 {
			text := canvas.NewText(strconv.Itoa(int(m)), labelColor)
			text.TextSize = 10
			text.Alignment = fyne.TextAlignCenter
			text.Move(fyne.NewPos(pos.X-10, a.Y+a.H+4))
			r.objects = append(r.objects, text)
		}
	}
	if xLabels {
		text := canvas.NewText("Time (minutes ago)", labelColor)
		text.TextSize = 10
		text.Move(fyne.NewPos(a.X+a.W-100, a.Y+a.H+4))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) drawTrace(a area, xs, ys []float64, c color.RGBA, xMin, xMax, yMin, yMax float64) {
	for i := 0; i+1 < len(xs) && i+1 < len(ys); i++ {
		line := canvas.NewLine(c)
		line.Position1 = a.project(xs[i], ys[i], xMin, xMax, yMin, yMax)
		line.Position2 = a.project(xs[i+1], ys[i+1], xMin, xMax, yMin, yMax)
		line.StrokeWidth = 2
		r.objects = append(r.objects, line)
	}
}

func (r *scopeRenderer) drawLegend(a area) {
	for i, tr := range r.scope.traces {
		text := canvas.NewText(tr.device, tr.color)
		text.TextSize = 10
		text.Move(fyne.NewPos(a.X+a.W+10, a.Y+float32(i)*12))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *scopeRenderer) Destroy() {}
