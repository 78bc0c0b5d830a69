package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/envlink/pkg/telemetry"
	"github.com/itohio/envlink/pkg/viewer"
)

// DefaultWindow is the time span shown, in minutes.
const DefaultWindow = 10.0

// Plot describes one stacked panel.
type Plot struct {
	Metric string
	Title  string
	Unit   string
}

// Plots are the panels shown top to bottom.
var Plots = []Plot{
	{telemetry.Temperature, "Temperature (°C)", "°C"},
	{telemetry.Humidity, "Humidity (%)", "%"},
	{telemetry.Pressure, "Pressure (hPa)", "hPa"},
}

// trace is the display copy of one device's history.
type trace struct {
	device  string
	color   color.RGBA
	points  []viewer.Point
	minutes []float64
	values  [][]float64 // per plot
}

// Scope is a Fyne widget plotting every device's history in stacked
// temperature, humidity and pressure panels against minutes before the
// newest sample.
type Scope struct {
	widget.BaseWidget

	mu     sync.RWMutex
	traces []*trace
	index  map[string]int

	window           float64
	maxDisplayPoints int
}

// New creates a new Scope.
func New() *Scope {
	s := &Scope{
		index:            make(map[string]int),
		window:           DefaultWindow,
		maxDisplayPoints: 500,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// Attach registers the scope with the store. Updates are marshalled onto
// the fyne goroutine.
func (s *Scope) Attach(store *viewer.Store) {
	store.OnUpdate(func(device string, points []viewer.Point) {
		s.UpdateData(device, points)
		fyne.Do(s.Refresh)
	})
}

// UpdateData replaces the history of one device. Call Refresh afterwards.
func (s *Scope) UpdateData(device string, points []viewer.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[device]
	if !ok {
		i = len(s.traces)
		s.index[device] = i
		s.traces = append(s.traces, &trace{
			device: device,
			color:  viewer.DeviceColor(i),
			values: make([][]float64, len(Plots)),
		})
	}

	tr := s.traces[i]
	tr.points = viewer.Downsample(tr.points, points, s.maxDisplayPoints)
	tr.minutes = viewer.Minutes(tr.minutes, tr.points)
	for p, plot := range Plots {
		tr.values[p] = viewer.Values(tr.values[p], tr.points, plot.Metric)
	}
}

// Devices returns the plotted devices in legend order.
func (s *Scope) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.traces))
	for i, tr := range s.traces {
		out[i] = tr.device
	}
	return out
}

// yRange returns the padded value range of plot p over all traces.
func (s *Scope) yRange(p int) (float64, float64) {
	first := true
	var lo, hi float64
	for _, tr := range s.traces {
		for _, v := range tr.values[p] {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	if first {
		return 0, 1
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	margin := span * 0.1
	return lo - margin, hi + margin
}

// CreateRenderer creates the widget renderer.
func (s *Scope) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
