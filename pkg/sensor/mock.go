package sensor

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/envlink/pkg/config"
)

// Mock simulates a BME280 for development and demos. Values follow a slow
// sine cycle around the configured means with a small deterministic ripple.
type Mock struct {
	cfg *config.MockConfig
	now func() time.Time

	mu          sync.Mutex
	start       time.Time
	phase       float32
	initialized bool
}

// NewMock creates a new simulated sensor.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Sensor.Mock
		cfg = &def
	}
	return &Mock{
		cfg: cfg,
		now: time.Now,
	}
}

// WithClock replaces the time source.
func (m *Mock) WithClock(now func() time.Time) *Mock {
	m.now = now
	return m
}

// WithPhase offsets the cycle so several simulated nodes do not read the same
// values. phase is a fraction of the period.
func (m *Mock) WithPhase(phase float32) *Mock {
	m.phase = phase
	return m
}

// Init starts the simulation.
func (m *Mock) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Absent {
		return fmt.Errorf("mock: %w", ErrNotFound)
	}
	m.start = m.now()
	m.initialized = true
	return nil
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = false
	return nil
}

func (m *Mock) ReadTemperature() float32 {
	return m.read(m.cfg.Temperature, m.cfg.TemperatureSwing, 0)
}

func (m *Mock) ReadHumidity() float32 {
	// Humidity runs against temperature
	return m.read(m.cfg.Humidity, -m.cfg.HumiditySwing, 0)
}

func (m *Mock) ReadPressure() float32 {
	return m.read(m.cfg.Pressure, m.cfg.PressureSwing, 0.25)
}

// read returns mean + swing*sin(phase) plus ripple, or NaN before Init.
func (m *Mock) read(mean, swing float64, offset float32) float32 {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return math32.NaN()
	}
	elapsed := m.now().Sub(m.start)
	m.mu.Unlock()

	period := float32(m.cfg.Period.Seconds())
	if period <= 0 {
		period = 1
	}
	t := float32(elapsed.Seconds())
	angle := 2 * math32.Pi * (t/period + m.phase + offset)

	// Ripple as in the heater simulation: two incommensurate waves
	ripple := (math32.Sin(t*1.3) + math32.Cos(t*0.7)) * 0.5

	s := float32(swing)
	return float32(mean) + s*math32.Sin(angle) + s*float32(m.cfg.NoiseLevel)*ripple
}
