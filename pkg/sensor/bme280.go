package sensor

import (
	"fmt"
	"log"
	"sync"

	"github.com/chewxy/math32"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// DefaultAddress is the I²C address of most BME280 breakout boards.
const DefaultAddress = 0x76

// BME280 reads a Bosch BME280 over I²C through periph.io.
type BME280 struct {
	busName string
	addr    uint16

	mu  sync.Mutex
	bus i2c.BusCloser
	dev *bmxx80.Dev
	env physic.Env
}

// NewBME280 creates a driver for the device at addr on the named bus. An
// empty bus name selects the first bus available.
func NewBME280(bus string, addr uint16) *BME280 {
	if addr == 0 {
		addr = DefaultAddress
	}
	return &BME280{busName: bus, addr: addr}
}

// Init opens the bus and probes the device.
func (b *BME280) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize host: %w", err)
	}

	bus, err := i2creg.Open(b.busName)
	if err != nil {
		return fmt.Errorf("failed to open i2c bus %q: %w", b.busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, b.addr, &bmxx80.DefaultOpts)
	if err != nil {
		bus.Close()
		return fmt.Errorf("bme280 at 0x%02x: %w: %v", b.addr, ErrNotFound, err)
	}

	b.bus = bus
	b.dev = dev
	return nil
}

// Close halts the device and releases the bus.
func (b *BME280) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return nil
	}
	err := b.dev.Halt()
	if cerr := b.bus.Close(); err == nil {
		err = cerr
	}
	b.dev = nil
	b.bus = nil
	return err
}

// ReadTemperature triggers a measurement and returns the temperature.
func (b *BME280) ReadTemperature() float32 {
	env, ok := b.sense()
	if !ok {
		return math32.NaN()
	}
	return celsius(env.Temperature)
}

func (b *BME280) ReadHumidity() float32 {
	env, ok := b.sense()
	if !ok {
		return math32.NaN()
	}
	return percentRH(env.Humidity)
}

func (b *BME280) ReadPressure() float32 {
	env, ok := b.sense()
	if !ok {
		return math32.NaN()
	}
	return pascal(env.Pressure)
}

func (b *BME280) sense() (physic.Env, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dev == nil {
		return physic.Env{}, false
	}
	if err := b.dev.Sense(&b.env); err != nil {
		log.Printf("[bme280] sense: %v", err)
		return physic.Env{}, false
	}
	return b.env, true
}

func celsius(t physic.Temperature) float32 {
	return float32(float64(t-physic.ZeroCelsius) / float64(physic.Celsius))
}

func percentRH(h physic.RelativeHumidity) float32 {
	return float32(float64(h) / float64(physic.PercentRH))
}

func pascal(p physic.Pressure) float32 {
	return float32(float64(p) / float64(physic.Pascal))
}
