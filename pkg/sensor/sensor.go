// Package sensor reads temperature, humidity and pressure from a BME280 class
// device or a simulation of one.
package sensor

import "errors"

// ErrNotFound is returned by Init when no device answers.
var ErrNotFound = errors.New("sensor not found")

// Sensor is an environmental sensor. Reads that fail return NaN, like the
// Arduino driver the nodes were first written against.
type Sensor interface {
	Init() error
	ReadTemperature() float32 // °C
	ReadHumidity() float32    // %RH
	ReadPressure() float32    // Pa
	Close() error
}

// Ensure Mock implements Sensor.
var _ Sensor = (*Mock)(nil)

// Ensure BME280 implements Sensor.
var _ Sensor = (*BME280)(nil)
