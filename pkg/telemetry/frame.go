package telemetry

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const (
	// IDSize is the width of the nul-padded device id field.
	IDSize = 4
	// MaxIDLen is the longest device id that fits with its terminator.
	MaxIDLen = IDSize - 1
	// FrameSize is the fixed wire size of a frame.
	FrameSize = IDSize + 4*4
)

// Metric names shared by the sender, the gateway and the sink.
const (
	Temperature = "t"
	Humidity    = "h"
	Pressure    = "p"
)

// Metrics lists the metrics carried by a sample, in wire order.
var Metrics = []string{Temperature, Humidity, Pressure}

// Sample is one environmental observation.
type Sample struct {
	DeviceID    string
	Temperature float32 // degrees Celsius
	Humidity    float32 // percent relative humidity
	Pressure    float32 // hPa
	Sequence    uint32
}

// Value returns the value of a metric by name.
func (s Sample) Value(metric string) (float32, bool) {
	switch metric {
	case Temperature:
		return s.Temperature, true
	case Humidity:
		return s.Humidity, true
	case Pressure:
		return s.Pressure, true
	}
	return 0, false
}

// Frame is the wire form of a Sample:
//
//	id[4] | t float32 | h float32 | p float32 | seq uint32
//
// packed with no padding in the byte order of the host. Sender and receiver
// are assumed to share byte order.
type Frame [FrameSize]byte

var order = binary.NativeEndian

// Encode packs s into a frame. Device ids longer than MaxIDLen are truncated;
// the id field is always nul-terminated.
func Encode(s Sample) Frame {
	var f Frame
	copy(f[:MaxIDLen], s.DeviceID)
	order.PutUint32(f[4:8], math.Float32bits(s.Temperature))
	order.PutUint32(f[8:12], math.Float32bits(s.Humidity))
	order.PutUint32(f[12:16], math.Float32bits(s.Pressure))
	order.PutUint32(f[16:20], s.Sequence)
	return f
}

// Decode unpacks a frame. raw must be exactly FrameSize bytes long.
func Decode(raw []byte) (Sample, error) {
	if len(raw) != FrameSize {
		return Sample{}, fmt.Errorf("invalid frame size: expected %d bytes, got %d", FrameSize, len(raw))
	}

	id := raw[:IDSize]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}

	return Sample{
		DeviceID:    strings.ToValidUTF8(string(id), "?"),
		Temperature: math.Float32frombits(order.Uint32(raw[4:8])),
		Humidity:    math.Float32frombits(order.Uint32(raw[8:12])),
		Pressure:    math.Float32frombits(order.Uint32(raw[12:16])),
		Sequence:    order.Uint32(raw[16:20]),
	}, nil
}

// Bytes returns the frame as a byte slice.
func (f *Frame) Bytes() []byte {
	return f[:]
}
