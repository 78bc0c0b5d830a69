package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/itohio/envlink/pkg/radio"
)

// Record types written by the gateway.
const (
	RecordSample = "sample"
	RecordBoot   = "gateway_boot"
)

// Fixed2 is a float printed with two decimals in JSON.
type Fixed2 float64

// MarshalJSON implements json.Marshaler. Values JSON cannot represent are
// written as null.
func (f Fixed2) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'f', 2, 64), nil
}

// SampleRecord is the serial line written for every received frame.
type SampleRecord struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	T    Fixed2 `json:"t"`
	H    Fixed2 `json:"h"`
	P    Fixed2 `json:"p"`
	Seq  uint32 `json:"seq"`
	From string `json:"from"`
}

// BootRecord is the serial line written once when the gateway starts.
type BootRecord struct {
	Type    string `json:"type"`
	Channel int    `json:"channel"`
	MAC     string `json:"mac"`
}

// Record is the union of all line types, used when reading the stream back.
type Record struct {
	Type    string  `json:"type"`
	ID      string  `json:"id,omitempty"`
	T       float64 `json:"t,omitempty"`
	H       float64 `json:"h,omitempty"`
	P       float64 `json:"p,omitempty"`
	Seq     uint32  `json:"seq,omitempty"`
	From    string  `json:"from,omitempty"`
	Channel int     `json:"channel,omitempty"`
	MAC     string  `json:"mac,omitempty"`
}

// ParseRecord decodes one line of the gateway stream.
func ParseRecord(line []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return Record{}, fmt.Errorf("invalid record: %w", err)
	}
	switch r.Type {
	case RecordSample, RecordBoot:
		return r, nil
	case "":
		return Record{}, fmt.Errorf("invalid record: missing type")
	default:
		return Record{}, fmt.Errorf("unknown record type %q", r.Type)
	}
}

// Sink receives gateway output, one record per call.
type Sink interface {
	WriteSample(s Sample, from radio.MAC) error
	WriteBoot(channel int, mac radio.MAC) error
}

// LineSink writes records as newline-terminated JSON.
type LineSink struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Sink = (*LineSink)(nil)

// NewLineSink creates a sink writing to w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: w}
}

// WriteSample writes a sample record.
func (l *LineSink) WriteSample(s Sample, from radio.MAC) error {
	return l.write(SampleRecord{
		Type: RecordSample,
		ID:   s.DeviceID,
		T:    Fixed2(s.Temperature),
		H:    Fixed2(s.Humidity),
		P:    Fixed2(s.Pressure),
		Seq:  s.Sequence,
		From: from.String(),
	})
}

// WriteBoot writes the gateway boot record.
func (l *LineSink) WriteBoot(channel int, mac radio.MAC) error {
	return l.write(BootRecord{
		Type:    RecordBoot,
		Channel: channel,
		MAC:     mac.String(),
	})
}

func (l *LineSink) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(data); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
