// Package uart connects to the gateway's USB serial link.
package uart

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/itohio/envlink/pkg/telemetry"
)

const (
	// DefaultBaudRate is the gateway's serial speed.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the messages channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		result := make([]Port, 0, len(details))
		for _, d := range details {
			desc := d.Name
			if d.IsUSB {
				desc = fmt.Sprintf("%s [%s:%s] %s", d.Name, d.VID, d.PID, d.Product)
			}
			result = append(result, Port{Name: d.Name, Description: strings.TrimSpace(desc)})
		}
		return result, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Open opens a serial port at baudRate, 8N1.
func Open(name string, baudRate int) (serial.Port, error) {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	return port, nil
}

// Message is a gateway record stamped with its arrival time.
type Message struct {
	Timestamp time.Time
	telemetry.Record
}

// Reader reads gateway records from a serial port.
type Reader struct {
	port     string
	baudRate int
	open     func() (io.ReadCloser, error)

	messages  chan Message
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	conn      io.ReadCloser
	connected bool
	skipped   atomic.Uint32
	now       func() time.Time
}

// NewReader creates a Reader for the named serial port.
func NewReader(port string, baudRate int, bufSize int) *Reader {
	r := newReader(bufSize)
	r.port = port
	r.baudRate = baudRate
	r.open = func() (io.ReadCloser, error) {
		return Open(r.port, r.baudRate)
	}
	return r
}

// NewStreamReader creates a Reader over an already open stream, such as a
// file with captured output or a pipe.
func NewStreamReader(rc io.ReadCloser, bufSize int) *Reader {
	r := newReader(bufSize)
	r.port = "stream"
	r.open = func() (io.ReadCloser, error) { return rc, nil }
	return r
}

func newReader(bufSize int) *Reader {
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reader{
		messages: make(chan Message, bufSize),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
}

// Connect opens the port and starts reading records.
func (r *Reader) Connect() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return fmt.Errorf("already connected")
	}

	conn, err := r.open()
	if err != nil {
		return err
	}

	r.conn = conn
	r.connected = true

	go r.readMessages()

	return nil
}

// Close closes the port and waits for the reader to stop. The messages
// channel is closed afterwards.
func (r *Reader) Close() error {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return nil
	}
	r.cancel()
	if err := r.conn.Close(); err != nil {
		log.Printf("Error closing serial port: %v", err)
	}
	r.connected = false
	r.mu.Unlock()

	<-r.done
	return nil
}

// Messages returns the channel of received records. It is closed when the
// stream ends or the reader is closed.
func (r *Reader) Messages() <-chan Message {
	return r.messages
}

// IsConnected returns whether the port is open.
func (r *Reader) IsConnected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// Skipped returns the number of lines that were not valid records.
func (r *Reader) Skipped() uint32 {
	return r.skipped.Load()
}

func (r *Reader) readMessages() {
	defer close(r.done)
	defer close(r.messages)

	scanner := bufio.NewScanner(r.conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// The gateway shares the port with its boot log; anything that is
		// not a record is skipped.
		rec, err := telemetry.ParseRecord([]byte(line))
		if err != nil {
			r.skipped.Add(1)
			continue
		}

		select {
		case r.messages <- Message{Timestamp: r.now(), Record: rec}:
		case <-r.ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF && r.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}
