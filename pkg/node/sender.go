package node

import (
	"fmt"
	"log"

	"github.com/itohio/envlink/pkg/graph"
	"github.com/itohio/envlink/pkg/history"
	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/sensor"
	"github.com/itohio/envlink/pkg/telemetry"
)

// SenderGraph is the graph area on the sender screen.
var SenderGraph = graph.Region{X: 0, Y: 80, W: 240, H: 50}

// SenderConfig configures a sender node.
type SenderConfig struct {
	DeviceID  string
	Channel   int
	Gateway   radio.MAC
	Metric    string // t, h or p; anything else graphs temperature
	History   int
	QueueSize int
}

// Sender samples the sensor once per tick, transmits the sample and shows it
// on the display together with the history of one metric.
type Sender struct {
	cfg     SenderConfig
	sensor  sensor.Sensor
	sender  *telemetry.Sender
	display lcd.Surface
	graph   *graph.Graph

	last     telemetry.Sample
	lastErr  error
	onRender renderHook
}

// NewSender initializes the sensor, registers the gateway peer and shows the
// boot screen. A sensor that fails to initialize is fatal: the error screen
// is left on the display and the error returned. A peer registration failure
// is not; the node retries it on every tick.
func NewSender(cfg SenderConfig, s sensor.Sensor, r radio.Radio, display lcd.Surface, metrics *telemetry.LinkMetrics) (*Sender, error) {
	display.Clear(lcd.Black)
	display.SetTextSize(2)
	display.SetTextColor(lcd.White)
	display.SetCursor(0, 0)

	if err := s.Init(); err != nil {
		log.Println("Could not find a valid BME280 sensor, check wiring!")
		display.Print("Sensor Error\n")
		return nil, fmt.Errorf("sensor init: %w", err)
	}

	lcd.Printf(display, "ID:%s CH:%d\n", cfg.DeviceID, cfg.Channel)
	log.Printf("My MAC: %s  CH=%d", r.Address(), cfg.Channel)

	n := &Sender{
		cfg:     cfg,
		sensor:  s,
		sender:  telemetry.NewSender(r, cfg.DeviceID, cfg.QueueSize, metrics),
		display: display,
		graph:   graph.New(history.New(cfg.History), SenderGraph, graph.DefaultStyle),
	}
	n.configurePeer()

	display.Print("Ready.\n")
	lcd.Printf(display, "ID: %s\n", cfg.DeviceID)
	return n, nil
}

// OnRender registers a function called after every frame.
func (n *Sender) OnRender(fn func(lcd.Surface)) {
	n.onRender = fn
}

func (n *Sender) configurePeer() {
	err := n.sender.ConfigurePeer(n.cfg.Gateway, n.cfg.Channel)
	log.Printf("[peer] add ret=%v", errString(err))
}

// Tick samples, sends and redraws once.
func (n *Sender) Tick() {
	n.sender.Drain()
	if !n.sender.PeerReady() {
		n.configurePeer()
	}

	temp := n.sensor.ReadTemperature()
	hum := n.sensor.ReadHumidity()
	pres := n.sensor.ReadPressure() / 100 // hPa

	s := n.sender.Next(temp, hum, pres)
	n.lastErr = n.sender.Send(s)
	n.last = s

	v, ok := s.Value(n.cfg.Metric)
	if !ok {
		v = s.Temperature
	}
	n.graph.Buffer().Push(v)

	n.render()
}

func (n *Sender) render() {
	d := n.display
	d.Clear(lcd.Black)
	d.SetCursor(0, 0)
	d.SetTextSize(2)

	d.SetTextColor(lcd.White)
	lcd.Printf(d, "ID: %s\n", n.cfg.DeviceID)
	lcd.Printf(d, "Temp: %.2f C\n", n.last.Temperature)
	lcd.Printf(d, "Hum:  %.2f %%\n", n.last.Humidity)
	lcd.Printf(d, "Pres: %.2f hPa\n", n.last.Pressure)

	d.SetTextColor(lcd.Cyan)
	lcd.Printf(d, "seq: %d\n", n.last.Sequence)
	if n.lastErr == nil {
		d.SetTextColor(lcd.Green)
		d.Print("send: OK\n")
	} else {
		d.SetTextColor(lcd.Red)
		d.Print("send: NG\n")
	}

	st := n.sender.Stats()
	d.SetTextColor(lcd.White)
	lcd.Printf(d, "OK:%d NG:%d\n", st.Success, st.Failure)

	n.graph.Draw(d)
	d.SetTextSize(2)

	if n.onRender != nil {
		n.onRender(d)
	}
}

// History returns the graphed history.
func (n *Sender) History() *history.Buffer {
	return n.graph.Buffer()
}

// Link returns the transmitting end of the radio link.
func (n *Sender) Link() *telemetry.Sender {
	return n.sender
}

// Last returns the most recent sample and its send hand-off result.
func (n *Sender) Last() (telemetry.Sample, error) {
	return n.last, n.lastErr
}

func errString(err error) string {
	if err == nil {
		return "OK"
	}
	return err.Error()
}
