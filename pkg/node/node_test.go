package node

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/telemetry"
)

var (
	senderMAC  = radio.MAC{0x24, 0x6f, 0x28, 0xaa, 0xbb, 0xcc}
	gatewayMAC = radio.MAC{0x98, 0xf4, 0xab, 0x6c, 0xe7, 0x88}
)

// scripted is a sensor returning a fixed temperature sequence.
type scripted struct {
	temps   []float32
	i       int
	initErr error
}

func (s *scripted) Init() error { return s.initErr }

func (s *scripted) ReadTemperature() float32 {
	v := s.temps[s.i%len(s.temps)]
	s.i++
	return v
}

func (s *scripted) ReadHumidity() float32 { return 50 }
func (s *scripted) ReadPressure() float32 { return 101320 }
func (s *scripted) Close() error          { return nil }

func senderConfig() SenderConfig {
	return SenderConfig{DeviceID: "A1", Channel: 1, Gateway: gatewayMAC, Metric: telemetry.Temperature}
}

type testbed struct {
	sender   *Sender
	gateway  *Gateway
	senderD  *lcd.Recorder
	gatewayD *lcd.Recorder
	out      *bytes.Buffer
}

func newTestbed(t *testing.T, temps ...float32) *testbed {
	t.Helper()
	air := radio.NewAir()
	sr, err := air.Attach(senderMAC, 1)
	require.NoError(t, err)
	gr, err := air.Attach(gatewayMAC, 1)
	require.NoError(t, err)
	t.Cleanup(func() {
		sr.Close()
		gr.Close()
	})

	tb := &testbed{
		senderD:  lcd.NewRecorder(SenderWidth, SenderHeight),
		gatewayD: lcd.NewRecorder(GatewayWidth, GatewayHeight),
		out:      &bytes.Buffer{},
	}
	tb.gateway, err = NewGateway(GatewayConfig{Channel: 1}, gr, telemetry.NewLineSink(tb.out), tb.gatewayD, nil)
	require.NoError(t, err)
	tb.sender, err = NewSender(senderConfig(), &scripted{temps: temps}, sr, tb.senderD, nil)
	require.NoError(t, err)
	return tb
}

func (tb *testbed) tick() {
	tb.senderD.Reset()
	tb.gatewayD.Reset()
	tb.sender.Tick()
	tb.gateway.Tick()
}

func TestEndToEnd(t *testing.T) {
	tb := newTestbed(t, 20, 21, 22)
	for range 3 {
		tb.tick()
	}

	h := tb.sender.History()
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.Filled())
	assert.Equal(t, []float32{20, 21, 22}, h.Values(nil))

	lines := strings.Split(strings.TrimSpace(tb.out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `{"type":"gateway_boot","channel":1,"mac":"98:f4:ab:6c:e7:88"}`, lines[0])
	for i, line := range lines[1:] {
		r, err := telemetry.ParseRecord([]byte(line))
		require.NoError(t, err)
		assert.Equal(t, "A1", r.ID)
		assert.Equal(t, uint32(i), r.Seq)
		assert.Equal(t, senderMAC.String(), r.From)
	}
	assert.Contains(t, lines[3], `"t":22.00,"h":50.00,"p":1013.20`)

	// Completions are applied at the start of the next tick
	assert.Equal(t, uint32(2), tb.sender.Link().Stats().Success)
	tb.sender.Link().Drain()
	assert.Equal(t, uint32(3), tb.sender.Link().Stats().Success)
}

func TestSenderScreen(t *testing.T) {
	tb := newTestbed(t, 20, 21, 22)
	for range 3 {
		tb.tick()
	}

	texts := tb.senderD.Texts()
	for _, want := range []string{"ID: A1", "Temp: 22.00 C", "Hum:  50.00 %", "Pres: 1013.20 hPa", "seq: 2", "send: OK", "OK:2 NG:0"} {
		assert.Contains(t, texts, want)
	}

	for _, op := range tb.senderD.Filter(lcd.OpText) {
		if op.Text == "send: OK" {
			assert.Equal(t, lcd.Green, op.Color)
		}
	}

	lines := tb.senderD.Filter(lcd.OpDrawLine)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.GreaterOrEqual(t, l.Y1, SenderGraph.Y+5)
		assert.LessOrEqual(t, l.Y1, SenderGraph.Y+SenderGraph.H-5)
	}
	require.Len(t, tb.senderD.Filter(lcd.OpFillCircle), 1)
}

func TestGatewayScreen(t *testing.T) {
	tb := newTestbed(t, 20, 21, 22)
	for range 3 {
		tb.tick()
	}

	texts := tb.gatewayD.Texts()
	for _, want := range []string{"MAC:98:f4:ab:6c:e7:88", "Recv:3", "Last:A1", "T:22.0C H:50.0%", "P:1013.2hPa", "Temp:", "Hum:", "Pres:"} {
		assert.Contains(t, texts, want)
	}

	// Three stacked graphs, two segments each, no marker
	assert.Len(t, tb.gatewayD.Filter(lcd.OpDrawRect), 3)
	assert.Len(t, tb.gatewayD.Filter(lcd.OpDrawLine), 6)
	assert.Empty(t, tb.gatewayD.Filter(lcd.OpFillCircle))

	rects := tb.gatewayD.Filter(lcd.OpDrawRect)
	assert.Equal(t, 65, rects[0].Y1)
	assert.Equal(t, 125, rects[1].Y1)
	assert.Equal(t, 185, rects[2].Y1)
}

func TestGatewayScreen_Empty(t *testing.T) {
	air := radio.NewAir()
	gr, err := air.Attach(gatewayMAC, 1)
	require.NoError(t, err)
	defer gr.Close()

	d := lcd.NewRecorder(GatewayWidth, GatewayHeight)
	g, err := NewGateway(GatewayConfig{Channel: 1}, gr, nil, d, nil)
	require.NoError(t, err)
	assert.Contains(t, d.Texts(), "ESP-NOW Gateway")

	d.Reset()
	g.Tick()
	assert.Contains(t, d.Texts(), "Recv:0")
	assert.Len(t, d.Filter(lcd.OpDrawRect), 3)
	assert.Empty(t, d.Filter(lcd.OpDrawLine))
	assert.Equal(t, 30, g.Link().History().Get(telemetry.Temperature).Cap())
}

func TestSender_SensorMissing(t *testing.T) {
	air := radio.NewAir()
	sr, err := air.Attach(senderMAC, 1)
	require.NoError(t, err)
	defer sr.Close()

	d := lcd.NewRecorder(SenderWidth, SenderHeight)
	_, err = NewSender(senderConfig(), &scripted{initErr: errors.New("no device")}, sr, d, nil)
	require.Error(t, err)
	assert.Contains(t, d.Texts(), "Sensor Error")
	assert.Empty(t, sr.Peers())
}

func TestSender_PeerFailureDegrades(t *testing.T) {
	air := radio.NewAir()
	sr, err := air.Attach(senderMAC, 1)
	require.NoError(t, err)
	defer sr.Close()

	cfg := senderConfig()
	cfg.Channel = 6 // radio is on 1, registration fails
	d := lcd.NewRecorder(SenderWidth, SenderHeight)
	n, err := NewSender(cfg, &scripted{temps: []float32{20}}, sr, d, nil)
	require.NoError(t, err)
	assert.False(t, n.Link().PeerReady())

	for range 3 {
		d.Reset()
		n.Tick()
	}

	s, sendErr := n.Last()
	assert.Error(t, sendErr)
	assert.Equal(t, uint32(2), s.Sequence)
	assert.Equal(t, 3, n.History().Len())
	assert.Contains(t, d.Texts(), "send: NG")
	assert.Contains(t, d.Texts(), "OK:0 NG:0")
}

// flaky fails the first AddPeer.
type flaky struct {
	*radio.AirRadio
	fails int
}

func (f *flaky) AddPeer(addr radio.MAC, channel int) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("radio busy")
	}
	return f.AirRadio.AddPeer(addr, channel)
}

func TestSender_PeerRetry(t *testing.T) {
	air := radio.NewAir()
	sr, err := air.Attach(senderMAC, 1)
	require.NoError(t, err)
	defer sr.Close()
	gr, err := air.Attach(gatewayMAC, 1)
	require.NoError(t, err)
	defer gr.Close()

	d := lcd.NewRecorder(SenderWidth, SenderHeight)
	n, err := NewSender(senderConfig(), &scripted{temps: []float32{20}}, &flaky{AirRadio: sr, fails: 1}, d, nil)
	require.NoError(t, err)
	require.False(t, n.Link().PeerReady())

	n.Tick()
	assert.True(t, n.Link().PeerReady())
	_, sendErr := n.Last()
	assert.NoError(t, sendErr)
	assert.Len(t, sr.Peers(), 1)
}

func TestSender_DisplayedMetric(t *testing.T) {
	air := radio.NewAir()
	sr, err := air.Attach(senderMAC, 1)
	require.NoError(t, err)
	defer sr.Close()

	cfg := senderConfig()
	cfg.Metric = telemetry.Pressure
	n, err := NewSender(cfg, &scripted{temps: []float32{20}}, sr, lcd.NewRecorder(SenderWidth, SenderHeight), nil)
	require.NoError(t, err)

	n.Tick()
	v, ok := n.History().Last()
	require.True(t, ok)
	assert.InDelta(t, 1013.2, v, 1e-3)
}

func TestOnRender(t *testing.T) {
	tb := newTestbed(t, 20)
	var frames int
	tb.sender.OnRender(func(s lcd.Surface) {
		frames++
		assert.Same(t, tb.senderD, s)
	})
	tb.tick()
	tb.tick()
	assert.Equal(t, 2, frames)
}

type counter struct{ n atomic.Int32 }

func (c *counter) Tick() { c.n.Add(1) }

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := &counter{}
	err := Run(ctx, c, 5*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, c.n.Load(), int32(2))
}
