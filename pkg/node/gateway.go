package node

import (
	"log"

	"github.com/itohio/envlink/pkg/graph"
	"github.com/itohio/envlink/pkg/history"
	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/telemetry"
)

// GatewayGraph is the first graph area on the gateway screen; the others are
// stacked below it with GatewayGraphGap pixels between them.
var GatewayGraph = graph.Region{X: 0, Y: 65, W: 320, H: 40}

// GatewayGraphGap leaves room for the label of the next graph.
const GatewayGraphGap = 20

// GatewayConfig configures a gateway node.
type GatewayConfig struct {
	Channel   int
	History   int
	QueueSize int
}

type series struct {
	metric string
	label  string
	color  lcd.Color
}

var gatewaySeries = []series{
	{telemetry.Temperature, "Temp:", lcd.Red},
	{telemetry.Humidity, "Hum:", lcd.Blue},
	{telemetry.Pressure, "Pres:", lcd.Green},
}

// Gateway receives frames, forwards them to the sink and plots the history
// of every metric.
type Gateway struct {
	radio   radio.Radio
	gateway *telemetry.Gateway
	display lcd.Surface
	graphs  []graph.Labeled

	onRender renderHook
}

// NewGateway starts listening on r and writes the boot record to sink.
func NewGateway(cfg GatewayConfig, r radio.Radio, sink telemetry.Sink, display lcd.Surface, metrics *telemetry.LinkMetrics) (*Gateway, error) {
	if cfg.History <= 0 {
		cfg.History = history.GatewayCapacity
	}
	set := history.NewSet(cfg.History, telemetry.Metrics...)
	g := &Gateway{
		radio:   r,
		gateway: telemetry.NewGateway(r, set, sink, cfg.QueueSize, metrics),
		display: display,
	}

	regions := graph.Stack(GatewayGraph, GatewayGraphGap, len(gatewaySeries))
	for i, s := range gatewaySeries {
		style := graph.DefaultStyle
		style.Line = s.color
		style.ShowMarker = false
		g.graphs = append(g.graphs, graph.Labeled{
			Label: s.label,
			Graph: graph.New(set.Get(s.metric), regions[i], style),
		})
	}

	display.Clear(lcd.Black)
	display.SetTextSize(2)
	display.SetTextColor(lcd.White)
	display.SetCursor(0, 0)
	display.Print("ESP-NOW Gateway\n")
	lcd.Printf(display, "CH:%d\n", cfg.Channel)
	lcd.Printf(display, "MAC:\n%s\n", r.Address())

	log.Printf("Gateway MAC: %s  CH=%d", r.Address(), cfg.Channel)
	if err := g.gateway.Boot(cfg.Channel, r.Address()); err != nil {
		return nil, err
	}

	display.Print("Ready.\n")
	return g, nil
}

// OnRender registers a function called after every frame.
func (g *Gateway) OnRender(fn func(lcd.Surface)) {
	g.onRender = fn
}

// Tick processes the frames received since the last tick and redraws.
func (g *Gateway) Tick() {
	g.gateway.Drain()
	g.render()
}

func (g *Gateway) render() {
	d := g.display
	d.Clear(lcd.Black)
	d.SetCursor(0, 0)

	d.SetTextColor(lcd.Cyan)
	d.SetTextSize(1)
	lcd.Printf(d, "MAC:%s\n", g.radio.Address())

	last, _, _ := g.gateway.Last()
	st := g.gateway.Stats()
	d.SetTextColor(lcd.White)
	d.Print("-----------------\n")
	lcd.Printf(d, "Recv:%d\n", st.Received)
	lcd.Printf(d, "Last:%s\n", last.DeviceID)
	lcd.Printf(d, "T:%.1fC H:%.1f%%\n", last.Temperature, last.Humidity)
	lcd.Printf(d, "P:%.1fhPa\n", last.Pressure)

	for _, gr := range g.graphs {
		gr.Draw(d)
	}

	if g.onRender != nil {
		g.onRender(d)
	}
}

// Link returns the receiving end of the radio link.
func (g *Gateway) Link() *telemetry.Gateway {
	return g.gateway
}
