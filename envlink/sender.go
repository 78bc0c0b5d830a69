package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/itohio/envlink/pkg/config"
	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/node"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/scope"
	"github.com/itohio/envlink/pkg/sensor"
)

func newSenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sender",
		Short: "Run a sensor node",
		Long: `Sample the sensor every interval, send each sample to the gateway and
show the readings and a history graph on the LCD.

Examples:
  envlink sender --id B1
  envlink sender --sensor bme280 --bus /dev/i2c-1 --window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSender(cmd.Context(), a)
		},
	}

	flags := cmd.Flags()
	flags.Duration("interval", 0, "Sampling interval")
	flags.String("metric", "", "Graphed metric: t, h or p")
	flags.String("sensor", "", "Sensor driver: mock or bme280")
	flags.String("bus", "", "I2C bus of the bme280")
	flags.String("listen", "", "UDP listen address")
	a.bind(flags, map[string]string{
		"node.interval": "interval",
		"node.metric":   "metric",
		"sensor.driver": "sensor",
		"sensor.bus":    "bus",
		"radio.listen":  "listen",
	})
	return cmd
}

func runSender(ctx context.Context, a *app) error {
	cfg := a.cfg
	if cfg.Radio.Transport != "udp" {
		return fmt.Errorf("transport %q is only available in the demo", cfg.Radio.Transport)
	}

	addr, err := ownAddress(cfg.Radio.Address)
	if err != nil {
		return err
	}
	gateway, err := radio.ParseMAC(cfg.Radio.Gateway)
	if err != nil {
		return fmt.Errorf("invalid gateway address: %w", err)
	}

	r, err := radio.ListenUDP(addr, cfg.Radio.Channel, cfg.Radio.Listen, cfg.Radio.Target)
	if err != nil {
		return err
	}
	defer r.Close()

	s := newSensor(cfg.Sensor)
	defer s.Close()

	var win *window
	if cfg.Display.Window {
		win = newWindow("envlink sender " + cfg.Node.DeviceID)
	}

	fb := lcd.NewFramebuffer(node.SenderWidth, node.SenderHeight)
	n, err := node.NewSender(node.SenderConfig{
		DeviceID:  cfg.Node.DeviceID,
		Channel:   cfg.Radio.Channel,
		Gateway:   gateway,
		Metric:    cfg.Node.Metric,
		History:   cfg.Node.History,
		QueueSize: cfg.Radio.QueueSize,
	}, s, r, fb, a.metrics)
	if err != nil {
		return err
	}

	loop := func(ctx context.Context) error {
		return node.Run(ctx, n, cfg.Node.Interval)
	}
	if win == nil {
		return ignoreCanceled(loop(ctx))
	}

	panel := scope.NewPanel(fb, cfg.Display.Scale)
	n.OnRender(panel.Update)
	return ignoreCanceled(win.run(ctx, panel, loop))
}

// ownAddress parses the configured hardware address or makes up one.
func ownAddress(s string) (radio.MAC, error) {
	if s == "" {
		addr := radio.RandomMAC()
		log.Printf("[radio] no address configured, using %s", addr)
		return addr, nil
	}
	addr, err := radio.ParseMAC(s)
	if err != nil {
		return radio.MAC{}, fmt.Errorf("invalid radio address: %w", err)
	}
	return addr, nil
}

// newSensor creates the configured sensor driver.
func newSensor(cfg config.SensorConfig) sensor.Sensor {
	if cfg.Driver == "bme280" {
		return sensor.NewBME280(cfg.Bus, cfg.Address)
	}
	return sensor.NewMock(&cfg.Mock)
}
