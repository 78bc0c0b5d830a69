package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/node"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/scope"
	"github.com/itohio/envlink/pkg/telemetry"
	"github.com/itohio/envlink/pkg/uart"
)

func newGatewayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Receive samples and forward them as JSON lines",
		Long: `Receive samples from sender nodes, keep a history of each metric on the
LCD and write one JSON record per sample to the serial port, or to stdout
when no port is configured.

Examples:
  envlink gateway
  envlink gateway --port /dev/ttyUSB0 --window`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGateway(cmd.Context(), a)
		},
	}

	flags := cmd.Flags()
	flags.String("port", "", "Serial port for records, stdout if empty")
	flags.Int("baud", 0, "Serial baud rate")
	flags.String("listen", "", "UDP listen address of the gateway radio")
	a.bind(flags, map[string]string{
		"gateway.port":      "port",
		"gateway.baud_rate": "baud",
		"gateway.listen":    "listen",
	})
	return cmd
}

func runGateway(ctx context.Context, a *app) error {
	cfg := a.cfg
	if cfg.Radio.Transport != "udp" {
		return fmt.Errorf("transport %q is only available in the demo", cfg.Radio.Transport)
	}

	// The gateway answers on the address the senders are configured with.
	address := cfg.Radio.Address
	if address == "" {
		address = cfg.Radio.Gateway
	}
	addr, err := ownAddress(address)
	if err != nil {
		return err
	}

	r, err := radio.ListenUDP(addr, cfg.Radio.Channel, cfg.Gateway.Listen, "")
	if err != nil {
		return err
	}
	defer r.Close()

	var out io.Writer = os.Stdout
	if cfg.Gateway.Port != "" {
		port, err := uart.Open(cfg.Gateway.Port, cfg.Gateway.BaudRate)
		if err != nil {
			return err
		}
		defer port.Close()
		out = port
		log.Printf("[gateway] writing records to %s", cfg.Gateway.Port)
	}

	var win *window
	if cfg.Display.Window {
		win = newWindow("envlink gateway")
	}

	fb := lcd.NewFramebuffer(node.GatewayWidth, node.GatewayHeight)
	g, err := node.NewGateway(node.GatewayConfig{
		Channel:   cfg.Radio.Channel,
		History:   cfg.Gateway.History,
		QueueSize: cfg.Radio.QueueSize,
	}, r, telemetry.NewLineSink(out), fb, a.metrics)
	if err != nil {
		return err
	}

	loop := func(ctx context.Context) error {
		return node.Run(ctx, g, cfg.Gateway.Interval)
	}
	if win == nil {
		return ignoreCanceled(loop(ctx))
	}

	panel := scope.NewPanel(fb, cfg.Display.Scale)
	g.OnRender(panel.Update)
	return ignoreCanceled(win.run(ctx, panel, loop))
}
