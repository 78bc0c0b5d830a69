package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/itohio/envlink/pkg/lcd"
	"github.com/itohio/envlink/pkg/node"
	"github.com/itohio/envlink/pkg/radio"
	"github.com/itohio/envlink/pkg/scope"
	"github.com/itohio/envlink/pkg/sensor"
	"github.com/itohio/envlink/pkg/telemetry"
)

// demoOptions configures an in-process classroom.
type demoOptions struct {
	Senders int
	Loss    float64
}

func newDemoCmd(a *app) *cobra.Command {
	var opts demoOptions

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run simulated senders and a gateway in one process",
		Long: `Run several simulated sender nodes and one gateway over an in-process
radio medium. The gateway records are written to stdout.

Examples:
  envlink demo --senders 5
  envlink demo --loss 0.2 --window
  envlink demo | envlink viewer --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), a, opts, os.Stdout)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.Senders, "senders", 3, "Number of sender nodes")
	flags.Float64Var(&opts.Loss, "loss", 0, "Probability that a frame is lost (0-1)")
	flags.Duration("interval", 0, "Sampling interval")
	a.bind(flags, map[string]string{
		"node.interval": "interval",
	})
	return cmd
}

// demoID names the i-th simulated seat: A1..A9, B1..B9 and so on.
func demoID(i int) string {
	return fmt.Sprintf("%c%d", 'A'+rune(i/9%26), i%9+1)
}

func runDemo(ctx context.Context, a *app, opts demoOptions, out io.Writer) error {
	cfg := a.cfg
	if opts.Senders <= 0 {
		return fmt.Errorf("at least one sender is required, got %d", opts.Senders)
	}

	gatewayAddr, err := radio.ParseMAC(cfg.Radio.Gateway)
	if err != nil {
		return fmt.Errorf("invalid gateway address: %w", err)
	}

	air := radio.NewAir()
	air.SetLoss(opts.Loss)

	gr, err := air.Attach(gatewayAddr, cfg.Radio.Channel)
	if err != nil {
		return err
	}
	defer gr.Close()

	var win *window
	if cfg.Display.Window {
		win = newWindow("envlink demo gateway")
	}

	fb := lcd.NewFramebuffer(node.GatewayWidth, node.GatewayHeight)
	g, err := node.NewGateway(node.GatewayConfig{
		Channel:   cfg.Radio.Channel,
		History:   cfg.Gateway.History,
		QueueSize: cfg.Radio.QueueSize,
	}, gr, telemetry.NewLineSink(out), fb, a.metrics)
	if err != nil {
		return err
	}

	senders := make([]*node.Sender, 0, opts.Senders)
	for i := range opts.Senders {
		r, err := air.Attach(radio.RandomMAC(), cfg.Radio.Channel)
		if err != nil {
			return err
		}
		defer r.Close()

		mock := sensor.NewMock(&cfg.Sensor.Mock).WithPhase(float32(i) / float32(opts.Senders))
		s, err := node.NewSender(node.SenderConfig{
			DeviceID:  demoID(i),
			Channel:   cfg.Radio.Channel,
			Gateway:   gatewayAddr,
			Metric:    cfg.Node.Metric,
			History:   cfg.Node.History,
			QueueSize: cfg.Radio.QueueSize,
		}, mock, r, lcd.NewRecorder(node.SenderWidth, node.SenderHeight).Discard(), a.metrics)
		if err != nil {
			return err
		}
		senders = append(senders, s)
	}
	log.Printf("[demo] %d senders, loss %.2f", len(senders), opts.Loss)

	loop := func(ctx context.Context) error {
		var wg sync.WaitGroup
		wg.Add(len(senders) + 1)
		go func() {
			defer wg.Done()
			node.Run(ctx, g, cfg.Gateway.Interval)
		}()
		for _, s := range senders {
			go func() {
				defer wg.Done()
				node.Run(ctx, s, cfg.Node.Interval)
			}()
		}
		wg.Wait()
		return ctx.Err()
	}
	if win == nil {
		return ignoreCanceled(loop(ctx))
	}

	panel := scope.NewPanel(fb, cfg.Display.Scale)
	g.OnRender(panel.Update)
	return ignoreCanceled(win.run(ctx, panel, loop))
}
