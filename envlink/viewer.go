package main

import (
	"context"
	"io"
	"log"
	"os"

	"fyne.io/fyne/v2"
	"github.com/spf13/cobra"

	"github.com/itohio/envlink/pkg/scope"
	"github.com/itohio/envlink/pkg/uart"
	"github.com/itohio/envlink/pkg/viewer"
)

func newViewerCmd(a *app) *cobra.Command {
	var stdin bool

	cmd := &cobra.Command{
		Use:   "viewer",
		Short: "Print and plot the records of a gateway",
		Long: `Read JSON records from the gateway serial port, print every sample and
plot temperature, humidity and pressure per device.

Examples:
  envlink viewer --port /dev/ttyUSB0
  envlink viewer --port COM5 --plot=false
  envlink demo | envlink viewer --stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader *uart.Reader
			if stdin {
				reader = uart.NewStreamReader(io.NopCloser(os.Stdin), uart.DefaultBufferSize)
			} else {
				reader = uart.NewReader(a.cfg.Viewer.Port, a.cfg.Viewer.BaudRate, uart.DefaultBufferSize)
			}
			return runViewer(cmd.Context(), a, reader, os.Stdout)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&stdin, "stdin", false, "Read records from stdin instead of a serial port")
	flags.String("port", "", "Serial port of the gateway")
	flags.Int("baud", 0, "Serial baud rate")
	flags.Int("max-history", 0, "Points kept per device")
	flags.Bool("plot", true, "Plot the histories in a window")
	a.bind(flags, map[string]string{
		"viewer.port":        "port",
		"viewer.baud_rate":   "baud",
		"viewer.max_history": "max-history",
		"viewer.plot":        "plot",
	})
	return cmd
}

func runViewer(ctx context.Context, a *app, reader *uart.Reader, out io.Writer) error {
	cfg := a.cfg

	var win *window
	if cfg.Viewer.Plot {
		win = newWindow("envlink viewer")
	}

	if err := reader.Connect(); err != nil {
		return err
	}
	defer reader.Close()

	store := viewer.New(cfg.Viewer.MaxHistory)
	viewer.NewConsole(out).Attach(store)

	loop := func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			store.Process(reader.Messages())
			close(done)
		}()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			log.Printf("[viewer] stream ended, %d lines skipped", reader.Skipped())
			return nil
		}
	}
	if win == nil {
		return ignoreCanceled(loop(ctx))
	}

	plot := scope.New()
	plot.Attach(store)
	win.window.Resize(fyne.NewSize(1000, 800))
	return ignoreCanceled(win.run(ctx, plot, loop))
}
