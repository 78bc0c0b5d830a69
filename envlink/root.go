package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/itohio/envlink/pkg/config"
	"github.com/itohio/envlink/pkg/telemetry"
)

// app is the state shared by all commands.
type app struct {
	v          *viper.Viper
	configFile string

	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *telemetry.LinkMetrics
	logFile  *lumberjack.Logger
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix("ENVLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	registry := prometheus.NewRegistry()
	return &app{
		v:        v,
		registry: registry,
		metrics:  telemetry.NewLinkMetrics(registry),
	}
}

func newRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:   "envlink",
		Short: "Environmental sensor telemetry over a short-range radio link",
		Long: `envlink samples temperature, humidity and pressure on sender nodes,
forwards them to a gateway over a connectionless radio link and streams them
to a host as JSON lines.

Examples:
  envlink gateway --port /dev/ttyUSB0
  envlink sender --id B1 --window
  envlink viewer --port /dev/ttyUSB0
  envlink demo --senders 3 | envlink viewer --stdin`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "config.yaml", "Configuration file path")
	flags.String("id", "", "Device id, up to 3 characters (e.g. B1)")
	flags.Int("channel", 0, "Radio channel (1-14)")
	flags.String("transport", "", "Radio transport: udp")
	flags.String("mac", "", "Own hardware address, random if empty")
	flags.String("gateway-mac", "", "Gateway hardware address")
	flags.String("target", "", "UDP address of the gateway radio")
	flags.Bool("window", false, "Show the LCD in a window")
	flags.String("log-file", "", "Write the log to a rotated file")
	flags.String("metrics", "", "Serve prometheus metrics on this address (e.g. :9100)")

	a.bind(flags, map[string]string{
		"node.device_id":  "id",
		"radio.channel":   "channel",
		"radio.transport": "transport",
		"radio.address":   "mac",
		"radio.gateway":   "gateway-mac",
		"radio.target":    "target",
		"display.window":  "window",
		"log.file":        "log-file",
		"metrics.listen":  "metrics",
	})

	root.AddCommand(
		newSenderCmd(a),
		newGatewayCmd(a),
		newViewerCmd(a),
		newDemoCmd(a),
		newPortsCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag and environment overrides and
// starts logging and metrics.
func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	overlay(cfg, a.v)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if cfg.Log.File != "" {
		a.logFile = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
		log.SetOutput(a.logFile)
	}

	if cfg.Metrics.Listen != "" {
		a.serveMetrics(ctx, cfg.Metrics.Listen)
	}
	return nil
}

func (a *app) teardown() {
	if a.logFile != nil {
		log.SetOutput(os.Stderr)
		a.logFile.Close()
		a.logFile = nil
	}
}

// serveMetrics exposes the link counters until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("[metrics] serving on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
}

// ignoreCanceled maps the normal shutdown error to nil.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
