package main

import (
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/itohio/envlink/pkg/config"
)

// bind maps configuration keys to flags of fs. Keys can also be set through
// ENVLINK_<SECTION>_<KEY> environment variables.
func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, fs.Lookup(name)); err != nil {
			log.Printf("[config] bind %s: %v", key, err)
		}
	}
}

// overlay copies the keys that were explicitly set by flags or the
// environment onto cfg.
func overlay(cfg *config.Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	flag := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("node.device_id", &cfg.Node.DeviceID)
	dur("node.interval", &cfg.Node.Interval)
	num("node.history", &cfg.Node.History)
	str("node.metric", &cfg.Node.Metric)

	str("radio.transport", &cfg.Radio.Transport)
	num("radio.channel", &cfg.Radio.Channel)
	str("radio.address", &cfg.Radio.Address)
	str("radio.gateway", &cfg.Radio.Gateway)
	str("radio.listen", &cfg.Radio.Listen)
	str("radio.target", &cfg.Radio.Target)

	str("sensor.driver", &cfg.Sensor.Driver)
	str("sensor.bus", &cfg.Sensor.Bus)

	flag("display.window", &cfg.Display.Window)

	str("gateway.port", &cfg.Gateway.Port)
	num("gateway.baud_rate", &cfg.Gateway.BaudRate)
	str("gateway.listen", &cfg.Gateway.Listen)

	str("viewer.port", &cfg.Viewer.Port)
	num("viewer.baud_rate", &cfg.Viewer.BaudRate)
	num("viewer.max_history", &cfg.Viewer.MaxHistory)
	flag("viewer.plot", &cfg.Viewer.Plot)

	str("log.file", &cfg.Log.File)
	str("metrics.listen", &cfg.Metrics.Listen)
}
