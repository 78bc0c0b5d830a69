package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Node    NodeConfig    `yaml:"node"`
	Radio   RadioConfig   `yaml:"radio"`
	Sensor  SensorConfig  `yaml:"sensor"`
	Display DisplayConfig `yaml:"display"`
	Gateway GatewayConfig `yaml:"gateway"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NodeConfig contains sender node parameters.
type NodeConfig struct {
	DeviceID string        `yaml:"device_id"` // Up to 3 characters, e.g. seat number "B1"
	Interval time.Duration `yaml:"interval"`  // Time between samples
	History  int           `yaml:"history"`   // Graph history size
	Metric   string        `yaml:"metric"`    // Graphed metric: t, h or p
}

// RadioConfig contains radio link parameters.
type RadioConfig struct {
	Transport string `yaml:"transport"` // "udp" or "air" (in-process, demo only)
	Channel   int    `yaml:"channel"`   // All nodes must share the channel
	Address   string `yaml:"address"`   // Own hardware address, random if empty
	Gateway   string `yaml:"gateway"`   // Gateway hardware address used by senders
	Listen    string `yaml:"listen"`    // UDP listen address
	Target    string `yaml:"target"`    // UDP destination address
	QueueSize int    `yaml:"queue_size"`
}

// SensorConfig contains sensor driver configuration.
type SensorConfig struct {
	Driver  string     `yaml:"driver"`  // "mock" or "bme280"
	Bus     string     `yaml:"bus"`     // I²C bus name, empty for the first available
	Address uint16     `yaml:"address"` // I²C address
	Mock    MockConfig `yaml:"mock"`
}

// MockConfig contains simulated sensor configuration.
type MockConfig struct {
	Temperature      float64       `yaml:"temperature"`       // Mean temperature (°C)
	Humidity         float64       `yaml:"humidity"`          // Mean relative humidity (%)
	Pressure         float64       `yaml:"pressure"`          // Mean pressure (Pa)
	TemperatureSwing float64       `yaml:"temperature_swing"` // Cycle amplitude (°C)
	HumiditySwing    float64       `yaml:"humidity_swing"`    // Cycle amplitude (%)
	PressureSwing    float64       `yaml:"pressure_swing"`    // Cycle amplitude (Pa)
	Period           time.Duration `yaml:"period"`            // Cycle period
	NoiseLevel       float64       `yaml:"noise_level"`       // Noise amplitude relative to the swing
	Absent           bool          `yaml:"absent"`            // Simulate missing hardware
}

// DisplayConfig contains LCD window configuration.
type DisplayConfig struct {
	Window bool    `yaml:"window"` // Show the LCD in a window
	Scale  float32 `yaml:"scale"`  // Window zoom factor
}

// GatewayConfig contains gateway parameters.
type GatewayConfig struct {
	Port     string        `yaml:"port"` // Serial port for records, stdout if empty
	BaudRate int           `yaml:"baud_rate"`
	History  int           `yaml:"history"`
	Interval time.Duration `yaml:"interval"` // Display refresh interval
	Listen   string        `yaml:"listen"`   // UDP listen address of the gateway radio
}

// ViewerConfig contains host viewer parameters.
type ViewerConfig struct {
	Port       string `yaml:"port"`
	BaudRate   int    `yaml:"baud_rate"`
	MaxHistory int    `yaml:"max_history"`
	Plot       bool   `yaml:"plot"`
}

// LogConfig contains log output configuration.
type LogConfig struct {
	File       string `yaml:"file"` // Rotated log file, stderr if empty
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig contains the prometheus endpoint configuration.
type MetricsConfig struct {
	Listen string `yaml:"listen"` // Disabled if empty
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Node: NodeConfig{
			DeviceID: "A1",
			Interval: time.Second,
			History:  20,
			Metric:   "t",
		},
		Radio: RadioConfig{
			Transport: "udp",
			Channel:   1,
			Gateway:   "98:f4:ab:6c:e7:88",
			Listen:    "127.0.0.1:0",
			Target:    "127.0.0.1:4210",
			QueueSize: 64,
		},
		Sensor: SensorConfig{
			Driver:  "mock",
			Address: 0x76,
			Mock: MockConfig{
				Temperature:      22.0,
				Humidity:         45.0,
				Pressure:         101325.0,
				TemperatureSwing: 2.0,
				HumiditySwing:    5.0,
				PressureSwing:    150.0,
				Period:           10 * time.Minute,
				NoiseLevel:       0.1,
			},
		},
		Display: DisplayConfig{
			Window: false,
			Scale:  2,
		},
		Gateway: GatewayConfig{
			BaudRate: 115200,
			History:  30,
			Interval: 200 * time.Millisecond,
			Listen:   "127.0.0.1:4210",
		},
		Viewer: ViewerConfig{
			Port:       "/dev/ttyUSB0",
			BaudRate:   115200,
			MaxHistory: 100,
			Plot:       true,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if len(c.Node.DeviceID) == 0 || len(c.Node.DeviceID) > 3 {
		return fmt.Errorf("node.device_id must be 1 to 3 characters, got %q", c.Node.DeviceID)
	}
	if c.Node.Interval <= 0 {
		return fmt.Errorf("node.interval must be positive, got %s", c.Node.Interval)
	}
	if c.Gateway.Interval <= 0 {
		return fmt.Errorf("gateway.interval must be positive, got %s", c.Gateway.Interval)
	}
	switch c.Node.Metric {
	case "t", "h", "p":
	default:
		return fmt.Errorf("node.metric must be t, h or p, got %q", c.Node.Metric)
	}
	if c.Radio.Channel < 1 || c.Radio.Channel > 14 {
		return fmt.Errorf("radio.channel must be within 1..14, got %d", c.Radio.Channel)
	}
	switch c.Radio.Transport {
	case "udp", "air":
	default:
		return fmt.Errorf("unknown radio.transport %q", c.Radio.Transport)
	}
	switch c.Sensor.Driver {
	case "mock", "bme280":
	default:
		return fmt.Errorf("unknown sensor.driver %q", c.Sensor.Driver)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Node.DeviceID == "" {
		c.Node.DeviceID = def.Node.DeviceID
	}
	if c.Node.Interval == 0 {
		c.Node.Interval = def.Node.Interval
	}
	if c.Node.History <= 0 {
		c.Node.History = def.Node.History
	}
	if c.Node.Metric == "" {
		c.Node.Metric = def.Node.Metric
	}

	if c.Radio.Transport == "" {
		c.Radio.Transport = def.Radio.Transport
	}
	if c.Radio.Channel == 0 {
		c.Radio.Channel = def.Radio.Channel
	}
	if c.Radio.Gateway == "" {
		c.Radio.Gateway = def.Radio.Gateway
	}
	if c.Radio.QueueSize <= 0 {
		c.Radio.QueueSize = def.Radio.QueueSize
	}

	if c.Sensor.Driver == "" {
		c.Sensor.Driver = def.Sensor.Driver
	}
	if c.Sensor.Address == 0 {
		c.Sensor.Address = def.Sensor.Address
	}
	if c.Sensor.Mock.Period == 0 {
		c.Sensor.Mock.Period = def.Sensor.Mock.Period
	}
	if c.Sensor.Mock.Pressure == 0 {
		c.Sensor.Mock.Pressure = def.Sensor.Mock.Pressure
	}

	if c.Display.Scale <= 0 {
		c.Display.Scale = def.Display.Scale
	}

	if c.Gateway.BaudRate == 0 {
		c.Gateway.BaudRate = def.Gateway.BaudRate
	}
	if c.Gateway.History <= 0 {
		c.Gateway.History = def.Gateway.History
	}
	if c.Gateway.Interval == 0 {
		c.Gateway.Interval = def.Gateway.Interval
	}
	if c.Gateway.Listen == "" {
		c.Gateway.Listen = def.Gateway.Listen
	}

	if c.Viewer.BaudRate == 0 {
		c.Viewer.BaudRate = def.Viewer.BaudRate
	}
	if c.Viewer.MaxHistory <= 0 {
		c.Viewer.MaxHistory = def.Viewer.MaxHistory
	}

	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
}
