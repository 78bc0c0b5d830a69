package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/envlink/pkg/config"
	"github.com/itohio/envlink/pkg/sensor"
	"github.com/itohio/envlink/pkg/telemetry"
	"github.com/itohio/envlink/pkg/uart"
)

func TestOverlay_Set(t *testing.T) {
	v := viper.New()
	v.Set("node.device_id", "Z9")
	v.Set("node.interval", "250ms")
	v.Set("radio.channel", 6)
	v.Set("display.window", true)

	cfg := config.Default()
	overlay(cfg, v)

	assert.Equal(t, "Z9", cfg.Node.DeviceID)
	assert.Equal(t, 250*time.Millisecond, cfg.Node.Interval)
	assert.Equal(t, 6, cfg.Radio.Channel)
	assert.True(t, cfg.Display.Window)

	// Untouched keys keep their configured values.
	assert.Equal(t, "t", cfg.Node.Metric)
	assert.Equal(t, "udp", cfg.Radio.Transport)
	assert.True(t, cfg.Viewer.Plot)
}

func TestOverlay_Env(t *testing.T) {
	t.Setenv("ENVLINK_NODE_METRIC", "h")
	t.Setenv("ENVLINK_GATEWAY_PORT", "/dev/ttyS1")
	t.Setenv("ENVLINK_VIEWER_PLOT", "false")

	a := newApp()
	cfg := config.Default()
	overlay(cfg, a.v)

	assert.Equal(t, "h", cfg.Node.Metric)
	assert.Equal(t, "/dev/ttyS1", cfg.Gateway.Port)
	assert.False(t, cfg.Viewer.Plot)
	assert.Equal(t, "A1", cfg.Node.DeviceID)
}

func TestApp_Setup(t *testing.T) {
	a := newApp()
	a.configFile = filepath.Join(t.TempDir(), "missing.yaml")
	a.v.Set("log.file", filepath.Join(t.TempDir(), "envlink.log"))

	require.NoError(t, a.setup(context.Background()))
	defer a.teardown()

	assert.Equal(t, "A1", a.cfg.Node.DeviceID)
	require.NotNil(t, a.logFile)
	assert.Equal(t, 10, a.logFile.MaxSize)
}

func TestApp_SetupInvalid(t *testing.T) {
	a := newApp()
	a.configFile = filepath.Join(t.TempDir(), "missing.yaml")
	a.v.Set("node.device_id", "TOOLONG")

	err := a.setup(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "device_id")
}

func TestDemoID(t *testing.T) {
	tests := []struct {
		i    int
		want string
	}{
		{0, "A1"},
		{1, "A2"},
		{8, "A9"},
		{9, "B1"},
		{19, "C2"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, demoID(tt.i))
	}
}

func TestNewSensor(t *testing.T) {
	cfg := config.Default().Sensor
	assert.IsType(t, &sensor.Mock{}, newSensor(cfg))

	cfg.Driver = "bme280"
	assert.IsType(t, &sensor.BME280{}, newSensor(cfg))
}

func TestOwnAddress(t *testing.T) {
	addr, err := ownAddress("aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", addr.String())

	addr, err = ownAddress("")
	require.NoError(t, err)
	assert.False(t, addr.IsZero())

	_, err = ownAddress("bogus")
	assert.Error(t, err)
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(nil))
	assert.ErrorIs(t, ignoreCanceled(context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestRunDemo(t *testing.T) {
	a := newApp()
	a.cfg = config.Default()
	a.cfg.Node.Interval = 10 * time.Millisecond
	a.cfg.Gateway.Interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(300*time.Millisecond, cancel)

	var out bytes.Buffer
	err := runDemo(ctx, a, demoOptions{Senders: 2}, &out)
	require.NoError(t, err)

	scanner := bufio.NewScanner(&out)
	require.True(t, scanner.Scan())
	boot, err := telemetry.ParseRecord(scanner.Bytes())
	require.NoError(t, err)
	assert.Equal(t, telemetry.RecordBoot, boot.Type)
	assert.Equal(t, "98:f4:ab:6c:e7:88", boot.MAC)

	seen := map[string]bool{}
	for scanner.Scan() {
		rec, err := telemetry.ParseRecord(scanner.Bytes())
		require.NoError(t, err)
		assert.Equal(t, telemetry.RecordSample, rec.Type)
		seen[rec.ID] = true
	}
	assert.True(t, seen["A1"])
	assert.True(t, seen["A2"])
}

func TestRunDemo_NoSenders(t *testing.T) {
	a := newApp()
	a.cfg = config.Default()

	err := runDemo(context.Background(), a, demoOptions{}, io.Discard)
	assert.Error(t, err)
}

func TestRunViewer(t *testing.T) {
	a := newApp()
	a.cfg = config.Default()
	a.cfg.Viewer.Plot = false

	stream := strings.Join([]string{
		`{"type":"gateway_boot","channel":1,"mac":"98:f4:ab:6c:e7:88"}`,
		`garbage`,
		`{"type":"sample","id":"A1","t":23.45,"h":56.70,"p":1013.20,"seq":7,"from":"aa:bb:cc:dd:ee:ff"}`,
	}, "\n") + "\n"
	reader := uart.NewStreamReader(io.NopCloser(strings.NewReader(stream)), 0)

	var out bytes.Buffer
	require.NoError(t, runViewer(context.Background(), a, reader, &out))

	assert.Contains(t, out.String(), "Gateway boot: MAC=98:f4:ab:6c:e7:88, CH=1")
	assert.Contains(t, out.String(), ": T=23.45°C, H=56.70%, P=1013.20hPa")
	assert.Equal(t, uint32(1), reader.Skipped())
}

func TestRunSender_RejectsAir(t *testing.T) {
	a := newApp()
	a.cfg = config.Default()
	a.cfg.Radio.Transport = "air"

	err := runSender(context.Background(), a)
	assert.Error(t, err)

}
